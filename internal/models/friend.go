package models

// Friend is an accepted friend edge. Online is the only field mutated
// by realtime presence events.
type Friend struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Nickname     string `json:"nickname"`
	Avatar       string `json:"avatar,omitempty"`
	Online       bool   `json:"isOnline"`
	FriendshipID int    `json:"friendshipId"`
	CreatedAt    string `json:"createdAt"`
}

// FriendRequest is a pending inbound friend request.
type FriendRequest struct {
	ID        int    `json:"id"`
	UserID    int    `json:"userId"`
	Username  string `json:"username"`
	Nickname  string `json:"nickname"`
	Avatar    string `json:"avatar,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

// UserSummary is the compact user shape embedded in realtime payloads.
type UserSummary struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar,omitempty"`
}
