package models

// Message is a single chat message. ID is zero for locally drafted
// messages that have not been acknowledged by the server yet.
type Message struct {
	ID        int    `json:"id,omitempty"`
	Role      string `json:"role,omitempty"`
	Content   string `json:"content"`
	UserID    int    `json:"userId"`
	Username  string `json:"username,omitempty"`
	Nickname  string `json:"nickname,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}
