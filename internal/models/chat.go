package models

// ChatKind discriminates private and group chats.
type ChatKind string

const (
	ChatPrivate ChatKind = "private"
	ChatGroup   ChatKind = "group"
)

// Chat is one conversation with its locally cached message history.
type Chat struct {
	ID            int       `json:"id"`
	Title         string    `json:"title"`
	Kind          ChatKind  `json:"type"`
	ParticipantID int       `json:"participantId,omitempty"`
	OwnerID       int       `json:"ownerId,omitempty"`
	MyRole        string    `json:"myRole,omitempty"`
	Avatar        string    `json:"avatar,omitempty"`
	LastMessage   string    `json:"lastMessage,omitempty"`
	LastMessageAt string    `json:"lastMessageAt,omitempty"`
	Messages      []Message `json:"messages,omitempty"`
}

// ChatMember is a member entry returned by the members endpoint.
type ChatMember struct {
	UserID   int    `json:"userId"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar,omitempty"`
	Role     string `json:"role"`
}
