package ws

import (
	"encoding/json"
	"fmt"

	"chat-client/internal/models"
)

// Inbound event types pushed by the server.
const (
	EventAuthSuccess      = "auth:success"
	EventAuthError        = "auth:error"
	EventPong             = "pong"
	EventMessageNew       = "message:new"
	EventFriendRequest    = "friend:request"
	EventFriendAccepted   = "friend:accepted"
	EventFriendRejected   = "friend:rejected"
	EventFriendRemoved    = "friend:removed"
	EventFriendOnline     = "friend:online"
	EventFriendOffline    = "friend:offline"
	EventChatInvite       = "chat:invite"
	EventChatInviteResult = "chat:invite:result"
	EventError            = "error"
)

// Outbound frame types sent by the client.
const (
	frameAuth        = "auth"
	framePing        = "ping"
	frameMessageSend = "message:send"
)

// Frame is the wire shape of every inbound message.
type Frame struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// OutboundFrame is the wire shape of every outbound message.
type OutboundFrame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// ParseFrame decodes a raw inbound frame. Frames without a type are
// rejected so they get dropped rather than routed.
func ParseFrame(raw []byte) (Frame, error) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if frame.Type == "" {
		return Frame{}, fmt.Errorf("frame missing type")
	}
	return frame, nil
}

// AuthSuccessPayload acknowledges authentication and carries the
// presence snapshot of currently online friends.
type AuthSuccessPayload struct {
	UserID        int   `json:"userId"`
	OnlineFriends []int `json:"onlineFriends"`
}

// AuthErrorPayload rejects authentication.
type AuthErrorPayload struct {
	Message string `json:"message"`
}

// MessageNewPayload delivers a message pushed into a chat.
type MessageNewPayload struct {
	ChatID  int            `json:"chatId"`
	Message models.Message `json:"message"`
}

// FriendRequestPayload announces an inbound friend request.
type FriendRequestPayload struct {
	RequestID int                `json:"requestId"`
	FromUser  models.UserSummary `json:"fromUser"`
}

// FriendAcceptedPayload announces that an outbound request was accepted.
type FriendAcceptedPayload struct {
	Friend models.Friend `json:"friend"`
}

// FriendRemovedPayload announces that a friend removed the user.
type FriendRemovedPayload struct {
	FriendID int `json:"friendId"`
}

// PresencePayload flags a friend going online or offline.
type PresencePayload struct {
	FriendID int `json:"friendId"`
}

// ChatInvitePayload delivers a group invite to the group owner.
type ChatInvitePayload struct {
	ChatTitle string               `json:"chatTitle"`
	Invite    models.PendingInvite `json:"invite"`
}

// ChatInviteResultPayload broadcasts the owner's decision to both the
// inviter and the invitee.
type ChatInviteResultPayload struct {
	ChatTitle string `json:"chatTitle"`
	Action    string `json:"action"`
	InviterID int    `json:"inviterId"`
	InviteeID int    `json:"inviteeId"`
}

// ErrorPayload carries a server-side error notice.
type ErrorPayload struct {
	Message string `json:"message"`
}
