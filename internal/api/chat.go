package api

import (
	"context"
	"fmt"

	"chat-client/internal/models"
)

// CreateChatParams describes a chat to create. ParticipantID applies to
// private chats, MemberIDs to groups.
type CreateChatParams struct {
	Title         string          `json:"title"`
	Kind          models.ChatKind `json:"type,omitempty"`
	ParticipantID int             `json:"participantId,omitempty"`
	MemberIDs     []int           `json:"memberIds,omitempty"`
}

// ChatList fetches every chat visible to the user.
func (c *Client) ChatList(ctx context.Context) ([]models.Chat, error) {
	var chats []models.Chat
	if err := c.t.Get(ctx, "/chat/list", &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// CreateChat creates a private or group chat.
func (c *Client) CreateChat(ctx context.Context, params CreateChatParams) (models.Chat, error) {
	var chat models.Chat
	if err := c.t.Post(ctx, "/chat", params, &chat); err != nil {
		return models.Chat{}, err
	}
	return chat, nil
}

// UpdateChat renames a chat.
func (c *Client) UpdateChat(ctx context.Context, chatID int, title string) error {
	return c.t.Put(ctx, fmt.Sprintf("/chat/%d", chatID), map[string]string{"title": title}, nil)
}

// DeleteChat removes a chat.
func (c *Client) DeleteChat(ctx context.Context, chatID int) error {
	return c.t.Delete(ctx, fmt.Sprintf("/chat/%d", chatID), nil)
}

// ChatMembers lists the members of a chat.
func (c *Client) ChatMembers(ctx context.Context, chatID int) ([]models.ChatMember, error) {
	var members []models.ChatMember
	if err := c.t.Get(ctx, fmt.Sprintf("/chat/%d/members", chatID), &members); err != nil {
		return nil, err
	}
	return members, nil
}

// RemoveChatMember kicks a member out of a group chat.
func (c *Client) RemoveChatMember(ctx context.Context, chatID, userID int) error {
	return c.t.Delete(ctx, fmt.Sprintf("/chat/%d/members/%d", chatID, userID), nil)
}

// InviteToChat asks the group owner to admit a friend.
func (c *Client) InviteToChat(ctx context.Context, chatID, inviteeID int) error {
	return c.t.Post(ctx, fmt.Sprintf("/chat/%d/invite", chatID), map[string]int{"inviteeId": inviteeID}, nil)
}

// ChatInvites lists the pending invites of a chat the user owns.
func (c *Client) ChatInvites(ctx context.Context, chatID int) ([]models.PendingInvite, error) {
	var invites []models.PendingInvite
	if err := c.t.Get(ctx, fmt.Sprintf("/chat/%d/invites", chatID), &invites); err != nil {
		return nil, err
	}
	return invites, nil
}

// ResolveInvite accepts or rejects a pending invite. Action is
// "accept" or "reject".
func (c *Client) ResolveInvite(ctx context.Context, chatID, inviteID int, action string) error {
	return c.t.Put(ctx, fmt.Sprintf("/chat/%d/invite/%d", chatID, inviteID), map[string]string{"action": action}, nil)
}

// UpdateChatAvatar sets a chat's avatar URL.
func (c *Client) UpdateChatAvatar(ctx context.Context, chatID int, avatar string) error {
	return c.t.Put(ctx, "/chat/avatar", map[string]any{"chatId": chatID, "avatar": avatar}, nil)
}
