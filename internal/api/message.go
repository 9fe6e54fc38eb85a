package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"chat-client/internal/models"
)

// MessageList fetches a page of a chat's history. Zero limit lets the
// server pick its default.
func (c *Client) MessageList(ctx context.Context, chatID, limit, offset int) ([]models.Message, error) {
	query := url.Values{}
	query.Set("chatId", strconv.Itoa(chatID))
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}

	var messages []models.Message
	if err := c.t.Get(ctx, "/message/list?"+query.Encode(), &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// SendMessage posts a message over REST. This is also the fallback path
// when the realtime channel is not authenticated.
func (c *Client) SendMessage(ctx context.Context, chatID int, content string) (models.Message, error) {
	var msg models.Message
	err := c.t.Post(ctx, "/message", map[string]any{"chatId": chatID, "content": content}, &msg)
	if err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// DeleteMessage removes a single message.
func (c *Client) DeleteMessage(ctx context.Context, messageID int) error {
	return c.t.Delete(ctx, fmt.Sprintf("/message/%d", messageID), nil)
}

// ClearMessages wipes a chat's history.
func (c *Client) ClearMessages(ctx context.Context, chatID int) error {
	return c.t.Post(ctx, "/message/clear", map[string]int{"chatId": chatID}, nil)
}
