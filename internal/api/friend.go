package api

import (
	"context"
	"fmt"
	"net/url"

	"chat-client/internal/models"
)

// FriendList fetches the accepted friends.
func (c *Client) FriendList(ctx context.Context) ([]models.Friend, error) {
	var friends []models.Friend
	if err := c.t.Get(ctx, "/friend/list", &friends); err != nil {
		return nil, err
	}
	return friends, nil
}

// FriendRequests fetches inbound pending requests.
func (c *Client) FriendRequests(ctx context.Context) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	if err := c.t.Get(ctx, "/friend/requests", &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// SearchUsers looks up users by keyword.
func (c *Client) SearchUsers(ctx context.Context, keyword string) ([]models.UserSummary, error) {
	query := url.Values{}
	query.Set("keyword", keyword)

	var users []models.UserSummary
	if err := c.t.Get(ctx, "/friend/search?"+query.Encode(), &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SendFriendRequest asks another user to become a friend.
func (c *Client) SendFriendRequest(ctx context.Context, friendID int) error {
	return c.t.Post(ctx, "/friend/request", map[string]int{"friendId": friendID}, nil)
}

// AcceptFriendRequest accepts a pending request.
func (c *Client) AcceptFriendRequest(ctx context.Context, requestID int) error {
	return c.t.Post(ctx, "/friend/accept", map[string]int{"requestId": requestID}, nil)
}

// RejectFriendRequest rejects a pending request.
func (c *Client) RejectFriendRequest(ctx context.Context, requestID int) error {
	return c.t.Post(ctx, "/friend/reject", map[string]int{"requestId": requestID}, nil)
}

// DeleteFriend removes a friend edge.
func (c *Client) DeleteFriend(ctx context.Context, friendID int) error {
	return c.t.Delete(ctx, fmt.Sprintf("/friend/%d", friendID), nil)
}
