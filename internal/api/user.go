package api

import (
	"context"

	"chat-client/internal/models"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	AccessToken  string             `json:"accessToken"`
	RefreshToken string             `json:"refreshToken"`
	User         models.UserSummary `json:"user"`
}

func (r authResponse) session() models.Session {
	return models.Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		UserID:       r.User.ID,
		Username:     r.User.Username,
		Nickname:     r.User.Nickname,
		Avatar:       r.User.Avatar,
	}
}

// Login authenticates and installs the returned session.
func (c *Client) Login(ctx context.Context, username, password string) (models.Session, error) {
	var resp authResponse
	if err := c.t.Post(ctx, "/user/login", credentials{Username: username, Password: password}, &resp); err != nil {
		return models.Session{}, err
	}
	s := resp.session()
	c.sess.Set(ctx, s)
	return s, nil
}

// Register creates an account and installs the returned session.
func (c *Client) Register(ctx context.Context, username, password string) (models.Session, error) {
	var resp authResponse
	if err := c.t.Post(ctx, "/user/register", credentials{Username: username, Password: password}, &resp); err != nil {
		return models.Session{}, err
	}
	s := resp.session()
	c.sess.Set(ctx, s)
	return s, nil
}

// Logout tells the server to drop the session, then clears it locally.
// The local clear happens even when the call fails; a dead server must
// not pin the user to a session.
func (c *Client) Logout(ctx context.Context) error {
	err := c.t.Post(ctx, "/user/logout", nil, nil)
	c.sess.Clear(ctx)
	return err
}

// UpdateAvatar sets the user's avatar URL.
func (c *Client) UpdateAvatar(ctx context.Context, avatar string) error {
	return c.t.Put(ctx, "/user/avatar", map[string]string{"avatar": avatar}, nil)
}

// UpdateNickname sets the user's nickname.
func (c *Client) UpdateNickname(ctx context.Context, nickname string) error {
	return c.t.Put(ctx, "/user/nickname", map[string]string{"nickname": nickname}, nil)
}
