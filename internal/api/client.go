package api

import (
	"chat-client/internal/session"
	"chat-client/internal/transport"
)

// Client groups the typed REST endpoint wrappers. All calls ride the
// intercepting transport, so token attachment and 401 recovery are
// transparent to callers.
type Client struct {
	t    *transport.Client
	sess *session.Manager
}

// NewClient constructs the API client.
func NewClient(t *transport.Client, sess *session.Manager) *Client {
	return &Client{t: t, sess: sess}
}
