package store

import "context"

// Well-known keys used by the engine.
const (
	KeySession  = "session"
	KeySettings = "settings"
	KeyChats    = "chats"
)

// Store is the durable key-value collaborator that survives process
// restarts. Values are opaque JSON blobs to the engine.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
