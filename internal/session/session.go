package session

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"chat-client/internal/models"
	"chat-client/internal/store"
)

// Manager owns the process-wide Session. Every component reads it
// through Snapshot; only login/register/refresh/logout paths write it.
// The engine runs real goroutines, so all access goes through one mutex.
type Manager struct {
	mu      sync.Mutex
	current models.Session
	store   store.Store

	hookMu sync.Mutex
	hooks  []func(accessToken string)
}

// NewManager creates an empty session backed by the given store. The
// store may be nil, in which case nothing is persisted.
func NewManager(s store.Store) *Manager {
	return &Manager{store: s}
}

// Snapshot returns a copy of the current session.
func (m *Manager) Snapshot() models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// AccessToken returns just the current access token.
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.AccessToken
}

// RefreshToken returns just the current refresh token.
func (m *Manager) RefreshToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.RefreshToken
}

// Set replaces the whole session. Used by login and register.
func (m *Manager) Set(ctx context.Context, s models.Session) {
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()

	m.persist(ctx)
	m.fireTokenChange(s.AccessToken)
}

// SetTokens installs a renewed access token and, when the server rotated
// it, a new refresh token. An empty refreshToken keeps the old one.
func (m *Manager) SetTokens(ctx context.Context, accessToken, refreshToken string) {
	m.mu.Lock()
	m.current.AccessToken = accessToken
	if refreshToken != "" {
		m.current.RefreshToken = refreshToken
	}
	m.mu.Unlock()

	m.persist(ctx)
	m.fireTokenChange(accessToken)
}

// Clear resets the session to empty. Used by logout and by the
// transport layer after an unrecoverable credential failure.
func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	m.current = models.Session{}
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.Delete(ctx, store.KeySession); err != nil {
			log.Printf("session: delete persisted session: %v", err)
		}
	}
}

// Restore loads a persisted session, if any. Called once at startup.
func (m *Manager) Restore(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	raw, ok, err := m.store.Get(ctx, store.KeySession)
	if err != nil || !ok {
		return err
	}

	var s models.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		log.Printf("session: discarding unreadable persisted session: %v", err)
		return nil
	}

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	return nil
}

// OnTokenChange registers a hook invoked after every token write. The
// realtime channel uses it to re-authenticate an open connection, which
// keeps the session and channel from diverging for more than one round
// trip.
func (m *Manager) OnTokenChange(hook func(accessToken string)) {
	m.hookMu.Lock()
	defer m.hookMu.Unlock()
	m.hooks = append(m.hooks, hook)
}

// AccessTokenExpiry extracts the exp claim from the access token without
// verifying its signature; the client does not hold the signing key.
// Returns the zero time when the token is absent or not a parsable JWT.
func (m *Manager) AccessTokenExpiry() time.Time {
	token := m.AccessToken()
	if token == "" {
		return time.Time{}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

func (m *Manager) persist(ctx context.Context) {
	if m.store == nil {
		return
	}
	snapshot := m.Snapshot()
	raw, err := json.Marshal(snapshot)
	if err != nil {
		log.Printf("session: marshal session: %v", err)
		return
	}
	if err := m.store.Set(ctx, store.KeySession, raw); err != nil {
		log.Printf("session: persist session: %v", err)
	}
}

func (m *Manager) fireTokenChange(accessToken string) {
	m.hookMu.Lock()
	hooks := make([]func(string), len(m.hooks))
	copy(hooks, m.hooks)
	m.hookMu.Unlock()

	for _, hook := range hooks {
		hook(accessToken)
	}
}
