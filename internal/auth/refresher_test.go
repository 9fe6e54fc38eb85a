package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-client/internal/models"
	"chat-client/internal/session"
	"chat-client/internal/store"
)

func newSession(t *testing.T, refreshToken string) *session.Manager {
	t.Helper()
	sess := session.NewManager(store.NewMemory())
	if refreshToken != "" {
		sess.Set(context.Background(), models.Session{
			AccessToken:  "A1",
			RefreshToken: refreshToken,
			UserID:       1,
		})
	}
	return sess
}

func TestRefreshWithoutRefreshTokenMakesNoCall(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	refresher := NewRefresher(newSession(t, ""), srv.URL, nil)

	token, err := refresher.Refresh(context.Background())
	require.ErrorIs(t, err, ErrNoRefreshToken)
	assert.Empty(t, token)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestRefreshSingleFlight(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)

		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "R1", body.RefreshToken)

		// Keep the renewal in flight long enough for callers to queue.
		time.Sleep(50 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]string{"accessToken": "A2"})
	}))
	defer srv.Close()

	sess := newSession(t, "R1")
	refresher := NewRefresher(sess, srv.URL, nil)

	const callers = 10
	tokens := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = refresher.Refresh(context.Background())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "exactly one renewal call may be issued")
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "A2", tokens[i])
	}
	assert.Equal(t, "A2", sess.AccessToken())
	assert.Equal(t, "R1", sess.RefreshToken(), "refresh token kept when the server does not rotate it")
}

func TestRefreshRotatesRefreshToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"accessToken": "A2", "refreshToken": "R2"})
	}))
	defer srv.Close()

	sess := newSession(t, "R1")
	refresher := NewRefresher(sess, srv.URL, nil)

	token, err := refresher.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A2", token)
	assert.Equal(t, "R2", sess.RefreshToken())
}

func TestRefreshFailureReleasesAllWaiters(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "refresh token revoked"})
	}))
	defer srv.Close()

	sess := newSession(t, "R1")
	refresher := NewRefresher(sess, srv.URL, nil)

	const callers = 5
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = refresher.Refresh(context.Background())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for i := 0; i < callers; i++ {
		assert.Error(t, errs[i], "every queued caller must settle on failure")
	}

	// The coordinator does not clear the session; that is the caller's job.
	assert.Equal(t, "A1", sess.AccessToken())
}

func TestRefreshRecoversAfterFailure(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"accessToken": "A2"})
	}))
	defer srv.Close()

	refresher := NewRefresher(newSession(t, "R1"), srv.URL, nil)

	_, err := refresher.Refresh(context.Background())
	require.Error(t, err)

	// A failed renewal must not wedge the coordinator.
	fail.Store(false)
	token, err := refresher.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A2", token)
}

type countingRoundTripper struct {
	calls int32
	next  http.RoundTripper
}

func (c *countingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	atomic.AddInt32(&c.calls, 1)
	return c.next.RoundTrip(req)
}

func TestRefreshUsesProvidedClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"accessToken": "A2"})
	}))
	defer srv.Close()

	rt := &countingRoundTripper{next: http.DefaultTransport}
	client := &http.Client{Transport: rt, Timeout: time.Second}
	refresher := NewRefresher(newSession(t, "R1"), srv.URL, client)

	token, err := refresher.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A2", token)
	assert.Equal(t, int32(1), atomic.LoadInt32(&rt.calls),
		"the renewal call rides the injected client")
}

func TestIsExpiryMessage(t *testing.T) {
	cases := []struct {
		message string
		want    bool
	}{
		{"token expired", true},
		{"登录已过期", true},
		{"无效的令牌", true},
		{"invalid signature", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsExpiryMessage(tc.message), tc.message)
	}
}
