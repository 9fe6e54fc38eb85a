package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-client/internal/auth"
	"chat-client/internal/models"
	"chat-client/internal/notify"
	"chat-client/internal/session"
	"chat-client/internal/store"
)

type fixture struct {
	client   *Client
	sess     *session.Manager
	notifier *notify.Notifier
}

func newFixture(t *testing.T, handler http.Handler) (*fixture, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sess := session.NewManager(store.NewMemory())
	sess.Set(context.Background(), models.Session{
		AccessToken:  "A1",
		RefreshToken: "R1",
		UserID:       1,
		Username:     "alice",
	})

	notifier := notify.New(16)
	httpClient := &http.Client{Timeout: 5 * time.Second}
	refresher := auth.NewRefresher(sess, srv.URL, httpClient)
	client := New(srv.URL, httpClient, sess, refresher, notifier)

	return &fixture{client: client, sess: sess, notifier: notifier}, srv
}

func nextNotice(t *testing.T, notifier *notify.Notifier) notify.Notice {
	t.Helper()
	select {
	case notice := <-notifier.Notices():
		return notice
	case <-time.After(time.Second):
		t.Fatal("expected a notice")
		return notify.Notice{}
	}
}

func TestAttachesBearerTokenAndDecodes(t *testing.T) {
	f, _ := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer A1", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))

	var out map[string]string
	require.NoError(t, f.client.Get(context.Background(), "/ping", &out))
	assert.Equal(t, "ok", out["status"])
}

func TestExpiredTokenIsRefreshedAndRetriedOnce(t *testing.T) {
	var refreshCalls, listCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/user/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "R1", body.RefreshToken)
		json.NewEncoder(w).Encode(map[string]string{"accessToken": "A2"})
	})
	mux.HandleFunc("/chat/list", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&listCalls, 1)
		if r.Header.Get("Authorization") != "Bearer A2" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "token expired"})
			return
		}
		json.NewEncoder(w).Encode([]models.Chat{{ID: 1, Title: "general"}})
	})

	f, _ := newFixture(t, mux)

	var chats []models.Chat
	require.NoError(t, f.client.Get(context.Background(), "/chat/list", &chats))

	require.Len(t, chats, 1)
	assert.Equal(t, "general", chats[0].Title)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls), "exactly one refresh POST")
	assert.Equal(t, int32(2), atomic.LoadInt32(&listCalls), "original call resubmitted exactly once")
	assert.Equal(t, "A2", f.sess.AccessToken())
}

func TestRefreshEndpoint401NeverRetries(t *testing.T) {
	var calls int32
	f, _ := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "token expired"})
	}))

	err := f.client.Post(context.Background(), "/user/refresh", map[string]string{"refreshToken": "R1"}, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "a failing refresh call must not trigger another refresh")
	assert.True(t, f.sess.Snapshot().Empty(), "session cleared")
	assert.True(t, nextNotice(t, f.notifier).LoginRequired)
}

func TestNonExpiry401ClearsSessionWithoutRefresh(t *testing.T) {
	var refreshCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/user/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
	})
	mux.HandleFunc("/friend/list", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "malformed authorization header"})
	})

	f, _ := newFixture(t, mux)

	err := f.client.Get(context.Background(), "/friend/list", nil)
	require.Error(t, err)
	assert.Zero(t, atomic.LoadInt32(&refreshCalls))
	assert.True(t, f.sess.Snapshot().Empty())
	assert.True(t, nextNotice(t, f.notifier).LoginRequired)
}

func TestSecondExpiry401AfterRetryEscalates(t *testing.T) {
	var refreshCalls, listCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/user/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		json.NewEncoder(w).Encode(map[string]string{"accessToken": "A2"})
	})
	mux.HandleFunc("/chat/list", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&listCalls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "token expired"})
	})

	f, _ := newFixture(t, mux)

	err := f.client.Get(context.Background(), "/chat/list", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&listCalls), "no second retry after a retried call fails again")
	assert.True(t, f.sess.Snapshot().Empty())
	assert.True(t, nextNotice(t, f.notifier).LoginRequired)
}

func TestFailedRefreshForcesLogout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "refresh token revoked"})
	})
	mux.HandleFunc("/chat/list", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "token expired"})
	})

	f, _ := newFixture(t, mux)

	err := f.client.Get(context.Background(), "/chat/list", nil)
	require.Error(t, err)
	assert.True(t, f.sess.Snapshot().Empty())

	notice := nextNotice(t, f.notifier)
	assert.True(t, notice.LoginRequired)

	// Exactly one re-login prompt per failure chain.
	select {
	case extra := <-f.notifier.Notices():
		t.Fatalf("unexpected extra notice: %+v", extra)
	default:
	}
}

func TestOrdinaryFailureSurfacesServerMessage(t *testing.T) {
	f, _ := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "title is required"})
	}))

	err := f.client.Post(context.Background(), "/chat", map[string]string{}, nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "title is required", apiErr.Message)

	notice := nextNotice(t, f.notifier)
	assert.Equal(t, notify.LevelError, notice.Level)
	assert.Equal(t, "title is required", notice.Message)
	assert.False(t, f.sess.Snapshot().Empty(), "ordinary failures do not touch the session")
}

func TestMetricPathLabelExcludesQuery(t *testing.T) {
	f, _ := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.Message{})
	}))

	var out []models.Message
	require.NoError(t, f.client.Get(context.Background(), "/message/list?chatId=7&limit=50", &out))

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	seen := false
	for _, family := range families {
		if family.GetName() != "chat_client_http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() != "path" {
					continue
				}
				assert.NotContains(t, label.GetValue(), "?",
					"query values must not become metric series")
				if label.GetValue() == "/message/list" {
					seen = true
				}
			}
		}
	}
	assert.True(t, seen, "the path label keeps only the route")
}

func TestGenericMessageWhenBodyUnreadable(t *testing.T) {
	f, _ := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))

	err := f.client.Get(context.Background(), "/chat/list", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "request failed", apiErr.Message)
}
