package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"

	"chat-client/internal/observability"
	"chat-client/internal/session"
)

var (
	// ErrNoRefreshToken is returned when no refresh credential exists;
	// no network call is made in that case.
	ErrNoRefreshToken = errors.New("auth: no refresh token")
	// ErrRefreshFailed settles every caller of a renewal that failed.
	ErrRefreshFailed = errors.New("auth: token refresh failed")
)

// Refresher renews the access token against POST /user/refresh. At most
// one renewal call is in flight at any time; callers arriving while one
// is running are queued and share its outcome. The renewal call goes
// through a plain http.Client on purpose: routing it through the
// intercepting transport would recurse on 401.
type Refresher struct {
	sess     *session.Manager
	endpoint string
	client   *http.Client

	mu       sync.Mutex
	inflight bool
	waiters  []chan string
}

// NewRefresher creates a Refresher calling baseURL + /user/refresh.
func NewRefresher(sess *session.Manager, baseURL string, client *http.Client) *Refresher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Refresher{
		sess:     sess,
		endpoint: baseURL + "/user/refresh",
		client:   client,
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
	// RefreshToken is set when the server rotates the refresh credential.
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Refresh returns a renewed access token. Queued callers are released in
// FIFO order, and the session write happens before any of them wakes, so
// a resumed caller never reads a stale token. The in-flight flag is
// reset on every exit path; a crashed renewal must not wedge the next.
func (r *Refresher) Refresh(ctx context.Context) (string, error) {
	refreshToken := r.sess.RefreshToken()
	if refreshToken == "" {
		return "", ErrNoRefreshToken
	}

	r.mu.Lock()
	if r.inflight {
		ch := make(chan string, 1)
		r.waiters = append(r.waiters, ch)
		r.mu.Unlock()

		observability.IncRefreshWaiters()
		defer observability.DecRefreshWaiters()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case token, ok := <-ch:
			if !ok || token == "" {
				return "", ErrRefreshFailed
			}
			return token, nil
		}
	}
	r.inflight = true
	r.mu.Unlock()

	token := ""
	defer func() { r.settle(token) }()

	resp, err := r.call(ctx, refreshToken)
	if err != nil {
		observability.IncRefresh("failure")
		log.Printf("auth: refresh failed: %v", err)
		return "", err
	}

	// Session write happens-before waiter release.
	r.sess.SetTokens(ctx, resp.AccessToken, resp.RefreshToken)
	observability.IncRefresh("success")
	token = resp.AccessToken
	return token, nil
}

func (r *Refresher) call(ctx context.Context, refreshToken string) (*refreshResponse, error) {
	body, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, fmt.Errorf("encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh call: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read refresh response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("refresh rejected: status %d: %s", httpResp.StatusCode, serverMessage(raw))
	}

	var resp refreshResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode refresh response: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("refresh response carried no access token")
	}
	return &resp, nil
}

// settle wakes every queued waiter. On success each receives the token;
// on failure the channels close empty, which the waiters translate to
// ErrRefreshFailed.
func (r *Refresher) settle(token string) {
	r.mu.Lock()
	waiters := r.waiters
	r.waiters = nil
	r.inflight = false
	r.mu.Unlock()

	for _, ch := range waiters {
		if token != "" {
			ch <- token
		}
		close(ch)
	}
}

func serverMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Message == "" {
		return "request failed"
	}
	return body.Message
}
