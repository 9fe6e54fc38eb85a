package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"chat-client/internal/auth"
	"chat-client/internal/notify"
	"chat-client/internal/observability"
	"chat-client/internal/session"
)

const refreshPath = "/user/refresh"

// APIError is a non-2xx response surfaced to the caller, carrying the
// server's message field.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// Client issues every outbound REST call. It attaches the bearer token,
// routes to the configured base address, and owns the 401 recovery
// path: refresh-and-resubmit exactly once for expired tokens, session
// clear plus a re-login prompt for everything else.
type Client struct {
	baseURL   string
	http      *http.Client
	sess      *session.Manager
	refresher *auth.Refresher
	notifier  *notify.Notifier
	tracer    trace.Tracer
}

// New constructs a Client. The http.Client is injected so the caller
// can share one instance with the refresher; both then honor the same
// timeout.
func New(baseURL string, client *http.Client, sess *session.Manager, refresher *auth.Refresher, notifier *notify.Notifier) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		baseURL:   baseURL,
		http:      client,
		sess:      sess,
		refresher: refresher,
		notifier:  notifier,
		tracer:    otel.Tracer("chat-client/transport"),
	}
}

// Get issues a GET and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do issues a JSON request. A nil body sends no payload.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		payload = raw
	}
	return c.do(ctx, method, path, "application/json", payload, out, false)
}

// PostMultipart uploads a file plus optional form fields. The body is
// buffered so an expiry retry can resubmit it unchanged.
func (c *Client) PostMultipart(ctx context.Context, path string, fields map[string]string, fileField, filename string, file io.Reader, out any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return fmt.Errorf("write form field: %w", err)
		}
	}
	part, err := writer.CreateFormFile(fileField, filename)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("buffer upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finish multipart body: %w", err)
	}

	return c.do(ctx, http.MethodPost, path, writer.FormDataContentType(), buf.Bytes(), out, false)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, payload []byte, out any, retried bool) error {
	// Query strings are stripped from span attributes and metric labels;
	// otherwise every pagination offset becomes its own series.
	route := path
	if i := strings.Index(route, "?"); i >= 0 {
		route = route[:i]
	}

	ctx, span := c.tracer.Start(ctx, "http.request", trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", route),
	))
	defer span.End()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	if token := c.sess.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	observability.ObserveHTTPRequest(method, route, resp.StatusCode, time.Since(start))
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode, Message: messageFrom(raw)}

	if resp.StatusCode == http.StatusUnauthorized {
		return c.handleUnauthorized(ctx, method, path, contentType, payload, out, retried, apiErr)
	}

	c.notifier.Error(apiErr.Message)
	return apiErr
}

// handleUnauthorized implements the three 401 cases: the refresh call
// itself failing is unrecoverable; an expiry-worded failure gets one
// refresh-and-resubmit; anything else clears the session.
func (c *Client) handleUnauthorized(ctx context.Context, method, path, contentType string, payload []byte, out any, retried bool, apiErr *APIError) error {
	if path == refreshPath {
		c.forceLogout(ctx)
		return apiErr
	}

	if auth.IsExpiryMessage(apiErr.Message) && !retried {
		token, err := c.refresher.Refresh(ctx)
		if err == nil && token != "" {
			return c.do(ctx, method, path, contentType, payload, out, true)
		}
		log.Printf("transport: refresh after expired %s %s failed: %v", method, path, err)
	}

	c.forceLogout(ctx)
	return apiErr
}

// forceLogout clears the session and emits exactly one re-login prompt
// per failure chain. An already-empty session means the user is on the
// login surface, so the prompt is suppressed.
func (c *Client) forceLogout(ctx context.Context) {
	if c.sess.Snapshot().Empty() {
		return
	}
	c.sess.Clear(ctx)
	c.notifier.LoginRequired("session expired, please log in again")
}

func messageFrom(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Message == "" {
		return "request failed"
	}
	return body.Message
}
