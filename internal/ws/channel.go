package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"chat-client/internal/auth"
	"chat-client/internal/notify"
	"chat-client/internal/observability"
	"chat-client/internal/session"
)

// State is the logical realtime session state.
type State int

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "closed"
	}
}

// Refresher renews the access token when the server reports it expired.
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

// Config tunes the channel lifecycle.
type Config struct {
	URL               string
	HeartbeatInterval time.Duration
	PongTimeout       time.Duration
	ReconnectRetries  int
	ReconnectDelay    time.Duration
}

// Channel owns the persistent realtime connection: dialing,
// authentication, heartbeat, bounded reconnect, and frame dispatch.
// One Channel exists per process.
type Channel struct {
	cfg       Config
	sess      *session.Manager
	refresher Refresher
	router    *Router
	notifier  *notify.Notifier
	dialer    *websocket.Dialer
	tracer    trace.Tracer

	mu      sync.Mutex
	conn    *websocket.Conn
	state   State
	closing bool
	connID  string
	done    chan struct{}
	pong    chan struct{}

	// gorilla allows one concurrent writer per connection.
	writeMu sync.Mutex
}

// NewChannel constructs the channel and subscribes it to token changes,
// so a renewed token re-authenticates an open connection within one
// round trip.
func NewChannel(cfg Config, sess *session.Manager, refresher Refresher, router *Router, notifier *notify.Notifier) *Channel {
	c := &Channel{
		cfg:       cfg,
		sess:      sess,
		refresher: refresher,
		router:    router,
		notifier:  notifier,
		dialer:    websocket.DefaultDialer,
		tracer:    otel.Tracer("chat-client/ws"),
	}
	sess.OnTokenChange(c.onTokenChange)
	return c
}

// State returns the current channel state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect establishes the realtime connection. It is a no-op when
// already connected and when no access token exists. A failed dial
// returns its error and continues retrying in the background, bounded
// by the configured retry count.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateClosed {
		c.mu.Unlock()
		log.Printf("[ws] already connected")
		return nil
	}
	c.mu.Unlock()

	if c.sess.AccessToken() == "" {
		log.Printf("[ws] no access token, not connecting")
		return nil
	}

	c.mu.Lock()
	c.closing = false
	c.state = StateConnecting
	c.mu.Unlock()
	observability.SetWSState(int(StateConnecting))

	if err := c.dial(ctx); err != nil {
		go c.retryLoop(context.Background())
		return err
	}
	return nil
}

// Disconnect forces the channel to Closed and clears the authenticated
// flag unconditionally. No reconnect follows.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	c.closing = true
	conn := c.conn
	done := c.done
	c.conn = nil
	c.done = nil
	c.pong = nil
	c.state = StateClosed
	c.mu.Unlock()

	if done != nil {
		close(done)
	}
	if conn != nil {
		_ = conn.Close()
	}
	observability.SetWSState(int(StateClosed))
	log.Printf("[ws] disconnected")
}

// SendChatMessage sends a chat message over the channel. It is rejected
// locally unless the channel is authenticated; callers fall back to the
// REST send path. Messages are never queued for later delivery.
func (c *Channel) SendChatMessage(chatID int, content string) bool {
	if c.State() != StateAuthenticated {
		c.notifier.Warning("realtime", "websocket not connected")
		return false
	}
	err := c.write(OutboundFrame{
		Type:    frameMessageSend,
		Payload: map[string]any{"chatId": chatID, "content": content},
	})
	if err != nil {
		log.Printf("[ws] send failed: %v", err)
		return false
	}
	return true
}

func (c *Channel) dial(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "ws.connect")
	defer span.End()

	conn, resp, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		c.mu.Lock()
		c.state = StateClosed
		c.mu.Unlock()
		observability.SetWSState(int(StateClosed))
		log.Printf("[ws] dial %s failed: %v", c.cfg.URL, err)
		return err
	}

	done := make(chan struct{})
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		conn.Close()
		return nil
	}
	c.conn = conn
	c.state = StateOpen
	c.connID = uuid.NewString()
	c.done = done
	c.pong = make(chan struct{}, 1)
	connID := c.connID
	c.mu.Unlock()
	observability.SetWSState(int(StateOpen))
	log.Printf("[ws] connected conn_id=%s", connID)

	go c.readLoop(conn)
	go c.heartbeat(conn, done)

	// Authentication is attempted immediately after physical open.
	c.sendAuth(c.sess.AccessToken())
	return nil
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.onConnClosed(conn, err)
			return
		}
		c.handleFrame(raw)
	}
}

func (c *Channel) handleFrame(raw []byte) {
	frame, err := ParseFrame(raw)
	if err != nil {
		log.Printf("[ws] dropping unparseable frame: %v", err)
		observability.IncWSDroppedFrame()
		return
	}

	switch frame.Type {
	case EventPong:
		observability.IncWSEvent(EventPong)
		c.mu.Lock()
		pong := c.pong
		c.mu.Unlock()
		if pong != nil {
			select {
			case pong <- struct{}{}:
			default:
			}
		}

	case EventAuthSuccess:
		observability.IncWSEvent(EventAuthSuccess)
		var payload AuthSuccessPayload
		if len(frame.Payload) > 0 {
			if err := json.Unmarshal(frame.Payload, &payload); err != nil {
				log.Printf("[ws] undecodable auth:success payload: %v", err)
			}
		}
		c.onAuthSuccess(payload)

	case EventAuthError:
		observability.IncWSEvent(EventAuthError)
		var payload AuthErrorPayload
		if len(frame.Payload) > 0 {
			if err := json.Unmarshal(frame.Payload, &payload); err != nil {
				log.Printf("[ws] undecodable auth:error payload: %v", err)
			}
		}
		c.onAuthError(payload.Message)

	default:
		c.router.Route(frame)
	}
}

func (c *Channel) onAuthSuccess(payload AuthSuccessPayload) {
	c.mu.Lock()
	if c.state == StateOpen {
		c.state = StateAuthenticated
	}
	c.mu.Unlock()
	observability.SetWSState(int(StateAuthenticated))
	log.Printf("[ws] authenticated userId=%d", payload.UserID)

	if payload.OnlineFriends != nil {
		c.router.handler.HandleOnlineSnapshot(payload.OnlineFriends)
	}
}

// onAuthError keeps the socket open but inert. An expiry-worded
// rejection triggers one refresh; the token-change hook then re-sends
// auth on the same socket, without a new physical connection.
func (c *Channel) onAuthError(message string) {
	if message == "" {
		message = "authentication failed"
	}
	log.Printf("[ws] auth error: %s", message)

	c.mu.Lock()
	if c.state == StateAuthenticated {
		c.state = StateOpen
	}
	c.mu.Unlock()
	observability.SetWSState(int(StateOpen))

	if auth.IsExpiryMessage(message) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if _, err := c.refresher.Refresh(ctx); err != nil {
				log.Printf("[ws] refresh after auth error failed: %v", err)
				c.notifier.LoginRequired("session expired, please log in again")
			}
		}()
		return
	}

	c.notifier.Error(message)
}

func (c *Channel) heartbeat(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		pong := c.pong
		c.mu.Unlock()
		if pong == nil {
			return
		}
		// Drop a stale pong left over from the previous cycle.
		select {
		case <-pong:
		default:
		}

		if err := c.write(OutboundFrame{Type: framePing}); err != nil {
			return
		}

		timer := time.NewTimer(c.cfg.PongTimeout)
		select {
		case <-done:
			timer.Stop()
			return
		case <-pong:
			timer.Stop()
		case <-timer.C:
			log.Printf("[ws] pong timeout, dropping connection")
			conn.Close()
			return
		}
	}
}

// onConnClosed runs when the read loop exits. Explicit disconnects stop
// here; anything else enters the bounded reconnect path.
func (c *Channel) onConnClosed(conn *websocket.Conn, err error) {
	c.mu.Lock()
	if c.conn != conn {
		// A Disconnect or a newer connection already took over.
		c.mu.Unlock()
		return
	}
	closing := c.closing
	done := c.done
	c.conn = nil
	c.done = nil
	c.pong = nil
	c.state = StateClosed
	c.mu.Unlock()

	if done != nil {
		close(done)
	}
	observability.SetWSState(int(StateClosed))

	if closing {
		return
	}
	log.Printf("[ws] connection lost: %v", err)
	c.retryLoop(context.Background())
}

func (c *Channel) retryLoop(ctx context.Context) {
	for attempt := 1; attempt <= c.cfg.ReconnectRetries; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.cfg.ReconnectDelay):
		}

		c.mu.Lock()
		if c.closing || c.conn != nil {
			c.mu.Unlock()
			return
		}
		c.state = StateConnecting
		c.mu.Unlock()
		observability.SetWSState(int(StateConnecting))
		observability.IncWSReconnect()
		log.Printf("[ws] reconnect attempt %d/%d", attempt, c.cfg.ReconnectRetries)

		if c.sess.AccessToken() == "" {
			c.mu.Lock()
			c.state = StateClosed
			c.mu.Unlock()
			observability.SetWSState(int(StateClosed))
			return
		}
		if err := c.dial(ctx); err == nil {
			return
		}
	}

	log.Printf("[ws] reconnect attempts exhausted")
	c.notifier.Error("websocket connection failed")
}

func (c *Channel) sendAuth(token string) {
	if token == "" {
		log.Printf("[ws] no token to authenticate with")
		return
	}
	err := c.write(OutboundFrame{
		Type:    frameAuth,
		Payload: map[string]string{"token": token},
	})
	if err != nil {
		log.Printf("[ws] auth send failed: %v", err)
	}
}

func (c *Channel) onTokenChange(token string) {
	if token == "" {
		return
	}
	switch c.State() {
	case StateOpen, StateAuthenticated:
		log.Printf("[ws] token changed, re-authenticating")
		c.sendAuth(token)
	}
}

func (c *Channel) write(frame OutboundFrame) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("ws: not connected")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(frame)
}
