// Package station implements the ground-station session: WebSocket
// connection lifecycle with linear-backoff reconnect, request/response
// correlation over the push channel, push-message fanout, and the
// backend health probe.
package station

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"groundlink/pkg/protocol"
)

// State is the connection lifecycle state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Options configures a Client. Zero values fall back to the defaults
// below.
type Options struct {
	URL            string
	BaseDelay      time.Duration // reconnect backoff unit; delay is attempt*BaseDelay
	MaxAttempts    int           // consecutive reconnect failures before giving up
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

const (
	defaultBaseDelay      = 2 * time.Second
	defaultMaxAttempts    = 5
	defaultRequestTimeout = 10 * time.Second
	handshakeTimeout      = 10 * time.Second
)

// Client owns at most one live WebSocket connection to the backend.
// All inbound frames are decoded once and either settled against a
// pending request or fanned out through the router.
type Client struct {
	opts Options
	log  *slog.Logger

	mu       sync.Mutex
	conn     *websocket.Conn
	state    State
	attempts int
	closed   bool // explicit disconnect; suppresses auto-reconnect

	writeMu sync.Mutex

	nextID  atomic.Uint64
	pmu     sync.Mutex
	pending map[string]chan outcome

	router *Router
}

// New creates a client. Call Connect to open the session.
func New(opts Options) *Client {
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = defaultBaseDelay
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		opts:    opts,
		log:     opts.Logger,
		pending: make(map[string]chan outcome),
		router:  NewRouter(opts.Logger),
	}
}

// Connect dials the backend and starts the read pump. An error on this
// first attempt is returned to the caller; once connected, later drops
// are handled by the reconnect loop instead.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("station: already %s", state)
	}
	c.closed = false
	c.state = StateConnecting
	c.mu.Unlock()

	conn, err := dial(ctx, c.opts.URL)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = StateDisconnected
		return err
	}
	if c.closed {
		conn.Close()
		return ErrDisconnected
	}
	c.conn = conn
	c.state = StateConnected
	c.attempts = 0
	c.log.Info("connected", "url", c.opts.URL)
	go c.readLoop(conn)
	return nil
}

// Disconnect closes the session, fails all pending requests, drops all
// subscriptions, and suppresses any further auto-reconnect.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if c.closed && c.conn == nil {
		c.mu.Unlock()
		return
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.state = StateDisconnected
	c.attempts = 0
	c.mu.Unlock()

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		conn.Close()
	}
	c.failPending()
	c.router.Clear()
	c.log.Info("disconnected")
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ReconnectAttempts returns the current consecutive reconnect count.
func (c *Client) ReconnectAttempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// OnMessage registers a handler for a push message type and returns
// its removal token.
func (c *Client) OnMessage(msgType string, fn Handler) uuid.UUID {
	return c.router.On(msgType, fn)
}

// OffMessage removes a previously registered handler.
func (c *Client) OffMessage(msgType string, id uuid.UUID) {
	c.router.Off(msgType, id)
}

func dial(ctx context.Context, url string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("station: connect %s (HTTP %d): %w", url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("station: connect %s: %w", url, err)
	}
	return conn, nil
}

// readLoop pumps frames from one connection until it fails. It exits
// when the connection is replaced or closed.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(conn, err)
			return
		}
		c.handleFrame(raw)
	}
}

// handleFrame decodes one inbound frame. Malformed frames are logged
// and dropped; the session keeps running.
func (c *Client) handleFrame(raw []byte) {
	msg, err := protocol.ParseInbound(raw)
	if err != nil {
		c.log.Warn("dropping frame", "error", err)
		return
	}
	if msg.IsResponse() {
		c.settle(msg)
		return
	}
	c.router.Dispatch(msg)
}

func (c *Client) handleClose(conn *websocket.Conn, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != conn {
		return // stale pump from a replaced connection
	}
	c.conn = nil
	c.state = StateDisconnected
	if c.closed {
		return
	}
	// In-flight requests are not failed here; they settle by their own
	// timeouts. Only the reconnect machine reacts to the drop.
	c.log.Warn("connection lost", "error", err)
	c.scheduleReconnectLocked()
}

// scheduleReconnectLocked arms the next reconnect attempt. Caller must
// hold c.mu.
func (c *Client) scheduleReconnectLocked() {
	if c.attempts >= c.opts.MaxAttempts {
		c.log.Warn("reconnect attempts exhausted, giving up",
			"attempts", c.attempts, "url", c.opts.URL)
		return
	}
	c.attempts++
	delay := time.Duration(c.attempts) * c.opts.BaseDelay
	c.log.Info("scheduling reconnect", "attempt", c.attempts, "delay", delay)
	time.AfterFunc(delay, c.redial)
}

func (c *Client) redial() {
	c.mu.Lock()
	if c.closed || c.state != StateDisconnected {
		c.mu.Unlock()
		return
	}
	c.state = StateConnecting
	c.mu.Unlock()

	conn, err := dial(context.Background(), c.opts.URL)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		if err == nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		c.state = StateDisconnected
		c.log.Warn("reconnect failed", "attempt", c.attempts, "error", err)
		c.scheduleReconnectLocked()
		return
	}
	c.conn = conn
	c.state = StateConnected
	c.attempts = 0
	c.log.Info("reconnected", "url", c.opts.URL)
	go c.readLoop(conn)
}

func (c *Client) write(payload []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, payload)
}
