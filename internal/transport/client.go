package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

// Default reconnect policy.
const (
	DefaultReconnectDelay    = time.Second
	DefaultReconnectAttempts = 10
)

// Options configures a Client.
type Options struct {
	URL                 string
	RequestHistoryGraph bool
	ReconnectDelay      time.Duration
	// ReconnectAttempts bounds consecutive failed connection attempts.
	// Zero selects the default, a negative value retries forever.
	ReconnectAttempts int
	Dialer            *websocket.Dialer
	Logger            *slog.Logger
}

// Client reads frames from a WebSocket server and hands them to a sink.
// Frames are delivered from a single goroutine in arrival order.
type Client struct {
	opts Options
	sink Sink
	log  *slog.Logger
}

// NewClient creates a client delivering to sink.
func NewClient(opts Options, sink Sink) *Client {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.ReconnectAttempts == 0 {
		opts.ReconnectAttempts = DefaultReconnectAttempts
	}
	if opts.Dialer == nil {
		opts.Dialer = &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Client{opts: opts, sink: sink, log: log.With("url", opts.URL)}
}

// Run connects and reads until ctx is cancelled, reconnecting after each
// failure. It returns nil on cancellation and an error once the attempt
// budget is spent.
func (c *Client) Run(ctx context.Context) error {
	failures := 0
	for {
		connected, err := c.runOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			failures = 0
		} else {
			failures++
		}
		c.log.Warn("connection lost", "err", err, "failures", failures)
		if c.opts.ReconnectAttempts > 0 && failures >= c.opts.ReconnectAttempts {
			return fmt.Errorf("transport: giving up after %d attempts: %w", failures, err)
		}
		t := time.NewTimer(c.opts.ReconnectDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

// runOnce dials and reads one connection to completion. connected reports
// whether the dial succeeded.
func (c *Client) runOnce(ctx context.Context) (connected bool, err error) {
	conn, resp, err := c.opts.Dialer.DialContext(ctx, c.opts.URL, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return false, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c.log.Info("connected")
	c.deliver(ConnectFrame)
	if c.opts.RequestHistoryGraph {
		if err := conn.WriteMessage(websocket.TextMessage, requestHistory); err != nil {
			c.deliver(DisconnectFrame)
			return true, fmt.Errorf("request history: %w", err)
		}
	}
	for {
		mt, frame, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.deliver(DisconnectFrame)
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = errors.New("closed by server")
			}
			return true, fmt.Errorf("read: %w", err)
		}
		if mt != websocket.TextMessage {
			continue
		}
		c.deliver(frame)
	}
}

func (c *Client) deliver(frame []byte) {
	if err := c.sink.HandleFrame(frame); err != nil {
		c.log.Debug("sink rejected frame", "err", err)
	}
}
