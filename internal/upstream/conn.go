package upstream

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/xmgamer/liverelay/internal/config"
)

// conn implements the Conn interface over a gorilla WebSocket.
type conn struct {
	roomID string
	cfg    config.UpstreamConfig
	logger *slog.Logger

	ws *websocket.Conn

	// Output channels
	events chan Event
	errors chan error
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

func newConn(roomID string, ws *websocket.Conn, cfg config.UpstreamConfig, logger *slog.Logger) *conn {
	return &conn{
		roomID: roomID,
		cfg:    cfg,
		logger: logger,
		ws:     ws,
		events: make(chan Event, cfg.BufferSize),
		errors: make(chan error, 1),
		done:   make(chan struct{}),
	}
}

// RoomID returns the upstream-assigned room identifier.
func (c *conn) RoomID() string {
	return c.roomID
}

// Events returns the decoded event stream.
func (c *conn) Events() <-chan Event {
	return c.events
}

// Errors returns the transport error channel.
func (c *conn) Errors() <-chan error {
	return c.errors
}

// Close tears down the connection. Safe to call more than once and from
// a goroutine racing the read loop.
func (c *conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.done)

	c.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return c.ws.Close()
}

// readLoop reads frames, decodes them, and forwards events until the
// connection ends. The events channel is closed on exit so consumers
// observe the disconnect.
func (c *conn) readLoop() {
	defer close(c.events)

	for {
		select {
		case <-c.done:
			return
		default:
		}

		_, data, err := c.ws.ReadMessage()
		if err != nil {
			// Errors after Close() are expected
			select {
			case <-c.done:
			default:
				select {
				case c.errors <- err:
				default:
				}
			}
			return
		}

		ev, ok := decodeFrame(data)
		if !ok {
			continue
		}

		select {
		case c.events <- ev:
		case <-c.done:
			return
		default:
			c.logger.Warn("event buffer full, dropping event", "type", ev.Type)
		}
	}
}

// heartbeatLoop keeps the connection alive with periodic pings.
func (c *conn) heartbeatLoop() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.cfg.WriteTimeout)
			if err := c.ws.WriteControl(websocket.PingMessage, []byte("keepalive"), deadline); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
			}
		}
	}
}
