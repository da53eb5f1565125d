package notifications

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"murmur/internal/observability"
)

// Stream timings. Pings go out well inside the idle deadline so a quiet
// subscriber is not dropped.
const (
	writeTimeout   = 10 * time.Second
	idleTimeout    = 60 * time.Second
	pingInterval   = idleTimeout * 9 / 10
	maxInboundSize = 4096
	sendBuffer     = 256
)

// Client is one subscriber socket of an account's notification stream.
type Client struct {
	AccountID uint
	Send      chan []byte

	hub  *Hub
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
}

// NewClient wraps conn for accountID. The hub owns the returned client.
func NewClient(hub *Hub, conn *websocket.Conn, accountID uint) *Client {
	return &Client{
		AccountID: accountID,
		Send:      make(chan []byte, sendBuffer),
		hub:       hub,
		conn:      conn,
	}
}

// ReadLoop blocks until the subscriber goes away. The stream only flows to
// the client, so anything it sends is read and thrown away.
func (c *Client) ReadLoop() {
	defer func() {
		c.hub.UnregisterClient(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxInboundSize)
	extend := func() error { return c.conn.SetReadDeadline(time.Now().Add(idleTimeout)) }
	_ = extend()
	c.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, _, err := c.conn.ReadMessage()
		if err == nil {
			continue
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			observability.GlobalLogger.Warn("notification stream read failed",
				slog.Uint64("account_id", uint64(c.AccountID)), slog.String("error", err.Error()))
		}
		return
	}
}

// WriteLoop sends queued notifications and keepalive pings until the hub
// closes the queue or a write fails.
func (c *Client) WriteLoop() {
	keepalive := time.NewTicker(pingInterval)
	defer func() {
		keepalive.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, open := <-c.Send:
			if !open {
				_ = c.write(websocket.CloseMessage, nil)
				return
			}
			if err := c.write(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-keepalive.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(kind int, payload []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(kind, payload)
}

// TrySend queues payload without blocking. A full queue or a closed client
// drops it and counts the drop.
func (c *Client) TrySend(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		observability.WebSocketBackpressureDrops.WithLabelValues(c.hub.Name(), "closed").Inc()
		return
	}
	select {
	case c.Send <- payload:
	default:
		observability.WebSocketBackpressureDrops.WithLabelValues(c.hub.Name(), "full").Inc()
		observability.GlobalLogger.Warn("notification stream queue full, dropped message",
			slog.Uint64("account_id", uint64(c.AccountID)))
	}
}

// close ends the queue once; WriteLoop then says goodbye to the peer.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}
