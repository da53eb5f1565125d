package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/gofiber/websocket/v2"

	"murmur/internal/models"
	"murmur/internal/observability"
)

const (
	// Max connections per account
	maxConnsPerAccount = 12
	// Max total connections
	maxTotalConns = 10000
)

var (
	// ErrServerConnLimit is returned when the hub is full.
	ErrServerConnLimit = errors.New("server connection limit reached")
	// ErrAccountConnLimit is returned when one account holds too many sockets.
	ErrAccountConnLimit = errors.New("account connection limit reached")
)

// Hub is a websocket hub that maps accountID -> set of Clients.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
}

// NewHub creates a new Hub instance for managing notification streams.
func NewHub() *Hub {
	return &Hub{
		conns: make(map[uint]map[*Client]struct{}),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "notification hub" }

// Register a connection for an account. Returns the Client or an error if limits are exceeded.
func (h *Hub) Register(accountID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalConns >= maxTotalConns {
		return nil, ErrServerConnLimit
	}

	m, ok := h.conns[accountID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[accountID] = m
	}

	if len(m) >= maxConnsPerAccount {
		return nil, ErrAccountConnLimit
	}

	client := NewClient(h, conn, accountID)
	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnectionsTotal.Inc()

	return client, nil
}

// UnregisterClient removes client from the hub and closes its send buffer.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.AccountID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	client.close()
	h.totalConns--
	observability.WebSocketConnectionsTotal.Dec()
	if len(m) == 0 {
		delete(h.conns, client.AccountID)
	}
}

// Broadcast sends message to all connections for accountID.
func (h *Hub) Broadcast(accountID uint, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.conns[accountID]; ok {
		data := []byte(message)
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// Deliver pushes the notification straight to the recipient's sockets.
// Used when no Redis is configured.
func (h *Hub) Deliver(_ context.Context, n *models.Notification) error {
	payload, err := EncodeNotification(n)
	if err != nil {
		return err
	}
	h.Broadcast(n.RecipientID, payload)
	return nil
}

// ConnectionCount returns the number of open sockets for accountID.
func (h *Hub) ConnectionCount(accountID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[accountID])
}

// StartWiring subscribes the hub to the Notifier's Redis pattern and forwards
// each message to the matching account's connections.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, func(channel, payload string) {
		accountID, ok := ParseUserChannel(channel)
		if !ok {
			observability.GlobalLogger.Warn("invalid notification channel", slog.String("channel", channel))
			return
		}
		h.Broadcast(accountID, payload)
	})
}

// Shutdown closes every client's send buffer; each WriteLoop then sends a
// close frame and drops its connection.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, accountConns := range h.conns {
		for client := range accountConns {
			client.close()
			observability.WebSocketConnectionsTotal.Dec()
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0

	return nil
}
