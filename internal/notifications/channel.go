// Package notifications fans social events out to account logs and delivery sinks.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"murmur/internal/models"
	"murmur/internal/observability"
)

// Sink receives notifications after they have been appended to the
// recipient's log. Sinks are called without the network lock held.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, n *models.Notification) error
}

// Channel performs point delivery and follower broadcast. Deliver and
// NotifyFollowers only touch account logs and run under the caller's lock;
// Forward pushes the resulting entries to the sinks once that lock is released.
type Channel struct {
	mu     sync.RWMutex
	sinks  []Sink
	logger *observability.NetworkLogger
	now    func() time.Time
}

// NewChannel creates a Channel for the named network forwarding to sinks.
func NewChannel(network string, sinks ...Sink) *Channel {
	return &Channel{
		sinks:  sinks,
		logger: observability.NewNetworkLogger(network),
		now:    time.Now,
	}
}

// AddSink registers another delivery sink.
func (ch *Channel) AddSink(s Sink) {
	if s == nil {
		return
	}
	ch.mu.Lock()
	ch.sinks = append(ch.sinks, s)
	ch.mu.Unlock()
}

// Deliver appends n to recipient's log and returns the stored entry.
func (ch *Channel) Deliver(_ context.Context, recipient *models.Account, n models.Notification) *models.Notification {
	n.RecipientID = recipient.ID
	n.Recipient = recipient.Name
	if n.CreatedAt.IsZero() {
		n.CreatedAt = ch.now()
	}

	entry := &n
	recipient.Notifications = append(recipient.Notifications, entry)
	observability.NotificationsDelivered.WithLabelValues(string(n.Kind)).Inc()
	return entry
}

// NotifyFollowers delivers n once to each follower author has right now and
// returns the stored entries.
func (ch *Channel) NotifyFollowers(ctx context.Context, author *models.Account, n models.Notification) []*models.Notification {
	followers := make([]*models.Account, len(author.Followers))
	copy(followers, author.Followers)

	entries := make([]*models.Notification, 0, len(followers))
	for _, f := range followers {
		entries = append(entries, ch.Deliver(ctx, f, n))
	}
	return entries
}

// Forward hands entries to every sink in order. Sink failures are logged and
// counted; they never fail the operation that produced the entries.
func (ch *Channel) Forward(ctx context.Context, entries []*models.Notification) {
	if len(entries) == 0 {
		return
	}
	ch.mu.RLock()
	sinks := make([]Sink, len(ch.sinks))
	copy(sinks, ch.sinks)
	ch.mu.RUnlock()

	for _, entry := range entries {
		for _, s := range sinks {
			if err := s.Deliver(ctx, entry); err != nil {
				observability.SinkFailures.WithLabelValues(s.Name()).Inc()
				ch.logger.SinkFailure(ctx, s.Name(), err)
			}
		}
	}
}

// Envelope is the wire form pushed to Redis and WebSocket clients.
type Envelope struct {
	Type    string               `json:"type"`
	Payload *models.Notification `json:"payload"`
}

// EncodeNotification renders n as an Envelope JSON string.
func EncodeNotification(n *models.Notification) (string, error) {
	b, err := json.Marshal(Envelope{Type: "notification", Payload: n})
	if err != nil {
		return "", fmt.Errorf("marshal notification: %w", err)
	}
	return string(b), nil
}
