// Package service implements the social network engine: identity registry,
// follow graph, post store and notification fan-out behind one Network.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"

	"murmur/internal/media"
	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/observability"
)

// Network owns every account, edge and post of one social network.
// All exported methods are safe for concurrent use; mu serializes them.
type Network struct {
	mu sync.Mutex

	name          string
	instance      string
	accounts      []*models.Account
	byName        map[string]*models.Account
	byID          map[uint]*models.Account
	loggedIn      []*models.Account
	posts         []*models.Post
	postsByID     map[uint]*models.Post
	nextAccountID uint
	nextPostID    uint

	sinks      []notifications.Sink
	channel    *notifications.Channel
	prober     *media.Prober
	bcryptCost int
	logger     *observability.NetworkLogger
	now        func() time.Time
}

// Option configures a Network at construction.
type Option func(*Network)

// WithSinks forwards every delivered notification to sinks.
func WithSinks(sinks ...notifications.Sink) Option {
	return func(n *Network) {
		for _, s := range sinks {
			if s != nil {
				n.sinks = append(n.sinks, s)
			}
		}
	}
}

// WithBcryptCost sets the cost used to hash passwords.
func WithBcryptCost(cost int) Option {
	return func(n *Network) {
		n.bcryptCost = cost
	}
}

// WithMediaRoot resolves image media references under dir.
func WithMediaRoot(dir string) Option {
	return func(n *Network) {
		n.prober = media.NewProber(dir)
	}
}

// WithClock overrides the time source for created-at stamps.
func WithClock(now func() time.Time) Option {
	return func(n *Network) {
		n.now = now
	}
}

// NewNetwork creates an empty network. Prefer Provider.CreateNetwork in
// application code.
func NewNetwork(name string, opts ...Option) *Network {
	n := &Network{
		name:       name,
		instance:   uuid.NewString(),
		byName:     make(map[string]*models.Account),
		byID:       make(map[uint]*models.Account),
		postsByID:  make(map[uint]*models.Post),
		prober:     media.NewProber(""),
		bcryptCost: bcrypt.DefaultCost,
		logger:     observability.NewNetworkLogger(name),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	n.channel = notifications.NewChannel(name, n.sinks...)

	n.logger.Event(context.Background(), "network created")
	return n
}

// Name returns the network's display name.
func (n *Network) Name() string {
	return n.name
}

// InstanceID identifies this in-memory network for the lifetime of the
// process. Account IDs restart at 1 with every instance, so anything that
// outlives the process and refers to an account carries this ID too.
func (n *Network) InstanceID() string {
	return n.instance
}

// AddSink attaches a delivery sink after construction.
func (n *Network) AddSink(s notifications.Sink) {
	n.channel.AddSink(s)
}

// RenderNetworkSummary lists every account in registration order.
func (n *Network) RenderNetworkSummary() string {
	n.mu.Lock()
	defer n.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "%s social network:\n", n.name)
	for _, a := range n.accounts {
		b.WriteString(a.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// begin opens a span for op and returns the matching finisher, which logs
// rejections and records the outcome metric.
func (n *Network) begin(ctx context.Context, op string) (context.Context, func(*error)) {
	ctx, span := observability.StartOperation(ctx, op, attribute.String("network", n.name))
	return ctx, func(errp *error) {
		err := *errp
		if err != nil {
			n.logger.Rejected(ctx, op, err)
		}
		observability.RecordAction(op, err)
		span.End(err)
	}
}

func (n *Network) lookup(name string) (*models.Account, error) {
	a, ok := n.byName[name]
	if !ok {
		return nil, models.NewNotFoundError("Account", name)
	}
	return a, nil
}

func (n *Network) lookupPost(id uint) (*models.Post, error) {
	p, ok := n.postsByID[id]
	if !ok {
		return nil, models.NewNotFoundError("Post", id)
	}
	return p, nil
}

func (n *Network) isLoggedIn(a *models.Account) bool {
	for _, l := range n.loggedIn {
		if l == a {
			return true
		}
	}
	return false
}

// passwordMatches runs without the network lock. A hash is never replaced
// once set, so a copy taken under the lock stays valid.
func passwordMatches(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

func accountAttr(key string, a *models.Account) slog.Attr {
	return slog.String(key, a.Name)
}
