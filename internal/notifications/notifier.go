package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"

	"github.com/redis/go-redis/v9"

	"murmur/internal/models"
	"murmur/internal/observability"
)

const (
	userChannelPrefix  = "notifications:user:"
	userChannelPattern = "notifications:user:*"
)

// Notifier publishes notifications into per-account Redis channels.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Name identifies the sink in logs and metrics.
func (n *Notifier) Name() string { return "redis" }

// Deliver publishes the encoded notification on the recipient's channel.
func (n *Notifier) Deliver(ctx context.Context, notification *models.Notification) error {
	payload, err := EncodeNotification(notification)
	if err != nil {
		return err
	}
	return n.PublishUser(ctx, notification.RecipientID, payload)
}

// PublishUser sends a notification payload to an account's channel.
func (n *Notifier) PublishUser(ctx context.Context, accountID uint, payload string) error {
	if n.rdb == nil {
		return nil
	}
	ctx, span := observability.StartClient(ctx, "redis", "publish")
	err := n.rdb.Publish(ctx, UserChannel(accountID), payload).Err()
	if err != nil {
		observability.RedisErrorRate.WithLabelValues("publish").Inc()
		err = fmt.Errorf("publish notification: %w", err)
	}
	span.End(err)
	return err
}

// StartPatternSubscriber subscribes to `notifications:user:*` and calls onMessage
// for each incoming message until ctx is cancelled.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPattern)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		observability.RedisErrorRate.WithLabelValues("psubscribe").Inc()
		return fmt.Errorf("subscribe notifications: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							observability.GlobalLogger.Error("panic in notification subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for an account.
func UserChannel(accountID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(accountID), 10)
}

// ParseUserChannel extracts the account ID from a channel name.
func ParseUserChannel(channel string) (uint, bool) {
	if len(channel) <= len(userChannelPrefix) || channel[:len(userChannelPrefix)] != userChannelPrefix {
		return 0, false
	}
	id, err := strconv.ParseUint(channel[len(userChannelPrefix):], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}
