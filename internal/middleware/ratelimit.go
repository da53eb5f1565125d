package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"murmur/internal/observability"
)

// FailPolicy picks what a limited route does when Redis cannot count.
type FailPolicy int

const (
	// FailOpen serves the request uncounted.
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

var errNoRedis = errors.New("rate limit store not configured")

// Counting only happens in production-like environments.
var unlimitedEnvs = map[string]bool{"": true, "test": true, "development": true, "stress": true}

// CheckRateLimit counts one hit for id against resource in a fixed window
// and reports whether the hit is within limit.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if unlimitedEnvs[os.Getenv("APP_ENV")] {
		return true, nil
	}
	if rdb == nil {
		return false, errNoRedis
	}

	key := "rl:" + resource + ":" + id
	hits, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	// The first hit opens the window.
	if hits == 1 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return hits <= int64(limit), nil
}

// RateLimit limits a route to limit hits per window, serving requests
// uncounted while Redis is down.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy is RateLimit with an explicit outage policy. Hits are
// counted per signed-in account, or per client IP before sign-in. The
// optional name shares one counter across several routes.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}

		allowed, err := CheckRateLimit(c.UserContext(), rdb, resource, limitSubject(c), limit, window)
		switch {
		case err != nil && policy == FailClosed:
			observability.GlobalLogger.WarnContext(c.UserContext(), "rate limit store unavailable, rejecting",
				slog.String("resource", resource),
				slog.String("error", err.Error()),
			)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "rate limit unavailable"})
		case err != nil:
			return c.Next()
		case !allowed:
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded"})
		}
		return c.Next()
	}
}

func limitSubject(c *fiber.Ctx) string {
	if id := c.Locals("accountID"); id != nil {
		return fmt.Sprintf("account:%v", id)
	}
	return "ip:" + c.IP()
}
