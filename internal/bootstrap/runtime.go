// Package bootstrap assembles the stores and the network a process runs on.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"murmur/internal/cache"
	"murmur/internal/config"
	"murmur/internal/database"
	"murmur/internal/observability"
	"murmur/internal/seed"
	"murmur/internal/service"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedDemo bool
}

// Runtime holds the initialized dependencies. DB and Redis are nil when
// disabled or unreachable.
type Runtime struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Network *service.Network
}

// InitRuntime connects to the DB and Redis, creates the network and
// optionally seeds demo data into it.
func InitRuntime(cfg *config.Config, opts Options) (*Runtime, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// nil when REDIS_URL is unset or unreachable
	r := cache.InitRedis(cfg.RedisURL)

	provider := service.NewProvider(
		service.WithBcryptCost(cfg.BcryptCost),
		service.WithMediaRoot(cfg.MediaRoot),
	)
	network, err := provider.CreateNetwork(cfg.NetworkName)
	if err != nil {
		return nil, fmt.Errorf("failed to create network: %w", err)
	}

	if opts.SeedDemo {
		res, err := seed.Demo(context.Background(), network, cfg.SeedAccounts)
		if err != nil {
			return nil, fmt.Errorf("failed to seed demo network: %w", err)
		}
		observability.GlobalLogger.Info("demo network seeded",
			slog.Int("accounts", len(res.Accounts)),
			slog.Int("posts", len(res.Posts)),
			slog.String("password", seed.DemoPassword),
		)
	}

	return &Runtime{DB: db, Redis: r, Network: network}, nil
}
