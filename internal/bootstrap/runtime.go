// Package bootstrap wires the process-wide runtime shared by the commands.
package bootstrap

import (
	"context"
	"fmt"

	"socialhub/internal/cache"
	"socialhub/internal/config"
	"socialhub/internal/database"
	"socialhub/internal/middleware"
	"socialhub/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo loads the embedded demo accounts when they are missing.
	SeedDemo bool
}

// InitRuntime connects to DB and Redis and optionally seeds demo data.
// The Redis client is nil when the server is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	rdb := cache.InitRedis(cfg.RedisURL)

	if opts.SeedDemo {
		if cfg.IsProduction() {
			middleware.Logger.Warn("refusing to seed demo data in production")
		} else if _, err := seed.NewSeeder(db, seed.Options{}).Run(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, rdb, nil
}
