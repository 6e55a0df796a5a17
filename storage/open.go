package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nomis52/activitytodo/config"
)

// Open creates the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		logger.Warn("using in-memory storage, tasks will not survive a restart")
		return NewMemoryStore(), nil
	case config.BackendFile:
		return NewDiskStore(cfg.Dir, logger)
	case config.BackendRedis:
		return NewRedisStore(ctx, RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	case config.BackendPostgres:
		return NewPostgresStore(ctx, cfg.Postgres.URL)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
