package cache

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"surveyhub/internal/config"
)

// KeyPrefix namespaces every Redis key owned by the application.
const KeyPrefix = "surveyhub:"

// Open returns a Redis store when enabled in cfg, else a process-local one.
// The Redis connection is checked before returning.
func Open(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (Store, error) {
	if !cfg.Enabled {
		logger.Warn("redis disabled, using in-memory cache")
		return NewMemoryStore(), nil
	}

	store := NewRedisStore(NewRedisClient(cfg.Addr, cfg.Username, cfg.Password, cfg.DB), KeyPrefix)
	if err := store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	logger.Info("redis cache connected", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return store, nil
}
