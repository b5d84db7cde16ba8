package lock

import (
	"context"
	"fmt"

	"trading-journal-go/internal/config"

	"github.com/redis/go-redis/v9"
)

// New builds the lock selected by cfg. A disabled lock is a NopLock.
// A redis lock must answer a ping before it is returned.
func New(ctx context.Context, cfg *config.Lock) (DistributedLock, error) {
	if !cfg.Enabled {
		return NewNopLock(), nil
	}

	switch cfg.Type {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		l := NewRedisLock(client, cfg.Prefix)
		if err := l.Ping(ctx); err != nil {
			_ = l.Close()
			return nil, fmt.Errorf("redis lock at %s: %w", cfg.Redis.Addr, err)
		}
		return l, nil
	default:
		return nil, fmt.Errorf("unsupported lock type: %s", cfg.Type)
	}
}
