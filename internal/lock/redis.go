package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNotHeld = errors.New("lock not held")

// Only the holder's token may delete the key.
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// RedisLock is a SETNX lock shared by every server instance using the same redis.
type RedisLock struct {
	client redis.UniversalClient
	prefix string

	mu     sync.Mutex
	tokens map[string]string
}

func NewRedisLock(client redis.UniversalClient, prefix string) *RedisLock {
	return &RedisLock{client: client, prefix: prefix, tokens: make(map[string]string)}
}

func (r *RedisLock) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, r.prefix+key, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if ok {
		r.mu.Lock()
		r.tokens[key] = token
		r.mu.Unlock()
	}
	return ok, nil
}

func (r *RedisLock) Unlock(ctx context.Context, key string) error {
	r.mu.Lock()
	token, ok := r.tokens[key]
	delete(r.tokens, key)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotHeld, key)
	}

	n, err := unlockScript.Run(ctx, r.client, []string{r.prefix + key}, token).Int64()
	if err != nil {
		return fmt.Errorf("redis unlock %s: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s expired", ErrNotHeld, key)
	}
	return nil
}

func (r *RedisLock) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisLock) Close() error {
	return r.client.Close()
}
