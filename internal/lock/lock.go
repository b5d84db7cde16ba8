// Package lock guards a broker account against concurrent synchronization.
package lock

import (
	"context"
	"time"
)

// DistributedLock is a keyed, expiring mutual-exclusion lock.
type DistributedLock interface {
	// TryLock reports whether the lock was acquired. It never blocks.
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
	Close() error
}

// NopLock always succeeds. It is used for a single server instance.
type NopLock struct{}

func NewNopLock() *NopLock {
	return &NopLock{}
}

func (n *NopLock) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return true, nil
}

func (n *NopLock) Unlock(ctx context.Context, key string) error {
	return nil
}

func (n *NopLock) Close() error {
	return nil
}
