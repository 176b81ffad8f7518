package providers

import (
	"context"
	"time"
)

// RunLock prevents overlapping batch runs across processes
type RunLock interface {
	// Acquire takes the lock for ttl. It returns false if another holder has it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release frees the lock if this holder still owns it
	Release(ctx context.Context, key string) error
}
