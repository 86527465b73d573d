package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock acquired with Locker.Lock.
type UnlockFunc func(ctx context.Context) error

// Locker serializes writes to the same key across processes sharing a FixedStore.
type Locker interface {
	// Lock blocks until the lock for key is acquired or ctx is canceled.
	// The lock expires after ttl if it is never released.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
