package cache

import (
	"time"

	"github.com/google/uuid"
)

// Lock is a best-effort distributed lease on Redis SETNX. The TTL bounds
// how long a crashed holder can block others; Release is optional but
// frees the lease early.
type Lock struct {
	holder string
}

// NewLock returns a Lock backed by the shared cache client. Each Lock
// carries its own holder id so Release cannot drop a lease taken over by
// another process after expiry.
func NewLock() *Lock {
	return &Lock{holder: uuid.NewString()}
}

// Acquire takes the lease when nobody holds it. Returns false without
// blocking when another holder exists.
func (l *Lock) Acquire(key string, ttl time.Duration) (bool, error) {
	return GetClient().SetNX(ctx, key, l.holder, ttl).Result()
}

// Release drops the lease if this Lock still holds it.
func (l *Lock) Release(key string) error {
	val, err := GetClient().Get(ctx, key).Result()
	if err != nil {
		return nil
	}
	if val != l.holder {
		return nil
	}
	return GetClient().Del(ctx, key).Err()
}
