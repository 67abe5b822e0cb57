package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when a key is simply absent. Callers treat every
// Get failure, ErrMiss or not, as a miss and fall back to the durable store;
// the cache is never a dependency for correctness. Non-miss failures are the
// ones worth logging.
var ErrMiss = errors.New("cache miss")

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
