package cached

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vcon-dev/vcon-mcp-sub005/cache"
	"github.com/vcon-dev/vcon-mcp-sub005/store"
	"github.com/vcon-dev/vcon-mcp-sub005/vcon"
)

type Option func(*cachedStore)

// WithTTL bounds staleness: even if an invalidation is lost, a cached record
// expires after this long.
func WithTTL(ttl time.Duration) Option {
	return func(s *cachedStore) {
		s.ttl = ttl
	}
}

func WithInvalidateRetries(n int) Option {
	return func(s *cachedStore) {
		s.retries = n
	}
}

// cachedStore is a read-through wrapper: reads check the cache first and
// populate it on miss; mutations hit the base store first and invalidate the
// cache entry only after the mutation commits.
type cachedStore struct {
	base    store.Store
	cache   cache.Cache
	ttl     time.Duration
	retries int
}

func (s *cachedStore) Get(ctx context.Context, uuid string) (*vcon.Vcon, error) {
	key := cacheKey(uuid)

	if bs, err := s.cache.Get(ctx, key); err == nil {
		v := &vcon.Vcon{}
		if err := json.Unmarshal(bs, v); err == nil {
			return v, nil
		}
		slog.WarnContext(ctx, "discarding undecodable cache entry", "key", key)
	} else if !errors.Is(err, cache.ErrMiss) {
		slog.WarnContext(ctx, "cache read degraded to store", "key", key, "error", err)
	}

	v, err := s.base.Get(ctx, uuid)
	if err != nil {
		return nil, err
	}

	if bs, err := json.Marshal(v); err == nil {
		if err := s.cache.Set(ctx, key, bs, s.ttl); err != nil {
			slog.WarnContext(ctx, "failed to populate cache", "key", key, "error", err)
		}
	}

	return v, nil
}

func (s *cachedStore) Save(ctx context.Context, v *vcon.Vcon) error {
	if err := s.base.Save(ctx, v); err != nil {
		return err
	}

	s.invalidate(ctx, v.UUID)

	return nil
}

func (s *cachedStore) Delete(ctx context.Context, uuid string) error {
	if err := s.base.Delete(ctx, uuid); err != nil {
		return err
	}

	s.invalidate(ctx, uuid)

	return nil
}

func (s *cachedStore) Find(ctx context.Context, filter store.Filter) ([]vcon.Vcon, error) {
	// Search paths always read live.
	return s.base.Find(ctx, filter)
}

// invalidate runs only after the underlying mutation has committed. Failures
// are retried a bounded number of times and then logged: store correctness is
// primary, cache freshness is bounded by the TTL anyway.
func (s *cachedStore) invalidate(ctx context.Context, uuid string) {
	key := cacheKey(uuid)

	var err error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if err = s.cache.Delete(ctx, key); err == nil {
			return
		}
	}

	slog.ErrorContext(ctx, "cache invalidation failed, entry expires with ttl", "key", key, "error", err)
}

func cacheKey(uuid string) string {
	return fmt.Sprintf("vcon:%s", uuid)
}

func NewStore(base store.Store, c cache.Cache, opts ...Option) store.Store {
	s := &cachedStore{
		base:    base,
		cache:   c,
		ttl:     time.Hour,
		retries: 3,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}
