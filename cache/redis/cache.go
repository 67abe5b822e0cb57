package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vcon-dev/vcon-mcp-sub005/cache"
)

type redisCache struct {
	options cache.Options
	client  *redis.Client
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cache.ErrMiss
		}
		// Timeouts and connection failures: the caller treats any error
		// as a miss, this one just gets logged as a degradation.
		return nil, fmt.Errorf("cache read: %w", err)
	}

	return val, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *redisCache) Close() error {
	return c.client.Close()
}

// NewCache connects to the given redis URL. Unlike the store, an unreachable
// cache is not fatal: callers log the error and run without caching.
func NewCache(opts ...cache.Option) (cache.Cache, error) {
	options := cache.NewOptions(opts...)

	redisOpts, err := redis.ParseURL(options.Location)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	redisOpts.DialTimeout = options.ConnectTimeout
	redisOpts.ReadTimeout = options.ReadTimeout
	redisOpts.WriteTimeout = options.WriteTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(options.Context, options.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &redisCache{
		options: options,
		client:  client,
	}, nil
}
