package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vcon-dev/vcon-mcp-sub005/cache"
)

func setupCache(t *testing.T) (cache.Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	c, err := NewCache(cache.WithLocation(fmt.Sprintf("redis://%s", mr.Addr())))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
	})

	return c, mr
}

func TestNewCache(t *testing.T) {
	t.Run("invalid url", func(t *testing.T) {
		_, err := NewCache(cache.WithLocation("not-a-url"))
		assert.Error(t, err)
	})

	t.Run("unreachable server", func(t *testing.T) {
		_, err := NewCache(
			cache.WithLocation("redis://localhost:1"),
			cache.WithConnectTimeout(100*time.Millisecond),
		)
		assert.Error(t, err)
	})
}

func TestGetSetDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		c, _ := setupCache(t)

		require.NoError(t, c.Set(ctx, "vcon:v1", []byte(`{"uuid":"v1"}`), time.Minute))

		val, err := c.Get(ctx, "vcon:v1")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"uuid":"v1"}`), val)
	})

	t.Run("absent key is a miss", func(t *testing.T) {
		c, _ := setupCache(t)

		_, err := c.Get(ctx, "vcon:absent")
		assert.ErrorIs(t, err, cache.ErrMiss)
	})

	t.Run("entries expire with their ttl", func(t *testing.T) {
		c, mr := setupCache(t)

		require.NoError(t, c.Set(ctx, "vcon:v1", []byte("x"), time.Minute))

		mr.FastForward(2 * time.Minute)

		_, err := c.Get(ctx, "vcon:v1")
		assert.ErrorIs(t, err, cache.ErrMiss)
	})

	t.Run("delete removes the entry", func(t *testing.T) {
		c, _ := setupCache(t)

		require.NoError(t, c.Set(ctx, "vcon:v1", []byte("x"), time.Minute))
		require.NoError(t, c.Delete(ctx, "vcon:v1"))

		_, err := c.Get(ctx, "vcon:v1")
		assert.ErrorIs(t, err, cache.ErrMiss)
	})

	t.Run("failure is not reported as a plain miss", func(t *testing.T) {
		c, mr := setupCache(t)

		mr.Close()

		_, err := c.Get(ctx, "vcon:v1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, cache.ErrMiss)
	})
}
