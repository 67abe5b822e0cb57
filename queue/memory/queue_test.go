package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vcon-dev/vcon-mcp-sub005/queue"
	"github.com/vcon-dev/vcon-mcp-sub005/vcon"
)

func unit(uuid, source string, index int, text string) vcon.ContentUnit {
	return vcon.ContentUnit{VconUUID: uuid, Source: source, Index: index, Text: text}
}

func TestEnqueue(t *testing.T) {
	ctx := context.Background()

	t.Run("re-enqueue with unchanged text is a no-op", func(t *testing.T) {
		q := NewQueue()

		require.NoError(t, q.Enqueue(ctx, []vcon.ContentUnit{unit("v1", "subject", 0, "hello")}))
		require.NoError(t, q.Enqueue(ctx, []vcon.ContentUnit{unit("v1", "subject", 0, "hello")}))

		assert.Equal(t, 1, q.Pending())

		job, err := q.Claim(ctx)
		require.NoError(t, err)
		require.NotNil(t, job)

		job, err = q.Claim(ctx)
		require.NoError(t, err)
		assert.Nil(t, job)
	})

	t.Run("changed text re-opens a claimed job", func(t *testing.T) {
		q := NewQueue()

		require.NoError(t, q.Enqueue(ctx, []vcon.ContentUnit{unit("v1", "subject", 0, "old")}))

		job, err := q.Claim(ctx)
		require.NoError(t, err)
		require.NotNil(t, job)

		require.NoError(t, q.Enqueue(ctx, []vcon.ContentUnit{unit("v1", "subject", 0, "new")}))

		job, err = q.Claim(ctx)
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, "new", job.Text)
	})
}

func TestClaim(t *testing.T) {
	ctx := context.Background()

	t.Run("claims are exclusive", func(t *testing.T) {
		q := NewQueue()

		require.NoError(t, q.Enqueue(ctx, []vcon.ContentUnit{
			unit("v1", "subject", 0, "a"),
			unit("v1", "dialog", 0, "b"),
		}))

		first, err := q.Claim(ctx)
		require.NoError(t, err)
		require.NotNil(t, first)

		second, err := q.Claim(ctx)
		require.NoError(t, err)
		require.NotNil(t, second)

		assert.NotEqual(t, first.Source, second.Source)

		third, err := q.Claim(ctx)
		require.NoError(t, err)
		assert.Nil(t, third)
	})

	t.Run("empty queue is not an error", func(t *testing.T) {
		q := NewQueue()

		job, err := q.Claim(ctx)
		require.NoError(t, err)
		assert.Nil(t, job)
	})
}

func TestCompleteAndFail(t *testing.T) {
	ctx := context.Background()

	t.Run("complete stores the row and removes the job", func(t *testing.T) {
		q := NewQueue()

		require.NoError(t, q.Enqueue(ctx, []vcon.ContentUnit{unit("v1", "subject", 0, "hello")}))

		job, err := q.Claim(ctx)
		require.NoError(t, err)
		require.NotNil(t, job)

		require.NoError(t, q.Complete(ctx, job, []float32{0.1, 0.2}, "test-model"))

		emb, exists := q.Stored("v1", "subject", 0)
		require.True(t, exists)
		assert.Equal(t, []float32{0.1, 0.2}, emb.Vector)
		assert.Equal(t, "test-model", emb.Model)
		assert.Equal(t, 0, q.Pending())
	})

	t.Run("fail releases for retry until attempts run out", func(t *testing.T) {
		q := NewQueue()

		require.NoError(t, q.Enqueue(ctx, []vcon.ContentUnit{unit("v1", "subject", 0, "hello")}))

		for attempt := 1; attempt <= queue.MaxAttempts; attempt++ {
			job, err := q.Claim(ctx)
			require.NoError(t, err)
			require.NotNil(t, job, "attempt %d should claim", attempt)
			assert.Equal(t, attempt, job.Attempts)
			require.NoError(t, q.Fail(ctx, job))
		}

		job, err := q.Claim(ctx)
		require.NoError(t, err)
		assert.Nil(t, job)
		assert.Equal(t, 0, q.Pending())
	})
}
