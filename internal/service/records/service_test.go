package records

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	memoryqueue "github.com/vcon-dev/vcon-mcp-sub005/queue/memory"
	"github.com/vcon-dev/vcon-mcp-sub005/store"
	memorystore "github.com/vcon-dev/vcon-mcp-sub005/store/memory"
	"github.com/vcon-dev/vcon-mcp-sub005/tags"
	memorytags "github.com/vcon-dev/vcon-mcp-sub005/tags/memory"
	"github.com/vcon-dev/vcon-mcp-sub005/vcon"
)

func setup(t *testing.T) (*Service, tags.Index, *memoryqueue.MemoryQueue) {
	t.Helper()

	base := memorystore.NewStore()

	src := func(ctx context.Context) (map[string][]string, error) {
		recs, err := base.Find(ctx, store.Filter{Limit: 1000})
		if err != nil {
			return nil, err
		}

		bodies := map[string][]string{}
		for _, rec := range recs {
			for _, a := range rec.Attachments {
				if a.Type == vcon.TagsAttachmentType {
					bodies[rec.UUID] = append(bodies[rec.UUID], a.Body)
				}
			}
		}
		return bodies, nil
	}

	idx := memorytags.NewIndex(tags.WithSource(src))
	q := memoryqueue.NewQueue()

	return New(base, idx, q), idx, q
}

func record(id string) *vcon.Vcon {
	return &vcon.Vcon{
		UUID:    id,
		Version: "0.3.0",
		Subject: "refund request",
		Dialog: []vcon.Dialog{
			{Type: "text", Body: "I would like a refund", Encoding: "none"},
		},
		Attachments: []vcon.Attachment{
			{Type: vcon.TagsAttachmentType, Body: `["team:sales"]`, Encoding: "json"},
		},
	}
}

func TestSave(t *testing.T) {
	ctx := context.Background()

	t.Run("missing uuid is generated", func(t *testing.T) {
		svc, _, _ := setup(t)

		saved, err := svc.Save(ctx, record(""))
		require.NoError(t, err)

		_, err = uuid.Parse(saved.UUID)
		assert.NoError(t, err)
		assert.False(t, saved.CreatedAt.IsZero())
		assert.False(t, saved.UpdatedAt.IsZero())
	})

	t.Run("malformed uuid is rejected", func(t *testing.T) {
		svc, _, _ := setup(t)

		_, err := svc.Save(ctx, record("not-a-uuid"))
		assert.ErrorIs(t, err, ErrInvalidRecord)
	})

	t.Run("save refreshes the tag index", func(t *testing.T) {
		svc, idx, _ := setup(t)

		saved, err := svc.Save(ctx, record(""))
		require.NoError(t, err)

		uuids, err := idx.Lookup(ctx, map[string]string{"team": "sales"})
		require.NoError(t, err)
		assert.Equal(t, []string{saved.UUID}, uuids)
	})

	t.Run("save enqueues the record's content units", func(t *testing.T) {
		svc, _, q := setup(t)

		saved, err := svc.Save(ctx, record(""))
		require.NoError(t, err)

		// Subject plus one plain-text dialog body.
		assert.Equal(t, 2, q.Pending())

		job, err := q.Claim(ctx)
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, saved.UUID, job.VconUUID)
	})

	t.Run("timestamps survive updates", func(t *testing.T) {
		svc, _, _ := setup(t)

		saved, err := svc.Save(ctx, record(""))
		require.NoError(t, err)
		created := saved.CreatedAt

		time.Sleep(time.Millisecond)

		saved.Subject = "updated"
		updated, err := svc.Save(ctx, saved)
		require.NoError(t, err)

		assert.Equal(t, created, updated.CreatedAt)
		assert.True(t, updated.UpdatedAt.After(created))
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("delete drops the record's derived tags", func(t *testing.T) {
		svc, idx, _ := setup(t)

		saved, err := svc.Save(ctx, record(""))
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, saved.UUID))

		_, err = svc.Get(ctx, saved.UUID)
		assert.ErrorIs(t, err, store.ErrNotFound)

		uuids, err := idx.Lookup(ctx, map[string]string{"team": "sales"})
		require.NoError(t, err)
		assert.Empty(t, uuids)
	})

	t.Run("deleting an unknown record is not found", func(t *testing.T) {
		svc, _, _ := setup(t)

		assert.ErrorIs(t, svc.Delete(ctx, "missing"), store.ErrNotFound)
	})
}
