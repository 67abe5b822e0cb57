package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vcon-dev/vcon-mcp-sub005/tags"
)

func setupIndex(t *testing.T, bodies map[string][]string) tags.Index {
	t.Helper()

	idx := NewIndex(tags.WithSource(func(ctx context.Context) (map[string][]string, error) {
		return bodies, nil
	}))

	require.NoError(t, idx.Refresh(context.Background()))

	return idx
}

func TestLookup(t *testing.T) {
	idx := setupIndex(t, map[string][]string{
		"r1": {`["dept:sales", "tier:gold"]`},
		"r2": {`["dept:sales"]`},
		"r3": {`["dept:support", "tier:gold"]`},
	})
	ctx := context.Background()

	t.Run("all pairs must match", func(t *testing.T) {
		uuids, err := idx.Lookup(ctx, map[string]string{"dept": "sales", "tier": "gold"})
		require.NoError(t, err)
		assert.Equal(t, []string{"r1"}, uuids)
	})

	t.Run("single pair is a superset of two pairs", func(t *testing.T) {
		broad, err := idx.Lookup(ctx, map[string]string{"dept": "sales"})
		require.NoError(t, err)
		assert.Equal(t, []string{"r1", "r2"}, broad)

		narrow, err := idx.Lookup(ctx, map[string]string{"dept": "sales", "tier": "gold"})
		require.NoError(t, err)
		assert.Subset(t, broad, narrow)
	})

	t.Run("exact equality, no fuzzy matching", func(t *testing.T) {
		uuids, err := idx.Lookup(ctx, map[string]string{"dept": "sale"})
		require.NoError(t, err)
		assert.Empty(t, uuids)
	})

	t.Run("empty criteria matches nothing", func(t *testing.T) {
		uuids, err := idx.Lookup(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, uuids)
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("idempotent with unchanged source", func(t *testing.T) {
		idx := setupIndex(t, map[string][]string{
			"r1": {`["dept:sales", "tier:gold"]`},
		})

		before, err := idx.Discover(ctx, "", 0)
		require.NoError(t, err)

		require.NoError(t, idx.Refresh(ctx))

		after, err := idx.Discover(ctx, "", 0)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("malformed bodies skip without failing", func(t *testing.T) {
		idx := setupIndex(t, map[string][]string{
			"r1": {`["dept:sales"]`, `this is not json`},
			"r2": {`{"wrong": "shape"}`},
		})

		uuids, err := idx.Lookup(ctx, map[string]string{"dept": "sales"})
		require.NoError(t, err)
		assert.Equal(t, []string{"r1"}, uuids)
	})

	t.Run("replaced source replaces derived rows", func(t *testing.T) {
		bodies := map[string][]string{
			"r1": {`["dept:sales"]`},
		}
		idx := NewIndex(tags.WithSource(func(ctx context.Context) (map[string][]string, error) {
			return bodies, nil
		}))
		require.NoError(t, idx.Refresh(ctx))

		bodies["r1"] = []string{`["dept:support"]`}
		require.NoError(t, idx.Refresh(ctx))

		uuids, err := idx.Lookup(ctx, map[string]string{"dept": "sales"})
		require.NoError(t, err)
		assert.Empty(t, uuids)

		uuids, err = idx.Lookup(ctx, map[string]string{"dept": "support"})
		require.NoError(t, err)
		assert.Equal(t, []string{"r1"}, uuids)
	})
}

func TestDiscover(t *testing.T) {
	idx := setupIndex(t, map[string][]string{
		"r1": {`["dept:sales", "tier:gold"]`},
		"r2": {`["dept:sales"]`},
		"r3": {`["dept:support"]`},
	})
	ctx := context.Background()

	t.Run("aggregates keys, values and counts", func(t *testing.T) {
		infos, err := idx.Discover(ctx, "", 0)
		require.NoError(t, err)
		require.Len(t, infos, 2)

		assert.Equal(t, "dept", infos[0].Key)
		assert.Equal(t, []tags.ValueCount{
			{Value: "sales", Count: 2},
			{Value: "support", Count: 1},
		}, infos[0].Values)

		assert.Equal(t, "tier", infos[1].Key)
	})

	t.Run("key filter narrows", func(t *testing.T) {
		infos, err := idx.Discover(ctx, "tier", 0)
		require.NoError(t, err)
		require.Len(t, infos, 1)
		assert.Equal(t, "tier", infos[0].Key)
	})

	t.Run("min count drops rare values", func(t *testing.T) {
		infos, err := idx.Discover(ctx, "dept", 2)
		require.NoError(t, err)
		require.Len(t, infos, 1)
		assert.Equal(t, []tags.ValueCount{{Value: "sales", Count: 2}}, infos[0].Values)
	})
}
