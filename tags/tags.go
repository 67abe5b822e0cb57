// Package tags maintains the derived tag index: a queryable projection of the
// "key:value" strings carried by a record's reserved tags attachment. The
// index is never written directly; it is recomputed from attachment data so a
// refresh is idempotent by construction.
package tags

import "context"

// Tag is one derived (key, value) pair.
type Tag struct {
	Key   string
	Value string
}

// ValueCount is a distinct tag value with its usage count across records.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// KeyInfo groups the distinct values observed for one tag key.
type KeyInfo struct {
	Key    string       `json:"key"`
	Values []ValueCount `json:"values"`
}

type Index interface {
	// Refresh rebuilds the derived rows from the reserved attachments.
	// Concurrent lookups never observe a partially rebuilt index.
	Refresh(ctx context.Context) error

	// Lookup returns the uuids of records carrying ALL given pairs,
	// matched by exact string equality.
	Lookup(ctx context.Context, criteria map[string]string) ([]string, error)

	// Discover aggregates distinct keys and values over the derived index.
	// keyFilter narrows to one key when non-empty; minCount drops values
	// used fewer times.
	Discover(ctx context.Context, keyFilter string, minCount int) ([]KeyInfo, error)
}
