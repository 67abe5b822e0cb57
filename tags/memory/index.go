package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/vcon-dev/vcon-mcp-sub005/tags"
)

type memoryIndex struct {
	options tags.Options
	byVcon  map[string]map[tags.Tag]struct{}
	mtx     sync.RWMutex
}

// Refresh builds a fresh projection from the source and swaps it in under the
// write lock, so readers see either the old or the new index in full.
func (m *memoryIndex) Refresh(ctx context.Context) error {
	bodies, err := m.options.Source(ctx)
	if err != nil {
		return fmt.Errorf("read tag source: %w", err)
	}

	next := map[string]map[tags.Tag]struct{}{}
	skipped := 0

	for uuid, list := range bodies {
		for _, body := range list {
			ts := tags.Parse(body)
			if len(ts) == 0 && len(body) > 0 {
				skipped++
				continue
			}
			for _, t := range ts {
				if _, exists := next[uuid]; !exists {
					next[uuid] = map[tags.Tag]struct{}{}
				}
				next[uuid][t] = struct{}{}
			}
		}
	}

	if skipped > 0 {
		slog.WarnContext(ctx, "skipped malformed tag attachments during refresh", "skipped", skipped)
	}

	m.mtx.Lock()
	m.byVcon = next
	m.mtx.Unlock()

	return nil
}

func (m *memoryIndex) Lookup(ctx context.Context, criteria map[string]string) ([]string, error) {
	if len(criteria) == 0 {
		return nil, nil
	}

	m.mtx.RLock()
	defer m.mtx.RUnlock()

	var uuids []string

	for uuid, set := range m.byVcon {
		matched := true
		for key, value := range criteria {
			if _, exists := set[tags.Tag{Key: key, Value: value}]; !exists {
				matched = false
				break
			}
		}
		if matched {
			uuids = append(uuids, uuid)
		}
	}

	sort.Strings(uuids)

	return uuids, nil
}

func (m *memoryIndex) Discover(ctx context.Context, keyFilter string, minCount int) ([]tags.KeyInfo, error) {
	if minCount < 1 {
		minCount = 1
	}

	m.mtx.RLock()
	counts := map[tags.Tag]int{}
	for _, set := range m.byVcon {
		for t := range set {
			if len(keyFilter) > 0 && t.Key != keyFilter {
				continue
			}
			counts[t]++
		}
	}
	m.mtx.RUnlock()

	grouped := map[string][]tags.ValueCount{}
	for t, count := range counts {
		if count < minCount {
			continue
		}
		grouped[t.Key] = append(grouped[t.Key], tags.ValueCount{Value: t.Value, Count: count})
	}

	keys := make([]string, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	infos := make([]tags.KeyInfo, 0, len(keys))
	for _, key := range keys {
		values := grouped[key]
		sort.Slice(values, func(i, j int) bool {
			if values[i].Count != values[j].Count {
				return values[i].Count > values[j].Count
			}
			return values[i].Value < values[j].Value
		})
		infos = append(infos, tags.KeyInfo{Key: key, Values: values})
	}

	return infos, nil
}

func NewIndex(opts ...tags.Option) tags.Index {
	options := tags.NewOptions(opts...)

	if options.Source == nil {
		detail := "memory tag index requires a source"
		slog.ErrorContext(options.Context, detail)
		panic(detail)
	}

	return &memoryIndex{
		options: options,
		byVcon:  map[string]map[tags.Tag]struct{}{},
		mtx:     sync.RWMutex{},
	}
}
