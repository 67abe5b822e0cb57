package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/vcon-dev/vcon-mcp-sub005/store"
	"github.com/vcon-dev/vcon-mcp-sub005/vcon"
)

type MemoryStore struct {
	options store.Options
	records map[string]vcon.Vcon
	gets    atomic.Int64
	mtx     sync.RWMutex
}

func (s *MemoryStore) Save(ctx context.Context, v *vcon.Vcon) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.records[v.UUID] = *v

	return nil
}

func (s *MemoryStore) Get(ctx context.Context, uuid string) (*vcon.Vcon, error) {
	s.gets.Add(1)

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	rec, exists := s.records[uuid]
	if !exists {
		return nil, store.ErrNotFound
	}

	cpy := rec

	return &cpy, nil
}

func (s *MemoryStore) Delete(ctx context.Context, uuid string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, exists := s.records[uuid]; !exists {
		return store.ErrNotFound
	}

	delete(s.records, uuid)

	return nil
}

func (s *MemoryStore) Find(ctx context.Context, filter store.Filter) ([]vcon.Vcon, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	candidates := make([]vcon.Vcon, 0, len(s.records))

	for _, rec := range s.records {
		if len(filter.Subject) > 0 && !strings.Contains(strings.ToLower(rec.Subject), strings.ToLower(filter.Subject)) {
			continue
		}
		if len(filter.Party) > 0 && !matchesParty(rec.Parties, filter.Party) {
			continue
		}
		if filter.After != nil && rec.CreatedAt.Before(*filter.After) {
			continue
		}
		if filter.Before != nil && rec.CreatedAt.After(*filter.Before) {
			continue
		}
		candidates = append(candidates, rec)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(candidates) {
			return nil, nil
		}
		candidates = candidates[filter.Offset:]
	}

	if filter.Limit > 0 && len(candidates) > filter.Limit {
		candidates = candidates[:filter.Limit]
	}

	return candidates, nil
}

// GetCount reports how many direct reads the store has served. Cache tests
// use it to tell hits from read-throughs.
func (s *MemoryStore) GetCount() int64 {
	return s.gets.Load()
}

func matchesParty(parties []vcon.Party, query string) bool {
	for _, p := range parties {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) {
			return true
		}
		if p.Mailto == query || p.Tel == query {
			return true
		}
	}
	return false
}

func NewStore(opts ...store.Option) *MemoryStore {
	options := store.NewOptions(opts...)

	s := &MemoryStore{
		options: options,
		records: map[string]vcon.Vcon{},
		mtx:     sync.RWMutex{},
	}

	return s
}
