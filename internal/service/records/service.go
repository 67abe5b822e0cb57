package records

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vcon-dev/vcon-mcp-sub005/queue"
	"github.com/vcon-dev/vcon-mcp-sub005/store"
	"github.com/vcon-dev/vcon-mcp-sub005/tags"
	"github.com/vcon-dev/vcon-mcp-sub005/vcon"
)

// ErrInvalidRecord wraps rejections of malformed records before any write.
var ErrInvalidRecord = errors.New("invalid vcon record")

// Service orchestrates record writes: persist, rebuild the tag projection,
// and enqueue the record's content units for embedding. Reads go through the
// store it was handed, which is the cached wrapper when caching is enabled.
type Service struct {
	store store.Store
	tags  tags.Index
	queue queue.Queue
}

func (s *Service) Save(ctx context.Context, v *vcon.Vcon) (*vcon.Vcon, error) {
	if len(strings.TrimSpace(v.UUID)) == 0 {
		v.UUID = uuid.New().String()
	}
	if _, err := uuid.Parse(v.UUID); err != nil {
		return nil, fmt.Errorf("%w: uuid %q: %v", ErrInvalidRecord, v.UUID, err)
	}

	now := time.Now().UTC()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now

	if err := s.store.Save(ctx, v); err != nil {
		return nil, err
	}

	// Derived data is refreshed after the write commits. Neither failure
	// loses the record; both are retried by the next write or refresh.
	if err := s.tags.Refresh(ctx); err != nil {
		slog.WarnContext(ctx, "tag refresh after save failed", "vcon", v.UUID, "error", err)
	}

	if err := s.queue.Enqueue(ctx, vcon.ContentUnits(v)); err != nil {
		slog.WarnContext(ctx, "embedding enqueue after save failed", "vcon", v.UUID, "error", err)
	}

	return v, nil
}

func (s *Service) Get(ctx context.Context, id string) (*vcon.Vcon, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.tags.Refresh(ctx); err != nil {
		slog.WarnContext(ctx, "tag refresh after delete failed", "vcon", id, "error", err)
	}

	return nil
}

func (s *Service) Find(ctx context.Context, filter store.Filter) ([]vcon.Vcon, error) {
	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	return s.store.Find(ctx, filter)
}

func New(
	st store.Store,
	idx tags.Index,
	q queue.Queue,
) *Service {
	return &Service{
		store: st,
		tags:  idx,
		queue: q,
	}
}
