package store

import (
	"context"
	"errors"
	"time"

	"github.com/vcon-dev/vcon-mcp-sub005/vcon"
)

// ErrNotFound is returned by Get when no record exists for the given uuid.
// Search paths never return it; an empty result set is valid there.
var ErrNotFound = errors.New("vcon not found")

// Filter narrows a metadata listing. Zero values mean "no predicate".
type Filter struct {
	Subject string
	Party   string
	After   *time.Time
	Before  *time.Time
	Limit   int
	Offset  int
}

type Store interface {
	Save(ctx context.Context, v *vcon.Vcon) error
	Get(ctx context.Context, uuid string) (*vcon.Vcon, error)
	Delete(ctx context.Context, uuid string) error
	Find(ctx context.Context, filter Filter) ([]vcon.Vcon, error)
}
