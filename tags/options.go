package tags

import (
	"context"
	"database/sql"
)

// Source yields the raw reserved-attachment bodies per record uuid. The
// memory index refreshes from it; the postgres index scans the attachments
// table directly.
type Source func(ctx context.Context) (map[string][]string, error)

type Option func(*Options)

type Options struct {
	DB      *sql.DB
	Source  Source
	Context context.Context
}

func WithDB(db *sql.DB) Option {
	return func(o *Options) {
		o.DB = db
	}
}

func WithSource(src Source) Option {
	return func(o *Options) {
		o.Source = src
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
