package store

import (
	"context"
	"database/sql"
)

type Option func(*Options)

type Options struct {
	Location string
	DB       *sql.DB
	Context  context.Context
}

func WithLocation(loc string) Option {
	return func(o *Options) {
		o.Location = loc
	}
}

// WithDB injects an already-open connection pool instead of opening one from
// Location. Providers sharing a database reuse the same pool this way.
func WithDB(db *sql.DB) Option {
	return func(o *Options) {
		o.DB = db
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
