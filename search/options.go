package search

import (
	"context"
	"database/sql"
)

type Option func(*Options)

type Options struct {
	DB      *sql.DB
	Context context.Context
}

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
