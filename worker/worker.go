// Package worker drains the embedding queue. Workers claim exclusively, call
// the external embedder, and persist the resulting rows; a single bad unit
// never stops the batch.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vcon-dev/vcon-mcp-sub005/embedder"
	"github.com/vcon-dev/vcon-mcp-sub005/queue"
)

type Option func(*Pool)

func WithWorkers(n int) Option {
	return func(p *Pool) {
		p.workers = n
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(p *Pool) {
		p.poll = d
	}
}

func WithModel(model string) Option {
	return func(p *Pool) {
		p.model = model
	}
}

func WithDimensions(dims int) Option {
	return func(p *Pool) {
		p.dims = dims
	}
}

type Pool struct {
	queue    queue.Queue
	embedder embedder.Embedder
	workers  int
	poll     time.Duration
	model    string
	dims     int
}

// Run blocks until ctx is cancelled, draining the queue with the configured
// number of concurrent workers.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.loop(ctx, id)
		}(i)
	}

	wg.Wait()
}

// Drain processes jobs until the queue is empty, then returns. Tests and
// one-shot backfills use it instead of Run.
func (p *Pool) Drain(ctx context.Context) {
	for {
		if processed := p.step(ctx); !processed {
			return
		}
	}
}

func (p *Pool) loop(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if processed := p.step(ctx); processed {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(p.poll):
		}
	}
}

func (p *Pool) step(ctx context.Context) bool {
	job, err := p.queue.Claim(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to claim embedding job", "error", err)
		return false
	}
	if job == nil {
		return false
	}

	vector, err := p.embedder.Embed(ctx, job.Text)
	if err != nil {
		slog.WarnContext(ctx, "embedding failed, releasing job",
			"vcon", job.VconUUID, "source", job.Source, "index", job.Index, "error", err)
		p.fail(ctx, job)
		return true
	}

	// Dimension mismatch is a data inconsistency: skip the row, keep going.
	if len(vector) != p.dims {
		slog.WarnContext(ctx, "embedding dimension mismatch, skipping unit",
			"vcon", job.VconUUID, "source", job.Source, "index", job.Index,
			"got", len(vector), "want", p.dims)
		job.Attempts = queue.MaxAttempts
		p.fail(ctx, job)
		return true
	}

	if err := p.queue.Complete(ctx, job, vector, p.model); err != nil {
		slog.ErrorContext(ctx, "failed to store embedding",
			"vcon", job.VconUUID, "source", job.Source, "index", job.Index, "error", err)
		p.fail(ctx, job)
	}

	return true
}

func (p *Pool) fail(ctx context.Context, job *queue.Job) {
	if err := p.queue.Fail(ctx, job); err != nil {
		slog.ErrorContext(ctx, "failed to release embedding job", "error", err)
	}
}

func NewPool(q queue.Queue, e embedder.Embedder, opts ...Option) *Pool {
	p := &Pool{
		queue:    q,
		embedder: e,
		workers:  2,
		poll:     time.Second,
		model:    "",
		dims:     embedder.Dimensions,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}
