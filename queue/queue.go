// Package queue feeds the embedding store: content units are enqueued on
// every creation or change and claimed exclusively by workers, so no unit is
// ever embedded twice concurrently.
package queue

import (
	"context"

	"github.com/vcon-dev/vcon-mcp-sub005/vcon"
)

// MaxAttempts drops a job after this many failed claims.
const MaxAttempts = 3

// Job is one claimed unit of embedding work.
type Job struct {
	VconUUID string
	Source   string
	Index    int
	Text     string
	Attempts int
}

type Queue interface {
	// Enqueue adds work for each content unit. Re-enqueuing an already
	// queued unit with unchanged text is a no-op; changed text resets the
	// job so the superseded embedding row gets replaced.
	Enqueue(ctx context.Context, units []vcon.ContentUnit) error

	// Claim takes exclusive ownership of one pending job without
	// blocking. It returns (nil, nil) when the queue is empty.
	Claim(ctx context.Context) (*Job, error)

	// Complete stores the resulting embedding row, replacing any
	// superseded row wholesale, and removes the job.
	Complete(ctx context.Context, job *Job, vector []float32, model string) error

	// Fail releases a claimed job for retry, dropping it once MaxAttempts
	// is exhausted.
	Fail(ctx context.Context, job *Job) error
}
