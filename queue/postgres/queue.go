package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/pgvector/pgvector-go"
	"github.com/vcon-dev/vcon-mcp-sub005/queue"
	"github.com/vcon-dev/vcon-mcp-sub005/vcon"
)

type postgresQueue struct {
	options queue.Options
	conn    *sql.DB
}

func (p *postgresQueue) Enqueue(ctx context.Context, units []vcon.ContentUnit) error {
	if len(units) == 0 {
		return nil
	}

	// Unchanged text is a no-op; changed text re-opens the job so the old
	// embedding row gets replaced on completion.
	query := `
		INSERT INTO embedding_jobs (vcon_uuid, source, source_index, text)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (vcon_uuid, source, source_index) DO UPDATE SET
			text = EXCLUDED.text,
			status = 'pending',
			attempts = 0,
			claimed_at = NULL
		WHERE embedding_jobs.text IS DISTINCT FROM EXCLUDED.text
	`

	stmt, err := p.conn.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, unit := range units {
		if _, err := stmt.ExecContext(ctx, unit.VconUUID, unit.Source, unit.Index, unit.Text); err != nil {
			return fmt.Errorf("enqueue unit: %w", err)
		}
	}

	return nil
}

func (p *postgresQueue) Claim(ctx context.Context) (*queue.Job, error) {
	// SKIP LOCKED keeps the claim non-blocking under concurrent workers.
	query := `
		UPDATE embedding_jobs SET status = 'processing', claimed_at = now(), attempts = attempts + 1
		WHERE (vcon_uuid, source, source_index) IN (
			SELECT vcon_uuid, source, source_index
			FROM embedding_jobs
			WHERE status = 'pending'
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING vcon_uuid, source, source_index, text, attempts
	`

	job := &queue.Job{}

	if err := p.conn.QueryRowContext(ctx, query).Scan(
		&job.VconUUID, &job.Source, &job.Index, &job.Text, &job.Attempts,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return job, nil
}

func (p *postgresQueue) Complete(ctx context.Context, job *queue.Job, vector []float32, model string) error {
	tx, err := p.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Replace wholesale rather than update in place; the unique key is the
	// backstop if another worker got here first.
	if _, err := tx.ExecContext(
		ctx,
		"DELETE FROM vcon_embeddings WHERE vcon_uuid = $1 AND source = $2 AND source_index = $3",
		job.VconUUID, job.Source, job.Index,
	); err != nil {
		return fmt.Errorf("clear superseded row: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO vcon_embeddings (vcon_uuid, source, source_index, embedding, model)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (vcon_uuid, source, source_index) DO NOTHING`,
		job.VconUUID, job.Source, job.Index, pgvector.NewVector(vector), model,
	); err != nil {
		return fmt.Errorf("insert embedding row: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		"DELETE FROM embedding_jobs WHERE vcon_uuid = $1 AND source = $2 AND source_index = $3",
		job.VconUUID, job.Source, job.Index,
	); err != nil {
		return fmt.Errorf("remove job: %w", err)
	}

	return tx.Commit()
}

func (p *postgresQueue) Fail(ctx context.Context, job *queue.Job) error {
	if job.Attempts >= queue.MaxAttempts {
		slog.WarnContext(ctx, "dropping embedding job after max attempts",
			"vcon", job.VconUUID, "source", job.Source, "index", job.Index, "attempts", job.Attempts)

		_, err := p.conn.ExecContext(
			ctx,
			"DELETE FROM embedding_jobs WHERE vcon_uuid = $1 AND source = $2 AND source_index = $3",
			job.VconUUID, job.Source, job.Index,
		)
		return err
	}

	_, err := p.conn.ExecContext(
		ctx,
		`UPDATE embedding_jobs SET status = 'pending', claimed_at = NULL
		 WHERE vcon_uuid = $1 AND source = $2 AND source_index = $3`,
		job.VconUUID, job.Source, job.Index,
	)
	return err
}

func NewQueue(opts ...queue.Option) queue.Queue {
	options := queue.NewOptions(opts...)

	if options.DB == nil {
		detail := "postgres queue requires a db connection"
		slog.ErrorContext(options.Context, detail)
		panic(detail)
	}

	return &postgresQueue{
		options: options,
		conn:    options.DB,
	}
}
