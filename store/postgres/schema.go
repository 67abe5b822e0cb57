package postgres

import "context"

// The schema owns every derived structure of the subsystem: trigram indexes
// for keyword search, the tag projection, the embedding rows with their ANN
// index, and the embedding work queue. Unique keys on derived tables are the
// final backstop against duplicate writes from concurrent workers.
var statements = []string{
	`CREATE EXTENSION IF NOT EXISTS pg_trgm`,
	`CREATE EXTENSION IF NOT EXISTS vector`,

	`CREATE TABLE IF NOT EXISTS vcons (
		uuid UUID PRIMARY KEY,
		vcon_version TEXT NOT NULL DEFAULT '0.3.0',
		subject TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_vcons_created_at ON vcons (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_vcons_subject_trgm ON vcons USING gin (subject gin_trgm_ops)`,

	`CREATE TABLE IF NOT EXISTS parties (
		vcon_uuid UUID NOT NULL REFERENCES vcons(uuid) ON DELETE CASCADE,
		party_index INT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		mailto TEXT NOT NULL DEFAULT '',
		tel TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (vcon_uuid, party_index)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_parties_name_trgm ON parties USING gin (name gin_trgm_ops)`,
	`CREATE INDEX IF NOT EXISTS idx_parties_mailto ON parties (mailto)`,
	`CREATE INDEX IF NOT EXISTS idx_parties_tel ON parties (tel)`,

	`CREATE TABLE IF NOT EXISTS dialog (
		vcon_uuid UUID NOT NULL REFERENCES vcons(uuid) ON DELETE CASCADE,
		dialog_index INT NOT NULL,
		type TEXT NOT NULL DEFAULT '',
		start_time TIMESTAMPTZ,
		mediatype TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL DEFAULT '',
		encoding TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (vcon_uuid, dialog_index)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_dialog_body_trgm ON dialog USING gin (body gin_trgm_ops)`,

	`CREATE TABLE IF NOT EXISTS analysis (
		vcon_uuid UUID NOT NULL REFERENCES vcons(uuid) ON DELETE CASCADE,
		analysis_index INT NOT NULL,
		type TEXT NOT NULL DEFAULT '',
		vendor TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL DEFAULT '',
		encoding TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (vcon_uuid, analysis_index)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analysis_body_trgm ON analysis USING gin (body gin_trgm_ops)`,

	`CREATE TABLE IF NOT EXISTS attachments (
		vcon_uuid UUID NOT NULL REFERENCES vcons(uuid) ON DELETE CASCADE,
		attachment_index INT NOT NULL,
		type TEXT NOT NULL DEFAULT '',
		party INT NOT NULL DEFAULT 0,
		body TEXT NOT NULL DEFAULT '',
		encoding TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (vcon_uuid, attachment_index)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_attachments_type ON attachments (type)`,

	`CREATE TABLE IF NOT EXISTS vcon_tags (
		vcon_uuid UUID NOT NULL REFERENCES vcons(uuid) ON DELETE CASCADE,
		tag_key TEXT NOT NULL,
		tag_value TEXT NOT NULL,
		PRIMARY KEY (vcon_uuid, tag_key, tag_value)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_vcon_tags_kv ON vcon_tags (tag_key, tag_value)`,

	`CREATE TABLE IF NOT EXISTS vcon_embeddings (
		vcon_uuid UUID NOT NULL REFERENCES vcons(uuid) ON DELETE CASCADE,
		source TEXT NOT NULL,
		source_index INT NOT NULL,
		embedding vector(384) NOT NULL,
		model TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (vcon_uuid, source, source_index)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_vcon_embeddings_ann
		ON vcon_embeddings USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,

	`CREATE TABLE IF NOT EXISTS embedding_jobs (
		id BIGSERIAL,
		vcon_uuid UUID NOT NULL REFERENCES vcons(uuid) ON DELETE CASCADE,
		source TEXT NOT NULL,
		source_index INT NOT NULL,
		text TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		attempts INT NOT NULL DEFAULT 0,
		claimed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (vcon_uuid, source, source_index)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_embedding_jobs_status ON embedding_jobs (status, created_at)`,
}

// Migrate applies the schema. Every statement is idempotent, so it is safe to
// run on every startup.
func (p *postgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range statements {
		if _, err := p.conn.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
