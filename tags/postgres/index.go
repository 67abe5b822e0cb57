package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vcon-dev/vcon-mcp-sub005/tags"
	"github.com/vcon-dev/vcon-mcp-sub005/vcon"
)

type postgresIndex struct {
	options tags.Options
	conn    *sql.DB
}

// Refresh rescans all reserved attachments and replaces the derived rows
// inside one transaction. Readers keep seeing the old rows until commit, so
// there is no visible empty window.
func (p *postgresIndex) Refresh(ctx context.Context) error {
	rows, err := p.conn.QueryContext(
		ctx,
		"SELECT vcon_uuid, body FROM attachments WHERE type = $1",
		vcon.TagsAttachmentType,
	)
	if err != nil {
		return fmt.Errorf("scan attachments: %w", err)
	}
	defer rows.Close()

	type derived struct {
		uuid string
		tag  tags.Tag
	}

	var entries []derived
	parsed := 0
	skipped := 0

	for rows.Next() {
		var uuid, body string
		if err := rows.Scan(&uuid, &body); err != nil {
			return err
		}

		ts := tags.Parse(body)
		if len(ts) == 0 && len(body) > 0 {
			skipped++
			continue
		}

		parsed++
		for _, t := range ts {
			entries = append(entries, derived{uuid: uuid, tag: t})
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if skipped > 0 {
		slog.WarnContext(ctx, "skipped malformed tag attachments during refresh", "skipped", skipped)
	}

	tx, err := p.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM vcon_tags"); err != nil {
		return fmt.Errorf("clear derived rows: %w", err)
	}

	stmt, err := tx.PrepareContext(
		ctx,
		"INSERT INTO vcon_tags (vcon_uuid, tag_key, tag_value) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING",
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.uuid, e.tag.Key, e.tag.Value); err != nil {
			return fmt.Errorf("insert derived row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	slog.InfoContext(ctx, "tag index refreshed", "attachments", parsed, "rows", len(entries))

	return nil
}

func (p *postgresIndex) Lookup(ctx context.Context, criteria map[string]string) ([]string, error) {
	if len(criteria) == 0 {
		return nil, nil
	}

	// Rows are unique on (uuid, key, value), so a record matches all pairs
	// exactly when its matching row count equals the number of pairs.
	var clauses []string
	var args []any

	i := 1
	for key, value := range criteria {
		clauses = append(clauses, fmt.Sprintf("(tag_key = $%d AND tag_value = $%d)", i, i+1))
		args = append(args, key, value)
		i += 2
	}
	args = append(args, len(criteria))

	query := fmt.Sprintf(`
		SELECT vcon_uuid
		FROM vcon_tags
		WHERE %s
		GROUP BY vcon_uuid
		HAVING COUNT(*) = $%d
		ORDER BY vcon_uuid
	`, strings.Join(clauses, " OR "), i)

	rows, err := p.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uuids []string
	for rows.Next() {
		var uuid string
		if err := rows.Scan(&uuid); err != nil {
			return nil, err
		}
		uuids = append(uuids, uuid)
	}

	return uuids, rows.Err()
}

func (p *postgresIndex) Discover(ctx context.Context, keyFilter string, minCount int) ([]tags.KeyInfo, error) {
	query := `
		SELECT tag_key, tag_value, COUNT(*)
		FROM vcon_tags
		WHERE ($1 = '' OR tag_key = $1)
		GROUP BY tag_key, tag_value
		HAVING COUNT(*) >= $2
		ORDER BY tag_key, COUNT(*) DESC, tag_value
	`

	if minCount < 1 {
		minCount = 1
	}

	rows, err := p.conn.QueryContext(ctx, query, keyFilter, minCount)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []tags.KeyInfo

	for rows.Next() {
		var key, value string
		var count int
		if err := rows.Scan(&key, &value, &count); err != nil {
			return nil, err
		}

		if len(infos) == 0 || infos[len(infos)-1].Key != key {
			infos = append(infos, tags.KeyInfo{Key: key})
		}

		last := &infos[len(infos)-1]
		last.Values = append(last.Values, tags.ValueCount{Value: value, Count: count})
	}

	return infos, rows.Err()
}

func NewIndex(opts ...tags.Option) tags.Index {
	options := tags.NewOptions(opts...)

	if options.DB == nil {
		detail := "postgres tag index requires a db connection"
		slog.ErrorContext(options.Context, detail)
		panic(detail)
	}

	return &postgresIndex{
		options: options,
		conn:    options.DB,
	}
}
