package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/vcon-dev/vcon-mcp-sub005/search"
)

// Field weights for keyword ranking. Subject and participant matches rank
// above deep content matches; the exact values are part of this package's
// contract and must stay deterministic.
const keywordSQL = `
	WITH hits AS (
		SELECT v.uuid, 'subject' AS source, 0 AS source_index, v.subject AS text,
		       similarity(v.subject, $1) * 1.00 AS score, v.created_at
		FROM vcons v
		WHERE v.subject % $1
		UNION ALL
		SELECT p.vcon_uuid, 'party', p.party_index, p.name,
		       GREATEST(similarity(p.name, $1), similarity(p.mailto, $1), similarity(p.tel, $1)) * 0.90,
		       v.created_at
		FROM parties p
		JOIN vcons v ON v.uuid = p.vcon_uuid
		WHERE p.name % $1 OR p.mailto % $1 OR p.tel % $1
		UNION ALL
		SELECT d.vcon_uuid, 'dialog', d.dialog_index, d.body,
		       similarity(d.body, $1) * 0.70, v.created_at
		FROM dialog d
		JOIN vcons v ON v.uuid = d.vcon_uuid
		WHERE d.body % $1
		UNION ALL
		SELECT a.vcon_uuid, 'analysis', a.analysis_index, a.body,
		       similarity(a.body, $1) * 0.60, v.created_at
		FROM analysis a
		JOIN vcons v ON v.uuid = a.vcon_uuid
		WHERE a.body % $1
	)
	SELECT h.uuid, h.source, h.source_index, h.text, h.score
	FROM hits h
	WHERE ($2::timestamptz IS NULL OR h.created_at >= $2)
	AND ($3::timestamptz IS NULL OR h.created_at <= $3)
	AND NOT EXISTS (
		SELECT 1 FROM unnest($4::text[], $5::text[]) AS t(k, v)
		WHERE NOT EXISTS (
			SELECT 1 FROM vcon_tags vt
			WHERE vt.vcon_uuid = h.uuid AND vt.tag_key = t.k AND vt.tag_value = t.v
		)
	)
	ORDER BY h.score DESC, h.uuid, h.source, h.source_index
	LIMIT $6
`

const semanticSQL = `
	SELECT e.vcon_uuid, e.source, e.source_index, 1 - (e.embedding <=> $1) AS score
	FROM vcon_embeddings e
	JOIN vcons v ON v.uuid = e.vcon_uuid
	WHERE 1 - (e.embedding <=> $1) >= $2
	AND ($3::timestamptz IS NULL OR v.created_at >= $3)
	AND ($4::timestamptz IS NULL OR v.created_at <= $4)
	AND NOT EXISTS (
		SELECT 1 FROM unnest($5::text[], $6::text[]) AS t(k, v)
		WHERE NOT EXISTS (
			SELECT 1 FROM vcon_tags vt
			WHERE vt.vcon_uuid = e.vcon_uuid AND vt.tag_key = t.k AND vt.tag_value = t.v
		)
	)
	ORDER BY e.embedding <=> $1, e.vcon_uuid
	LIMIT $7
`

type postgresSearcher struct {
	options search.Options
	conn    *sql.DB
}

func (p *postgresSearcher) Keyword(ctx context.Context, req search.KeywordRequest) ([]search.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	keys, values := tagArrays(req.Tags)

	rows, err := p.conn.QueryContext(
		ctx,
		keywordSQL,
		req.Query,
		req.After,
		req.Before,
		keys,
		values,
		req.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []search.Result

	for rows.Next() {
		var res search.Result
		var text string
		if err := rows.Scan(&res.VconUUID, &res.Source, &res.SourceIndex, &text, &res.Score); err != nil {
			return nil, err
		}
		res.Snippet = search.Snippet(text, req.Query)
		results = append(results, res)
	}

	return results, rows.Err()
}

func (p *postgresSearcher) Semantic(ctx context.Context, req search.SemanticRequest) ([]search.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	keys, values := tagArrays(req.Tags)

	rows, err := p.conn.QueryContext(
		ctx,
		semanticSQL,
		pgvector.NewVector(req.Vector),
		req.Threshold,
		req.After,
		req.Before,
		keys,
		values,
		req.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []search.Result

	for rows.Next() {
		var res search.Result
		if err := rows.Scan(&res.VconUUID, &res.Source, &res.SourceIndex, &res.Score); err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	return results, rows.Err()
}

// Hybrid issues the keyword and semantic sub-searches concurrently; they have
// no ordering dependency. The joined result sets are fused by search.Merge.
func (p *postgresSearcher) Hybrid(ctx context.Context, req search.HybridRequest) ([]search.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Sub-searches score a wider candidate set than the final cap so the
	// merge has something to rerank.
	subLimit := req.Limit * 2
	if subLimit > search.MaxLimit {
		subLimit = search.MaxLimit
	}

	var wg sync.WaitGroup
	var keyword, semantic []search.Result
	var kErr, sErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		keyword, kErr = p.Keyword(ctx, search.KeywordRequest{
			Query:  req.Query,
			Tags:   req.Tags,
			After:  req.After,
			Before: req.Before,
			Limit:  subLimit,
		})
	}()

	if len(req.Vector) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// The date range binds both legs, so a record outside it can
			// never surface through a semantic-only hit.
			semantic, sErr = p.Semantic(ctx, search.SemanticRequest{
				Vector: req.Vector,
				Tags:   req.Tags,
				After:  req.After,
				Before: req.Before,
				Limit:  subLimit,
			})
		}()
	}

	wg.Wait()

	if kErr != nil {
		return nil, kErr
	}
	if sErr != nil {
		return nil, sErr
	}

	return search.Merge(keyword, semantic, req.Weight, req.Limit), nil
}

// tagArrays flattens tag criteria into parallel key/value arrays for the
// all-pairs predicate in the SQL.
func tagArrays(criteria map[string]string) (pq.StringArray, pq.StringArray) {
	keys := make(pq.StringArray, 0, len(criteria))
	values := make(pq.StringArray, 0, len(criteria))
	for key, value := range criteria {
		keys = append(keys, key)
		values = append(values, value)
	}
	return keys, values
}

func NewSearcher(opts ...search.Option) search.Searcher {
	options := search.NewOptions(opts...)

	if options.DB == nil {
		detail := "postgres searcher requires a db connection"
		slog.ErrorContext(options.Context, detail)
		panic(detail)
	}

	return &postgresSearcher{
		options: options,
		conn:    options.DB,
	}
}
