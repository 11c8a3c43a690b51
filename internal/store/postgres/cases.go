package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"casefile/internal/store"
)

func (c *Client) UpsertCase(ctx context.Context, in store.CaseInput) error {
	query := `
INSERT INTO cases (id, title, source_file, source_hash, time_limit, node_count, edge_count, max_score, document, last_ingested)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
ON CONFLICT (id) DO UPDATE SET
    title = EXCLUDED.title,
    source_file = EXCLUDED.source_file,
    source_hash = EXCLUDED.source_hash,
    time_limit = EXCLUDED.time_limit,
    node_count = EXCLUDED.node_count,
    edge_count = EXCLUDED.edge_count,
    max_score = EXCLUDED.max_score,
    document = EXCLUDED.document,
    last_ingested = now()
`

	_, err := c.pool.Exec(ctx, query,
		in.ID,
		in.Title,
		in.SourceFile,
		in.SourceHash,
		in.TimeLimit,
		in.NodeCount,
		in.EdgeCount,
		in.MaxScore,
		in.Document,
	)
	if err != nil {
		return fmt.Errorf("upserting case: %w", err)
	}
	return nil
}

func (c *Client) GetCaseHashes(ctx context.Context) (map[string]string, error) {
	rows, err := c.pool.Query(ctx, `SELECT source_file, source_hash FROM cases WHERE source_file <> ''`)
	if err != nil {
		return nil, fmt.Errorf("query case hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var sourceFile, sourceHash string
		if err := rows.Scan(&sourceFile, &sourceHash); err != nil {
			return nil, fmt.Errorf("scanning case hash: %w", err)
		}
		hashes[sourceFile] = sourceHash
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating case hashes: %w", err)
	}

	return hashes, nil
}

func (c *Client) RemoveStaleCases(ctx context.Context, currentSourceFiles []string) (int64, error) {
	if len(currentSourceFiles) == 0 {
		return 0, nil
	}

	tag, err := c.pool.Exec(ctx, `
DELETE FROM cases
WHERE source_file <> ''
  AND NOT (source_file = ANY($1))
`, currentSourceFiles)
	if err != nil {
		return 0, fmt.Errorf("removing stale cases: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (c *Client) ListCases(ctx context.Context) ([]store.CaseSummary, error) {
	rows, err := c.pool.Query(ctx, `
SELECT id, title, source_file, time_limit, node_count, max_score
FROM cases
ORDER BY title, id
`)
	if err != nil {
		return nil, fmt.Errorf("listing cases: %w", err)
	}
	defer rows.Close()

	cases := make([]store.CaseSummary, 0)
	for rows.Next() {
		var s store.CaseSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.SourceFile, &s.TimeLimit, &s.NodeCount, &s.MaxScore); err != nil {
			return nil, fmt.Errorf("scanning case: %w", err)
		}
		cases = append(cases, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating case rows: %w", err)
	}

	return cases, nil
}

// GetCase returns nil when no case has the id.
func (c *Client) GetCase(ctx context.Context, id string) (*store.Case, error) {
	var out store.Case
	err := c.pool.QueryRow(ctx, `
SELECT id, title, source_file, source_hash, time_limit, node_count, edge_count, max_score, document, last_ingested
FROM cases
WHERE id = $1
`, id).Scan(
		&out.ID,
		&out.Title,
		&out.SourceFile,
		&out.SourceHash,
		&out.TimeLimit,
		&out.NodeCount,
		&out.EdgeCount,
		&out.MaxScore,
		&out.Document,
		&out.IngestedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting case: %w", err)
	}
	return &out, nil
}
