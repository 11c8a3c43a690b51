package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"casefile/internal/store"
)

func (c *Client) UpsertCase(ctx context.Context, in store.CaseInput) error {
	query := `
	INSERT INTO cases (id, title, source_file, source_hash, time_limit, node_count, edge_count, max_score, document, last_ingested)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		title = excluded.title,
		source_file = excluded.source_file,
		source_hash = excluded.source_hash,
		time_limit = excluded.time_limit,
		node_count = excluded.node_count,
		edge_count = excluded.edge_count,
		max_score = excluded.max_score,
		document = excluded.document,
		last_ingested = excluded.last_ingested
	`

	_, err := c.db.ExecContext(ctx, query,
		in.ID,
		in.Title,
		in.SourceFile,
		in.SourceHash,
		in.TimeLimit,
		in.NodeCount,
		in.EdgeCount,
		in.MaxScore,
		in.Document,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting case: %w", err)
	}
	return nil
}

func (c *Client) GetCaseHashes(ctx context.Context) (map[string]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT source_file, source_hash FROM cases WHERE source_file <> ''`)
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

	placeholders := make([]string, len(currentSourceFiles))
	args := make([]any, len(currentSourceFiles))
	for i, f := range currentSourceFiles {
		placeholders[i] = "?"
		args[i] = f
	}

	query := fmt.Sprintf(`
	DELETE FROM cases
	WHERE source_file <> ''
	  AND source_file NOT IN (%s)
	`, strings.Join(placeholders, ", "))

	result, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("removing stale cases: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	return affected, nil
}

func (c *Client) ListCases(ctx context.Context) ([]store.CaseSummary, error) {
	query := `
	SELECT id, title, source_file, time_limit, node_count, max_score
	FROM cases
	ORDER BY title, id
	`

	rows, err := c.db.QueryContext(ctx, query)
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
	query := `
	SELECT id, title, source_file, source_hash, time_limit, node_count, edge_count, max_score, document, last_ingested
	FROM cases
	WHERE id = ?
	`

	var (
		out      store.Case
		ingested string
	)
	err := c.db.QueryRowContext(ctx, query, id).Scan(
		&out.ID,
		&out.Title,
		&out.SourceFile,
		&out.SourceHash,
		&out.TimeLimit,
		&out.NodeCount,
		&out.EdgeCount,
		&out.MaxScore,
		&out.Document,
		&ingested,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting case: %w", err)
	}

	out.IngestedAt, err = time.Parse(time.RFC3339, ingested)
	if err != nil {
		return nil, fmt.Errorf("parsing ingest time: %w", err)
	}
	return &out, nil
}
