package sqlite

import (
	"context"
	"fmt"
	"strings"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS cases (
		id            TEXT PRIMARY KEY,
		title         TEXT NOT NULL DEFAULT '',
		source_file   TEXT NOT NULL,
		source_hash   TEXT NOT NULL,
		time_limit    INTEGER NOT NULL DEFAULT 0,
		node_count    INTEGER NOT NULL DEFAULT 0,
		edge_count    INTEGER NOT NULL DEFAULT 0,
		max_score     INTEGER NOT NULL DEFAULT 0,
		document      BLOB NOT NULL,
		last_ingested TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS results (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id         TEXT NOT NULL,
		case_id            TEXT NOT NULL,
		outcome            TEXT NOT NULL DEFAULT '',
		score              INTEGER NOT NULL DEFAULT 0,
		time_spent_seconds INTEGER NOT NULL DEFAULT 0,
		objective_scores   TEXT NOT NULL DEFAULT '{}',
		recorded_at        TEXT NOT NULL,
		CONSTRAINT uq_results_session UNIQUE (session_id)
	);

	CREATE INDEX IF NOT EXISTS idx_cases_source_file ON cases (source_file);
	CREATE INDEX IF NOT EXISTS idx_results_case ON results (case_id);
	CREATE INDEX IF NOT EXISTS idx_results_recorded ON results (recorded_at);
	`

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	statements := splitStatements(ddl)
	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}

	return nil
}

func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(stripped, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}

	if current.Len() > 0 {
		statements = append(statements, current.String())
	}

	return statements
}
