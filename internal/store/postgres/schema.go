package postgres

import (
	"context"
	"fmt"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	// PostgreSQL runs a multi-statement Exec in one implicit transaction.
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
    document      BYTEA NOT NULL,
    last_ingested TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS results (
    id                 BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    session_id         TEXT NOT NULL,
    case_id            TEXT NOT NULL,
    outcome            TEXT NOT NULL DEFAULT '',
    score              INTEGER NOT NULL DEFAULT 0,
    time_spent_seconds INTEGER NOT NULL DEFAULT 0,
    objective_scores   JSONB NOT NULL DEFAULT '{}',
    recorded_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
    CONSTRAINT uq_results_session UNIQUE (session_id)
);

CREATE INDEX IF NOT EXISTS idx_cases_source_file ON cases (source_file);
CREATE INDEX IF NOT EXISTS idx_results_case ON results (case_id);
CREATE INDEX IF NOT EXISTS idx_results_recorded ON results (recorded_at);
`
	_, err := c.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
