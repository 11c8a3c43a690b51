package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"casefile/internal/store"
)

// RecordResult stores a session result. Recording the same session again
// replaces the earlier row.
func (c *Client) RecordResult(ctx context.Context, r store.Result) error {
	scoresJSON, err := json.Marshal(r.ObjectiveScores)
	if err != nil {
		return fmt.Errorf("marshaling objective scores: %w", err)
	}

	recordedAt := r.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}

	_, err = c.pool.Exec(ctx, `
INSERT INTO results (session_id, case_id, outcome, score, time_spent_seconds, objective_scores, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (session_id) DO UPDATE SET
    case_id = EXCLUDED.case_id,
    outcome = EXCLUDED.outcome,
    score = EXCLUDED.score,
    time_spent_seconds = EXCLUDED.time_spent_seconds,
    objective_scores = EXCLUDED.objective_scores,
    recorded_at = EXCLUDED.recorded_at
`,
		r.SessionID,
		r.CaseID,
		r.Outcome,
		r.Score,
		r.TimeSpentSeconds,
		scoresJSON,
		recordedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording result: %w", err)
	}
	return nil
}

func (c *Client) ListResults(ctx context.Context, filter store.ResultFilter) ([]store.Result, error) {
	var limit any
	if filter.Limit > 0 {
		limit = filter.Limit
	}

	rows, err := c.pool.Query(ctx, `
SELECT session_id, case_id, outcome, score, time_spent_seconds, objective_scores, recorded_at
FROM results
WHERE ($1 = '' OR case_id = $1)
ORDER BY recorded_at DESC, id DESC
LIMIT $2
`, filter.CaseID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}
	defer rows.Close()

	results := make([]store.Result, 0)
	for rows.Next() {
		var (
			r      store.Result
			scores []byte
		)
		if err := rows.Scan(&r.SessionID, &r.CaseID, &r.Outcome, &r.Score, &r.TimeSpentSeconds, &scores, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		if err := json.Unmarshal(scores, &r.ObjectiveScores); err != nil {
			return nil, fmt.Errorf("unmarshaling objective scores: %w", err)
		}
		if r.ObjectiveScores == nil {
			r.ObjectiveScores = map[string]int{}
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating result rows: %w", err)
	}

	return results, nil
}
