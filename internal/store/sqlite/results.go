package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"casefile/internal/store"
)

// recordLayout is fixed width so recorded_at sorts as text.
const recordLayout = "2006-01-02T15:04:05.000000000Z"

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

	query := `
	INSERT INTO results (session_id, case_id, outcome, score, time_spent_seconds, objective_scores, recorded_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (session_id) DO UPDATE SET
		case_id = excluded.case_id,
		outcome = excluded.outcome,
		score = excluded.score,
		time_spent_seconds = excluded.time_spent_seconds,
		objective_scores = excluded.objective_scores,
		recorded_at = excluded.recorded_at
	`

	_, err = c.db.ExecContext(ctx, query,
		r.SessionID,
		r.CaseID,
		r.Outcome,
		r.Score,
		r.TimeSpentSeconds,
		string(scoresJSON),
		recordedAt.UTC().Format(recordLayout),
	)
	if err != nil {
		return fmt.Errorf("recording result: %w", err)
	}
	return nil
}

func (c *Client) ListResults(ctx context.Context, filter store.ResultFilter) ([]store.Result, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}

	query := `
	SELECT session_id, case_id, outcome, score, time_spent_seconds, objective_scores, recorded_at
	FROM results
	WHERE (? = '' OR case_id = ?)
	ORDER BY recorded_at DESC, id DESC
	LIMIT ?
	`

	rows, err := c.db.QueryContext(ctx, query, filter.CaseID, filter.CaseID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}
	defer rows.Close()

	results := make([]store.Result, 0)
	for rows.Next() {
		var (
			r          store.Result
			scores     string
			recordedAt string
		)
		if err := rows.Scan(&r.SessionID, &r.CaseID, &r.Outcome, &r.Score, &r.TimeSpentSeconds, &scores, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		if err := json.Unmarshal([]byte(scores), &r.ObjectiveScores); err != nil {
			return nil, fmt.Errorf("unmarshaling objective scores: %w", err)
		}
		if r.ObjectiveScores == nil {
			r.ObjectiveScores = map[string]int{}
		}
		r.RecordedAt, err = time.Parse(recordLayout, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing record time: %w", err)
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating result rows: %w", err)
	}

	return results, nil
}
