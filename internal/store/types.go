package store

import "time"

type CaseInput struct {
	ID         string
	Title      string
	SourceFile string
	SourceHash string
	TimeLimit  int
	NodeCount  int
	EdgeCount  int
	MaxScore   int
	Document   []byte
}

type Case struct {
	CaseInput
	IngestedAt time.Time
}

type CaseSummary struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	SourceFile string `json:"source_file"`
	TimeLimit  int    `json:"time_limit"`
	NodeCount  int    `json:"node_count"`
	MaxScore   int    `json:"max_score"`
}

// OutcomeAbandoned is recorded for sessions that ended before the case
// was resolved.
const OutcomeAbandoned = "abandoned"

// Result is the persisted summary of one finished play session.
type Result struct {
	SessionID        string         `json:"session_id"`
	CaseID           string         `json:"case_id"`
	Outcome          string         `json:"outcome"`
	Score            int            `json:"score"`
	TimeSpentSeconds int            `json:"time_spent_seconds"`
	ObjectiveScores  map[string]int `json:"objective_scores"`
	RecordedAt       time.Time      `json:"recorded_at"`
}

// ResultFilter narrows ListResults. An empty CaseID matches every case and a
// non-positive Limit returns every row.
type ResultFilter struct {
	CaseID string
	Limit  int
}
