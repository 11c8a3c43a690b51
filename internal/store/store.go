package store

import "context"

// Store is the case catalog and play-result log.
type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	UpsertCase(ctx context.Context, c CaseInput) error
	GetCaseHashes(ctx context.Context) (map[string]string, error)
	RemoveStaleCases(ctx context.Context, currentSourceFiles []string) (int64, error)
	ListCases(ctx context.Context) ([]CaseSummary, error)
	GetCase(ctx context.Context, id string) (*Case, error)

	RecordResult(ctx context.Context, r Result) error
	ListResults(ctx context.Context, filter ResultFilter) ([]Result, error)
}
