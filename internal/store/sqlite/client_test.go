package sqlite

import (
	"context"
	"strings"
	"testing"
	"time"

	"casefile/internal/store"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	client, err := New(ctx, "sqlite://:memory:")
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close(ctx) })
	if err := client.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return client
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	client := testClient(t)
	if err := client.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema (idempotent): %v", err)
	}
}

func TestCases(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	inputs := []store.CaseInput{
		{ID: "harbor", Title: "Harbor Lights", SourceFile: "cases/harbor.yaml", SourceHash: "h1", NodeCount: 12, MaxScore: 80, Document: []byte("id: harbor")},
		{ID: "attic", Title: "The Attic", SourceFile: "cases/attic.yaml", SourceHash: "a1", TimeLimit: 600, Document: []byte("id: attic")},
	}
	for _, in := range inputs {
		if err := client.UpsertCase(ctx, in); err != nil {
			t.Fatalf("upsert %s: %v", in.ID, err)
		}
	}

	t.Run("list ordered by title", func(t *testing.T) {
		cases, err := client.ListCases(ctx)
		if err != nil {
			t.Fatalf("list cases: %v", err)
		}
		if len(cases) != 2 || cases[0].ID != "harbor" || cases[1].ID != "attic" {
			t.Fatalf("unexpected cases: %+v", cases)
		}
	})

	t.Run("get", func(t *testing.T) {
		got, err := client.GetCase(ctx, "attic")
		if err != nil {
			t.Fatalf("get case: %v", err)
		}
		if got == nil || got.TimeLimit != 600 || string(got.Document) != "id: attic" {
			t.Fatalf("unexpected case: %+v", got)
		}
		if got.IngestedAt.IsZero() {
			t.Fatalf("expected ingest time")
		}
	})

	t.Run("missing", func(t *testing.T) {
		got, err := client.GetCase(ctx, "nope")
		if err != nil || got != nil {
			t.Fatalf("expected nil case, got %+v, %v", got, err)
		}
	})

	t.Run("upsert replaces", func(t *testing.T) {
		in := inputs[0]
		in.SourceHash = "h2"
		in.Title = "Harbor Lights (revised)"
		if err := client.UpsertCase(ctx, in); err != nil {
			t.Fatalf("upsert: %v", err)
		}
		hashes, err := client.GetCaseHashes(ctx)
		if err != nil {
			t.Fatalf("hashes: %v", err)
		}
		if hashes["cases/harbor.yaml"] != "h2" || hashes["cases/attic.yaml"] != "a1" {
			t.Fatalf("unexpected hashes: %v", hashes)
		}
	})

	t.Run("remove stale", func(t *testing.T) {
		removed, err := client.RemoveStaleCases(ctx, []string{"cases/attic.yaml"})
		if err != nil {
			t.Fatalf("remove stale: %v", err)
		}
		if removed != 1 {
			t.Fatalf("expected 1 removed, got %d", removed)
		}
		if got, _ := client.GetCase(ctx, "harbor"); got != nil {
			t.Fatalf("expected harbor removed")
		}
	})

	t.Run("remove stale with no files is a no-op", func(t *testing.T) {
		removed, err := client.RemoveStaleCases(ctx, nil)
		if err != nil || removed != 0 {
			t.Fatalf("expected no-op, got %d, %v", removed, err)
		}
	})
}

func TestResults(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	records := []store.Result{
		{SessionID: "s1", CaseID: "harbor", Outcome: "success", Score: 70, TimeSpentSeconds: 300, ObjectiveScores: map[string]int{"n1": 50, "n2": 20}, RecordedAt: base},
		{SessionID: "s2", CaseID: "harbor", Outcome: "timeout", Score: 10, TimeSpentSeconds: 600, RecordedAt: base.Add(time.Minute)},
		{SessionID: "s3", CaseID: "attic", Outcome: "failure", Score: 0, TimeSpentSeconds: 42, RecordedAt: base.Add(2 * time.Minute)},
	}
	for _, r := range records {
		if err := client.RecordResult(ctx, r); err != nil {
			t.Fatalf("record %s: %v", r.SessionID, err)
		}
	}

	t.Run("newest first", func(t *testing.T) {
		got, err := client.ListResults(ctx, store.ResultFilter{})
		if err != nil {
			t.Fatalf("list results: %v", err)
		}
		if len(got) != 3 || got[0].SessionID != "s3" || got[2].SessionID != "s1" {
			t.Fatalf("unexpected order: %+v", got)
		}
		if got[2].ObjectiveScores["n1"] != 50 || !got[2].RecordedAt.Equal(base) {
			t.Fatalf("unexpected round trip: %+v", got[2])
		}
		if got[1].ObjectiveScores == nil {
			t.Fatalf("expected empty objective map")
		}
	})

	t.Run("filter and limit", func(t *testing.T) {
		got, err := client.ListResults(ctx, store.ResultFilter{CaseID: "harbor", Limit: 1})
		if err != nil {
			t.Fatalf("list results: %v", err)
		}
		if len(got) != 1 || got[0].SessionID != "s2" {
			t.Fatalf("unexpected results: %+v", got)
		}
	})

	t.Run("same session replaces", func(t *testing.T) {
		again := records[0]
		again.Score = 75
		if err := client.RecordResult(ctx, again); err != nil {
			t.Fatalf("record: %v", err)
		}
		got, err := client.ListResults(ctx, store.ResultFilter{CaseID: "harbor"})
		if err != nil {
			t.Fatalf("list results: %v", err)
		}
		if len(got) != 2 || got[1].Score != 75 {
			t.Fatalf("unexpected results: %+v", got)
		}
	})
}

func TestDriverDSN(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "memory", input: "sqlite://:memory:", want: ":memory:"},
		{name: "absolute", input: "sqlite:///var/lib/casefile.db", want: "/var/lib/casefile.db"},
		{name: "relative", input: "sqlite://casefile.db", want: "./casefile.db"},
		{name: "dot relative", input: "sqlite://./data/casefile.db", want: "./data/casefile.db"},
		{name: "query", input: "sqlite://casefile.db?_pragma=busy_timeout(5000)", want: "./casefile.db?_pragma=busy_timeout(5000)"},
		{name: "parent relative", input: "sqlite://../shared/casefile.db", want: "../shared/casefile.db"},
		{name: "escaped", input: "sqlite://my%20cases.db", want: "./my cases.db"},
		{name: "empty path", input: "sqlite://", wantErr: true},
		{name: "wrong scheme", input: "postgres://localhost/db", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := driverDSN(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("driverDSN(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestWithPragmas(t *testing.T) {
	if got := withPragmas(":memory:"); got != ":memory:" {
		t.Fatalf("memory DSN should be untouched, got %q", got)
	}
	want := "./casefile.db?_pragma=busy_timeout(30000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	if got := withPragmas("./casefile.db"); got != want {
		t.Fatalf("withPragmas = %q, want %q", got, want)
	}
	if got := withPragmas("./casefile.db?cache=shared"); !strings.HasPrefix(got, "./casefile.db?cache=shared&_pragma=") {
		t.Fatalf("expected pragmas appended to existing query, got %q", got)
	}
}
