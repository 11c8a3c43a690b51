package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"casefile/internal/config"
	"casefile/internal/store"
)

type mockStore struct {
	cases        []store.CaseInput
	removeCalls  [][]string
	ensureCalled bool
	failUpsert   bool
	hashes       map[string]string
}

func (m *mockStore) EnsureSchema(ctx context.Context) error {
	m.ensureCalled = true
	return nil
}

func (m *mockStore) GetCaseHashes(ctx context.Context) (map[string]string, error) {
	if m.hashes == nil {
		return map[string]string{}, nil
	}
	return m.hashes, nil
}

func (m *mockStore) UpsertCase(ctx context.Context, c store.CaseInput) error {
	if m.failUpsert && c.ID == "harbor" {
		return errors.New("forced error")
	}
	m.cases = append(m.cases, c)
	return nil
}

func (m *mockStore) RemoveStaleCases(ctx context.Context, currentSourceFiles []string) (int64, error) {
	m.removeCalls = append(m.removeCalls, currentSourceFiles)
	return 1, nil
}

func (m *mockStore) caseByID(id string) (store.CaseInput, bool) {
	for _, c := range m.cases {
		if c.ID == id {
			return c, true
		}
	}
	return store.CaseInput{}, false
}

func TestRun_BasicIngestion(t *testing.T) {
	db := &mockStore{}
	result, err := Run(context.Background(), testProjectConfig(t), db, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if !db.ensureCalled {
		t.Fatalf("expected ensure schema")
	}
	if result.CasesUpserted != 2 || len(db.cases) != 2 {
		t.Fatalf("expected 2 cases upserted, got %d", result.CasesUpserted)
	}

	harbor, ok := db.caseByID("harbor")
	if !ok {
		t.Fatalf("expected harbor case")
	}
	if harbor.Title != "Harbor Lights" || harbor.TimeLimit != 900 || harbor.NodeCount != 4 || harbor.EdgeCount != 2 || harbor.MaxScore != 70 {
		t.Fatalf("unexpected harbor row: %+v", harbor)
	}
	if len(harbor.Document) == 0 || harbor.SourceHash != computeHash(harbor.Document) {
		t.Fatalf("expected document and hash")
	}
}

func TestRun_IDFromFileName(t *testing.T) {
	db := &mockStore{}
	if _, err := Run(context.Background(), testProjectConfig(t), db, Options{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	attic, ok := db.caseByID("attic")
	if !ok {
		t.Fatalf("expected attic case from attic.json")
	}
	if attic.Title != "The Attic" {
		t.Fatalf("unexpected title %q", attic.Title)
	}
}

func TestRun_CollectsParseErrors(t *testing.T) {
	result, err := Run(context.Background(), testProjectConfig(t), &mockStore{}, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0].Error(), "broken.yaml") {
		t.Fatalf("expected broken.yaml error, got %v", result.Errors)
	}
}

func TestRun_HonoursExcludesAndExtensions(t *testing.T) {
	db := &mockStore{}
	if _, err := Run(context.Background(), testProjectConfig(t), db, Options{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, ok := db.caseByID("wip"); ok {
		t.Fatalf("expected drafts to be excluded")
	}
	for _, f := range db.removeCalls[0] {
		if strings.HasSuffix(f, ".txt") || strings.Contains(f, "drafts") {
			t.Fatalf("unexpected file in current set: %s", f)
		}
	}
}

func TestRun_ContinuesOnError(t *testing.T) {
	db := &mockStore{failUpsert: true}
	result, err := Run(context.Background(), testProjectConfig(t), db, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected parse and upsert errors, got %v", result.Errors)
	}
	if result.CasesUpserted != 1 {
		t.Fatalf("expected attic to be upserted, got %d", result.CasesUpserted)
	}
}

func TestRun_RemoveStaleCases(t *testing.T) {
	db := &mockStore{}
	result, err := Run(context.Background(), testProjectConfig(t), db, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(db.removeCalls) != 1 {
		t.Fatalf("expected remove stale cases call")
	}
	if len(db.removeCalls[0]) != 3 {
		t.Fatalf("expected 3 current files, got %v", db.removeCalls[0])
	}
	if result.CasesRemoved != 1 {
		t.Fatalf("expected removed count, got %d", result.CasesRemoved)
	}
}

func TestRun_IncrementalSkip(t *testing.T) {
	path := filepath.Join("testdata", "cases", "harbor.yaml")
	db := &mockStore{hashes: map[string]string{path: fileHash(t, path)}}

	result, err := Run(context.Background(), testProjectConfig(t), db, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, ok := db.caseByID("harbor"); ok {
		t.Fatalf("expected harbor to be skipped")
	}
	if result.FilesSkipped != 1 {
		t.Fatalf("expected 1 file skipped, got %d", result.FilesSkipped)
	}
}

func TestRun_FullIngestionOverridesHashes(t *testing.T) {
	path := filepath.Join("testdata", "cases", "harbor.yaml")
	db := &mockStore{hashes: map[string]string{path: fileHash(t, path)}}

	if _, err := Run(context.Background(), testProjectConfig(t), db, Options{Full: true}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, ok := db.caseByID("harbor"); !ok {
		t.Fatalf("expected harbor to be ingested in full mode")
	}
}

func TestRun_DuplicateCaseIDs(t *testing.T) {
	cfg := testProjectConfig(t)
	cfg.Cases.Paths = []string{filepath.Join("testdata", "dupes")}
	db := &mockStore{}

	result, err := Run(context.Background(), cfg, db, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(db.cases) != 1 {
		t.Fatalf("expected one twin case, got %d", len(db.cases))
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0].Error(), "already defined") {
		t.Fatalf("expected duplicate error, got %v", result.Errors)
	}
}

func TestRun_MissingRoot(t *testing.T) {
	cfg := testProjectConfig(t)
	cfg.Cases.Paths = []string{filepath.Join(t.TempDir(), "missing")}
	if _, err := Run(context.Background(), cfg, &mockStore{}, Options{}); err == nil {
		t.Fatalf("expected error")
	}
}

func fileHash(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return computeHash(data)
}

func testProjectConfig(t *testing.T) *config.ProjectConfig {
	t.Helper()
	return &config.ProjectConfig{
		Project: "test",
		Version: 1,
		Cases: config.CasesConfig{
			Paths:   []string{filepath.Join("testdata", "cases")},
			Exclude: []string{filepath.Join("testdata", "cases", "drafts")},
		},
	}
}

func TestCaseFiles(t *testing.T) {
	files, err := CaseFiles(testProjectConfig(t))
	if err != nil {
		t.Fatalf("case files: %v", err)
	}
	want := map[string]bool{
		filepath.Join("testdata", "cases", "attic.json"):  true,
		filepath.Join("testdata", "cases", "broken.yaml"): true,
		filepath.Join("testdata", "cases", "harbor.yaml"): true,
	}
	if len(files) != len(want) {
		t.Fatalf("expected %d files, got %v", len(want), files)
	}
	for _, f := range files {
		if !want[f] {
			t.Fatalf("unexpected file %s", f)
		}
	}
}
