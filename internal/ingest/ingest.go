package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"casefile/internal/config"
	"casefile/internal/store"
	"casefile/internal/story"
	"casefile/internal/validate"
)

// Store is the part of the catalog ingest writes to.
type Store interface {
	EnsureSchema(ctx context.Context) error
	GetCaseHashes(ctx context.Context) (map[string]string, error)
	UpsertCase(ctx context.Context, c store.CaseInput) error
	RemoveStaleCases(ctx context.Context, currentSourceFiles []string) (int64, error)
}

type Result struct {
	CasesUpserted int
	CasesRemoved  int
	FilesSkipped  int
	Warnings      int
	Errors        []error
}

type Options struct {
	Full   bool
	Logger *slog.Logger
}

var caseExtensions = map[string]struct{}{".yaml": {}, ".yml": {}, ".json": {}}

func Run(ctx context.Context, cfg *config.ProjectConfig, db Store, options Options) (*Result, error) {
	log := options.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	var existingHashes map[string]string
	if !options.Full {
		var err error
		existingHashes, err = db.GetCaseHashes(ctx)
		if err != nil {
			return nil, fmt.Errorf("get case hashes: %w", err)
		}
	}

	files, err := walkCaseFiles(cfg.Cases.Paths, cfg.Cases.Exclude)
	if err != nil {
		return nil, fmt.Errorf("walking case files: %w", err)
	}

	result := &Result{}
	seen := make(map[string]string)
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("reading %s: %w", path, err))
			continue
		}
		hash := computeHash(data)
		if !options.Full {
			if existing, ok := existingHashes[path]; ok && existing == hash {
				result.FilesSkipped++
				continue
			}
		}

		g, err := story.Parse(data)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("parsing %s: %w", path, err))
			continue
		}
		if strings.TrimSpace(g.ID) == "" {
			g.ID = story.IDFromPath(path)
		}
		if other, dup := seen[g.ID]; dup {
			result.Errors = append(result.Errors, fmt.Errorf("case %s in %s already defined in %s", g.ID, path, other))
			continue
		}
		seen[g.ID] = path

		if report := validate.Run(g); report.HasErrors() {
			result.Warnings++
			log.Warn("case has validation errors", "case", g.ID, "file", path, "errors", report.Count(validate.SeverityError))
		}

		input := store.CaseInput{
			ID:         g.ID,
			Title:      g.Title,
			SourceFile: path,
			SourceHash: hash,
			TimeLimit:  g.TimeLimit,
			NodeCount:  len(g.Nodes),
			EdgeCount:  len(g.Edges),
			MaxScore:   maxScore(g),
			Document:   data,
		}
		if err := db.UpsertCase(ctx, input); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("upserting %s: %w", path, err))
			continue
		}
		result.CasesUpserted++
		log.Debug("case ingested", "case", g.ID, "file", path)
	}

	deleted, err := db.RemoveStaleCases(ctx, files)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("removing stale cases: %w", err))
	}
	result.CasesRemoved = int(deleted)

	return result, nil
}

func maxScore(g *story.Graph) int {
	total := 0
	for _, node := range g.Nodes {
		if node.Data.Score > 0 {
			total += node.Data.Score
		}
	}
	return total
}

// CaseFiles lists the case documents under the configured paths, minus
// excluded directories and files.
func CaseFiles(cfg *config.ProjectConfig) ([]string, error) {
	return walkCaseFiles(cfg.Cases.Paths, cfg.Cases.Exclude)
}

func walkCaseFiles(roots []string, excludes []string) ([]string, error) {
	excluded := make([]string, 0, len(excludes))
	for _, path := range excludes {
		if path == "" {
			continue
		}
		excluded = append(excluded, filepath.Clean(path))
	}

	var files []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && isExcluded(path, excluded) {
				return filepath.SkipDir
			}
			if d.IsDir() {
				return nil
			}
			if _, ok := caseExtensions[strings.ToLower(filepath.Ext(d.Name()))]; !ok {
				return nil
			}
			if isExcluded(path, excluded) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func isExcluded(path string, excludes []string) bool {
	clean := filepath.Clean(path)
	for _, exclude := range excludes {
		if exclude == clean || strings.HasPrefix(clean, exclude+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
