package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where commands look for the project config.
const DefaultPath = "casefile.yaml"

type ProjectConfig struct {
	Project  string         `yaml:"project"`
	Version  int            `yaml:"version"`
	Cases    CasesConfig    `yaml:"cases"`
	Database DatabaseConfig `yaml:"database"`
	Session  SessionConfig  `yaml:"session"`
	Log      LogConfig      `yaml:"log"`
}

type CasesConfig struct {
	Paths   []string `yaml:"paths"`
	Exclude []string `yaml:"exclude"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type SessionConfig struct {
	// TimeLimit in seconds; 0 disables the countdown unless a case sets one.
	TimeLimit int `yaml:"time_limit"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if len(cfg.Cases.Paths) == 0 {
		return fmt.Errorf("at least one case path is required")
	}
	for i, path := range cfg.Cases.Paths {
		if strings.TrimSpace(path) == "" {
			return fmt.Errorf("case path %d is empty", i)
		}
	}
	if dsn := strings.TrimSpace(cfg.Database.DSN); dsn != "" && !IsSQLiteDSN(dsn) && !IsPostgresDSN(dsn) {
		return fmt.Errorf("unsupported database dsn scheme: %s", dsn)
	}
	if cfg.Session.TimeLimit < 0 {
		return fmt.Errorf("session time_limit must not be negative")
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %s", cfg.Log.Level)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format: %s", cfg.Log.Format)
	}

	return nil
}

func IsSQLiteDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "sqlite://")
}

func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Template renders a starter config for a new project.
func Template(project string) string {
	return fmt.Sprintf(`project: %s
version: 1

cases:
  paths:
    - ./cases/
  exclude:
    - ./cases/drafts/

database:
  dsn: sqlite://casefile.db

session:
  time_limit: 0

log:
  level: info
  format: text
`, project)
}
