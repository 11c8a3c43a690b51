package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type envOverrides struct {
	DatabaseDSN string `env:"CASEFILE_DATABASE_DSN"`
	LogLevel    string `env:"CASEFILE_LOG_LEVEL"`
	LogFormat   string `env:"CASEFILE_LOG_FORMAT"`
	TimeLimit   *int   `env:"CASEFILE_TIME_LIMIT"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func applyEnv(cfg *ProjectConfig) error {
	var o envOverrides
	if err := ParseEnv(&o); err != nil {
		return err
	}
	if o.DatabaseDSN != "" {
		cfg.Database.DSN = o.DatabaseDSN
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.Log.Format = o.LogFormat
	}
	if o.TimeLimit != nil {
		cfg.Session.TimeLimit = *o.TimeLimit
	}
	return nil
}
