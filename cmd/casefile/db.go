package main

import (
	"context"
	"fmt"

	"casefile/internal/config"
	"casefile/internal/store"
	"casefile/internal/store/postgres"
	"casefile/internal/store/sqlite"
)

// openDB picks the store back end from the DSN scheme.
func openDB(ctx context.Context, cfg *config.ProjectConfig) (store.Store, error) {
	dsn := cfg.Database.DSN
	switch {
	case dsn == "":
		return nil, fmt.Errorf("database.dsn is not configured")
	case config.IsSQLiteDSN(dsn):
		client, err := sqlite.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.IsPostgresDSN(dsn):
		client, err := postgres.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported database dsn: %s", dsn)
	}
}

// openSchemaDB opens the store and makes sure its tables exist.
func openSchemaDB(ctx context.Context, cfg *config.ProjectConfig) (store.Store, error) {
	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}
