package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"casefile/internal/config"
	"casefile/internal/ingest"
)

var ingestFull bool

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Synchronise the case catalog with case files on disk",
		Args:  cobra.NoArgs,
		RunE:  runIngest,
	}
	cmd.Flags().BoolVar(&ingestFull, "full", false, "Force full re-ingestion (ignore incremental hashes)")
	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	result, err := ingest.Run(ctx, cfg, db, ingest.Options{Full: ingestFull, Logger: cfg.Logger(os.Stderr)})
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "Ingestion complete.")
	fmt.Fprintf(os.Stdout, "  Cases upserted: %d\n", result.CasesUpserted)
	fmt.Fprintf(os.Stdout, "  Cases removed:  %d\n", result.CasesRemoved)
	fmt.Fprintf(os.Stdout, "  Files skipped:  %d\n", result.FilesSkipped)
	if result.Warnings > 0 {
		fmt.Fprintf(os.Stdout, "  With problems:  %d (run casefile validate)\n", result.Warnings)
	}

	if len(result.Errors) > 0 {
		fmt.Fprintf(os.Stdout, "\nErrors (%d):\n", len(result.Errors))
		for _, item := range result.Errors {
			fmt.Fprintf(os.Stdout, "  - %v\n", item)
		}
		return fmt.Errorf("ingestion completed with errors")
	}

	return nil
}
