package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"casefile/internal/config"
	"casefile/internal/store"
)

func resultsCmd() *cobra.Command {
	var caseID string
	var limit int
	cmd := &cobra.Command{
		Use:   "results",
		Short: "List recorded play results, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResults(caseID, limit)
		},
	}
	cmd.Flags().StringVar(&caseID, "case", "", "Only show results for this case id")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of results (0 for all)")
	return cmd
}

func runResults(caseID string, limit int) error {
	ctx := context.Background()

	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return err
	}

	db, err := openSchemaDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	results, err := db.ListResults(ctx, store.ResultFilter{CaseID: caseID, Limit: limit})
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(os.Stdout, "No results recorded.")
		return nil
	}

	for _, r := range results {
		fmt.Fprintf(os.Stdout, "%s  %-20s %-9s score %4d  %s  [%s]\n",
			r.RecordedAt.Local().Format("2006-01-02 15:04"),
			r.CaseID,
			r.Outcome,
			r.Score,
			formatSeconds(r.TimeSpentSeconds),
			r.SessionID,
		)
	}
	return nil
}

func formatSeconds(total int) string {
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
