package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"casefile/internal/config"
	"casefile/internal/ingest"
	"casefile/internal/story"
	"casefile/internal/validate"
)

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [files...]",
		Short: "Check case files for authoring mistakes",
		Long:  "Check the given case files, or every case under the configured paths when none are given.",
		RunE:  runValidate,
	}
	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	files := args
	if len(files) == 0 {
		cfg, err := config.LoadProjectConfig(configPath)
		if err != nil {
			return err
		}
		files, err = ingest.CaseFiles(cfg)
		if err != nil {
			return fmt.Errorf("walking case files: %w", err)
		}
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stdout, "No case files found.")
		return nil
	}

	failed := false
	for i, path := range files {
		if i > 0 {
			fmt.Fprintln(os.Stdout, "")
		}
		g, err := story.LoadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stdout, "%s:\n  - %v\n", path, err)
			failed = true
			continue
		}
		if printReport(os.Stdout, path, validate.Run(g)) {
			failed = true
		}
	}

	if failed {
		return fmt.Errorf("validation found errors")
	}
	return nil
}

// printReport writes one case's issues grouped by severity and reports
// whether any of them were errors.
func printReport(out io.Writer, path string, report *validate.Report) bool {
	var errorIssues []validate.Issue
	var warnIssues []validate.Issue
	for _, issue := range report.Issues {
		switch issue.Severity {
		case validate.SeverityError:
			errorIssues = append(errorIssues, issue)
		case validate.SeverityWarn:
			warnIssues = append(warnIssues, issue)
		}
	}

	fmt.Fprintf(out, "%s (%s):\n", path, report.Case)
	if len(errorIssues) == 0 && len(warnIssues) == 0 {
		fmt.Fprintln(out, "  No issues found.")
		return false
	}
	if len(errorIssues) > 0 {
		fmt.Fprintf(out, "  Errors (%d):\n", len(errorIssues))
		printIssues(out, errorIssues)
	}
	if len(warnIssues) > 0 {
		fmt.Fprintf(out, "  Warnings (%d):\n", len(warnIssues))
		printIssues(out, warnIssues)
	}
	return len(errorIssues) > 0
}

func printIssues(out io.Writer, issues []validate.Issue) {
	for _, issue := range issues {
		location := issue.Node
		if location == "" {
			location = "case"
		}
		fmt.Fprintf(out, "    - %s: %s (%s)\n", location, issue.Message, issue.Code)
	}
}
