package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"casefile/internal/config"
	"casefile/internal/story"
)

func casesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cases",
		Short: "Inspect the ingested case catalog",
	}
	cmd.AddCommand(casesListCmd())
	cmd.AddCommand(casesShowCmd())
	return cmd
}

func casesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List ingested cases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCasesList()
		},
	}
}

func runCasesList() error {
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

	cases, err := db.ListCases(ctx)
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		fmt.Fprintln(os.Stdout, "No cases found.")
		return nil
	}

	for _, c := range cases {
		fmt.Fprintf(os.Stdout, "%s  %s (%d nodes, max score %d) [%s]\n", c.ID, c.Title, c.NodeCount, c.MaxScore, c.SourceFile)
	}
	return nil
}

func casesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <case-id>",
		Short: "Display a case and its node types",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCasesShow(args[0])
		},
	}
}

func runCasesShow(id string) error {
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

	c, err := db.GetCase(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		fmt.Fprintf(os.Stdout, "No case found for %q.\n", id)
		return nil
	}

	fmt.Fprintf(os.Stdout, "ID: %s\n", c.ID)
	fmt.Fprintf(os.Stdout, "Title: %s\n", c.Title)
	fmt.Fprintf(os.Stdout, "Source: %s\n", c.SourceFile)
	fmt.Fprintf(os.Stdout, "Ingested: %s\n", c.IngestedAt.Local().Format("2006-01-02 15:04"))
	if c.TimeLimit > 0 {
		fmt.Fprintf(os.Stdout, "Time limit: %s\n", formatSeconds(c.TimeLimit))
	}
	fmt.Fprintf(os.Stdout, "Nodes: %d  Edges: %d  Max score: %d\n", c.NodeCount, c.EdgeCount, c.MaxScore)

	g, err := story.Parse(c.Document)
	if err != nil {
		return fmt.Errorf("load case %s: %w", c.ID, err)
	}
	counts := make(map[story.NodeType]int)
	var order []story.NodeType
	for _, node := range g.Nodes {
		if counts[node.Type] == 0 {
			order = append(order, node.Type)
		}
		counts[node.Type]++
	}
	fmt.Fprintln(os.Stdout, "Node types:")
	for _, t := range order {
		fmt.Fprintf(os.Stdout, "  %s: %d\n", t, counts[t])
	}
	return nil
}
