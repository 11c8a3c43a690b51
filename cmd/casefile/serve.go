package main

import (
	"context"
	"os"
	"os/signal"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"casefile/internal/config"
	"casefile/internal/mcp"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return err
	}
	// stdout carries the protocol, so logs go to stderr.
	logger := cfg.Logger(os.Stderr)

	db, err := openSchemaDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(context.Background())

	server := mcp.NewServer(db, mcp.Options{
		Version:   version,
		Logger:    logger,
		TimeLimit: cfg.Session.TimeLimit,
	})
	logger.Info("serving over stdio", "project", cfg.Project)
	return server.Run(ctx, &sdk.StdioTransport{})
}
