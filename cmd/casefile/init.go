package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"casefile/internal/config"
)

const exampleCase = `id: example
title: The Missing Ledger
nodes:
  - id: office
    type: story
    data:
      label: The office
      text: The ledger is gone and the safe is open.
      isStart: true
  - id: receipt
    type: evidence
    data:
      label: Torn receipt
      text: A receipt from the bakery across the street, signed by the clerk.
      score: 10
  - id: accuse
    type: identify
    data:
      label: Name the thief
      culpritName: Clerk
      score: 50
      penalty: 20
  - id: clerk
    type: suspect
    data: { name: Clerk }
  - id: baker
    type: suspect
    data: { name: Baker }
  - id: solved
    type: story
    data: { label: Case closed }
  - id: unsolved
    type: story
    data: { label: The thief got away }
edges:
  - { source: office, target: receipt }
  - { source: office, target: accuse, label: Torn receipt }
  - { source: accuse, target: solved, sourceHandle: success }
  - { source: accuse, target: unsolved, sourceHandle: failure }
`

func initCmd() *cobra.Command {
	var projectName string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new casefile project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			return runInit(projectName)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	return cmd
}

func runInit(projectName string) error {
	casePath := filepath.Join("cases", "example.yaml")
	for _, path := range []string{configPath, casePath} {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}

	if err := os.WriteFile(configPath, []byte(config.Template(projectName)), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	if err := os.MkdirAll(filepath.Dir(casePath), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(casePath), err)
	}
	if err := os.WriteFile(casePath, []byte(exampleCase), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", casePath, err)
	}

	fmt.Fprintf(os.Stdout, "Created %s and %s\n", configPath, casePath)
	return nil
}
