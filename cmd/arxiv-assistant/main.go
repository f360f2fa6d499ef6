// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the arxiv-assistant CLI. Without
// --query it starts an interactive session; with --query it runs the
// requested commands once and exits.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-assistant/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

var rootCmd = &cobra.Command{
	Use:   "arxiv-assistant",
	Short: "Search arXiv, download papers, and analyze them with AI",
	Long: `arxiv-assistant searches arXiv, downloads paper PDFs, and sends them to
an AI model (Gemini or Claude) for questions, summaries, structured
extraction, and comparisons. It also finds related work through Google
Scholar and formats citations.

Run without --query to start an interactive session; type 'help' there for
the command reference. With --query the remaining flags are run as a batch
and the process exits non-zero if any of them fails.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := secrets.LoadDotEnv(".env")
		if err != nil {
			return err
		}
		if len(loaded) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded environment from %v\n", loaded)
		}

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
	RunE: runRoot,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./arxiv-assistant.yaml or ~/.config/arxiv-assistant/config.yaml)")
	addSettingFlags(rootCmd)
	addBatchFlags(rootCmd)
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(cfg, os.Stdout, os.Stderr)
	if err != nil {
		return err
	}

	opts := batchOptionsFromFlags(cmd)
	if opts.Query == "" {
		if opts.any() {
			return fmt.Errorf("--query is required with batch flags")
		}
		return runREPL(context.Background(), a)
	}
	return runBatch(context.Background(), a, opts)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
