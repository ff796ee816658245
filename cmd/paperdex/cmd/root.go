// Package cmd provides the CLI commands for paperdex.
package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/paperdex/paperdex/internal/logging"
	"github.com/paperdex/paperdex/pkg/version"
)

var (
	configPath     string
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the paperdex CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paperdex",
		Short: "Research-paper knowledge base with MCP tools",
		Long: `Paperdex builds a local, persistent knowledge base from arXiv papers
and their linked GitHub repositories, and answers questions against it
with citations.

Run 'paperdex serve' to expose the knowledge base to AI assistants over
the Model Context Protocol, or use 'ingest' and 'ask' directly.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("paperdex version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ~/.paperdex/config.yaml)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.paperdex/logs/")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRun = stopLogging

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newAskCmd())
	cmd.AddCommand(newResolveCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging enables debug file logging when --debug is set.
func startLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}

	cfg := logging.DefaultConfig()
	cfg.Level = "debug"

	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return err
	}

	slog.SetDefault(logger)
	loggingCleanup = cleanup
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}
