package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/paperdex/paperdex/internal/logging"
	"github.com/paperdex/paperdex/internal/mcp"
)

func newServeCmd() *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol server over stdio.

Configure your AI assistant to launch this command; the knowledge base
tools (add_knowledge_topic, consult_physics_expert, verify_source,
get_knowledge_stats) become available to it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), transport)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport to use (stdio)")

	return cmd
}

func runServe(ctx context.Context, transport string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// stdout/stderr carry the protocol; logs go to file only
	logger, cleanup, err := logging.Setup(logging.ServerConfig(cfg.Server.LogLevel))
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer cleanup()
	slog.SetDefault(logger)

	knowledge, err := buildKnowledgeBase(ctx, cfg, logger)
	if err != nil {
		logger.Error("knowledge base initialization failed",
			slog.String("error", err.Error()))
		return err
	}
	defer func() {
		if err := knowledge.Close(); err != nil {
			logger.Warn("knowledge base close failed",
				slog.String("error", err.Error()))
		}
	}()

	server, err := mcp.NewServer(knowledge, logger)
	if err != nil {
		return err
	}

	return server.Serve(ctx, transport)
}
