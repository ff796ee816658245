package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/paperdex/paperdex/internal/output"
)

func newIngestCmd() *cobra.Command {
	var maxPapers int

	cmd := &cobra.Command{
		Use:   "ingest <topic>",
		Short: "Ingest arXiv papers on a topic",
		Long: `Search arXiv for papers matching the topic, extract and chunk their
text, and store embedded chunks in the local knowledge base. Papers
linking a GitHub repository also contribute readme and dependency
context.

Re-running the same topic is safe: unchanged content overwrites itself.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), strings.Join(args, " "), maxPapers)
		},
	}

	cmd.Flags().IntVar(&maxPapers, "max-papers", 0, "Maximum papers to ingest (default from config)")

	return cmd
}

func runIngest(ctx context.Context, topic string, maxPapers int) error {
	out := output.New(os.Stdout)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if maxPapers <= 0 {
		maxPapers = cfg.Discovery.MaxDocuments
	}

	knowledge, err := buildKnowledgeBase(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer func() { _ = knowledge.Close() }()

	out.Statusf("🔍", "Searching arXiv for %q (up to %d papers)...", topic, maxPapers)

	stored := knowledge.AddTopic(ctx, topic, maxPapers)
	if stored == 0 {
		out.Warning("No entries stored. Check the topic phrasing or network access.")
		return nil
	}

	stats, err := knowledge.Stats(ctx)
	if err != nil {
		return err
	}

	out.Successf("Stored %d knowledge chunks", stored)
	out.Plainf("Total chunks in database: %d", stats.TotalEntries)
	return nil
}
