package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/paperdex/paperdex/internal/output"
)

func newAskCmd() *cobra.Command {
	var maxResults int

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the knowledge base a question",
		Long: `Embed the question and return the most relevant stored passages with
their citations (paper title, arXiv ID, page, relevance score).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), strings.Join(args, " "), maxResults)
		},
	}

	cmd.Flags().IntVarP(&maxResults, "results", "n", 0, "Number of passages to return (default from config)")

	return cmd
}

func runAsk(ctx context.Context, question string, maxResults int) error {
	out := output.New(os.Stdout)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if maxResults <= 0 {
		maxResults = cfg.Retrieval.MaxResults
	}

	knowledge, err := buildKnowledgeBase(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer func() { _ = knowledge.Close() }()

	results := knowledge.Ask(ctx, question, maxResults)
	if len(results) == 0 {
		out.Warning("No relevant passages found. Ingest a topic first with 'paperdex ingest'.")
		return nil
	}

	out.Statusf("🔍", "Found %d relevant passages", len(results))
	out.Newline()

	for i, r := range results {
		out.Plainf("[%d] %s", i+1, r.Title)
		out.Plainf("    Paper ID: %s  Page: %d  Relevance: %.3f", r.SourceID, r.Page, r.Relevance)
		out.Plainf("    %s", r.Text)
		out.Newline()
	}

	return nil
}
