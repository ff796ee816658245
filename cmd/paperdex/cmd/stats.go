package cmd

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/paperdex/paperdex/internal/output"
)

// StatsOutput is the JSON output format for the stats command.
type StatsOutput struct {
	TotalEntries   int    `json:"total_entries"`
	EmbeddingModel string `json:"embedding_model"`
	Dimensions     int    `json:"dimensions"`
	DataDir        string `json:"data_dir"`
}

func newStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show knowledge base statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd.Context(), jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runStats(ctx context.Context, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	knowledge, err := buildKnowledgeBase(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer func() { _ = knowledge.Close() }()

	stats, err := knowledge.Stats(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(StatsOutput{
			TotalEntries:   stats.TotalEntries,
			EmbeddingModel: stats.EmbeddingModel,
			Dimensions:     stats.Dimensions,
			DataDir:        cfg.Paths.DataDir,
		})
	}

	out := output.New(os.Stdout)
	out.Plain("Knowledge Base Statistics")
	out.Plain("-------------------------")
	out.Plainf("Total chunks:    %d", stats.TotalEntries)
	out.Plainf("Embedding model: %s (%d dimensions)", stats.EmbeddingModel, stats.Dimensions)
	out.Plainf("Data directory:  %s", cfg.Paths.DataDir)

	if stats.TotalEntries == 0 {
		out.Newline()
		out.Plain("The knowledge base is empty. Run 'paperdex ingest <topic>' to add papers.")
	}

	return nil
}
