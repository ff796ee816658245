package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/paperdex/paperdex/internal/output"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <paper-id>",
		Short: "Resolve a paper ID to its citation",
		Long: `Look up the full citation (title and URL) for an arXiv paper ID known
to the knowledge base.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), args[0])
		},
	}
}

func runResolve(ctx context.Context, paperID string) error {
	out := output.New(os.Stdout)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	knowledge, err := buildKnowledgeBase(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer func() { _ = knowledge.Close() }()

	ref, ok := knowledge.Resolve(ctx, paperID)
	if !ok {
		return fmt.Errorf("paper ID %q not found in the knowledge base", paperID)
	}

	out.Plainf("Paper ID: %s", ref.SourceID)
	out.Plainf("Title:    %s", ref.Title)
	out.Plainf("URL:      %s", ref.URL)
	return nil
}
