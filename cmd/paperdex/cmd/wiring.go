package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/paperdex/paperdex/internal/arxiv"
	"github.com/paperdex/paperdex/internal/config"
	"github.com/paperdex/paperdex/internal/embed"
	"github.com/paperdex/paperdex/internal/extract"
	"github.com/paperdex/paperdex/internal/ingest"
	"github.com/paperdex/paperdex/internal/kb"
	"github.com/paperdex/paperdex/internal/repoctx"
	"github.com/paperdex/paperdex/internal/store"
)

// loadConfig reads the effective configuration, honoring --config.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// buildEmbedder constructs the embedding provider named in the config.
func buildEmbedder(ctx context.Context, cfg *config.Config) (embed.Embedder, error) {
	var inner embed.Embedder

	switch cfg.Embeddings.Provider {
	case "ollama":
		e, err := embed.NewOllamaEmbedder(ctx, embed.OllamaConfig{
			Host:       cfg.Embeddings.OllamaHost,
			Model:      cfg.Embeddings.Model,
			Dimensions: cfg.Embeddings.Dimensions,
			BatchSize:  cfg.Embeddings.BatchSize,
		})
		if err != nil {
			return nil, err
		}
		inner = e
	case "hash":
		inner = embed.NewHashEmbedder(cfg.Embeddings.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embeddings provider: %s", cfg.Embeddings.Provider)
	}

	return embed.NewCachedEmbedder(inner, cfg.Embeddings.CacheSize), nil
}

// buildKnowledgeBase assembles the full knowledge base from configuration.
// The caller owns the returned handle and must Close it.
func buildKnowledgeBase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*kb.KnowledgeBase, error) {
	if logger == nil {
		logger = slog.Default()
	}

	embedder, err := buildEmbedder(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize embedder: %w", err)
	}

	s, err := store.Open(store.DefaultConfig(cfg.Paths.DataDir, embedder.Dimensions()))
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("open knowledge store: %w", err)
	}

	searcher := arxiv.NewClient(
		arxiv.WithBaseURL(cfg.Discovery.BaseURL),
		arxiv.WithLogger(logger),
	)

	extractor := extract.NewExtractor(
		extract.WithTimeout(time.Duration(cfg.Ingest.DownloadTimeout)*time.Second),
		extract.WithLogger(logger),
	)

	repoOpts := []repoctx.Option{
		repoctx.WithTimeout(time.Duration(cfg.GitHub.FetchTimeout) * time.Second),
		repoctx.WithLogger(logger),
	}
	if cfg.GitHub.Token != "" {
		repoOpts = append(repoOpts, repoctx.WithToken(cfg.GitHub.Token))
	}

	return kb.New(kb.Deps{
		Store:       s,
		Searcher:    searcher,
		Extractor:   extractor,
		RepoFetcher: repoctx.NewFetcher(repoOpts...),
		Embedder:    embedder,
		Ingest: ingest.Config{
			ChunkWords:     cfg.Ingest.ChunkWords,
			RepoChunkWords: cfg.Ingest.RepoChunkWords,
		},
		Logger: logger,
	}), nil
}
