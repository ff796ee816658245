// Package kb is the knowledge-base facade consumed by the tool and CLI
// layers. It owns no global state; the process entry point constructs
// one KnowledgeBase and passes it where needed.
package kb

import (
	"context"
	"log/slog"

	"github.com/paperdex/paperdex/internal/embed"
	"github.com/paperdex/paperdex/internal/ingest"
	"github.com/paperdex/paperdex/internal/refs"
	"github.com/paperdex/paperdex/internal/retrieve"
	"github.com/paperdex/paperdex/internal/store"
)

// Stats summarizes the knowledge base contents.
type Stats struct {
	// TotalEntries is the number of stored knowledge chunks.
	TotalEntries int
	// EmbeddingModel is the active embedding model identifier.
	EmbeddingModel string
	// Dimensions is the embedding dimension.
	Dimensions int
}

// Deps are the collaborators a KnowledgeBase is built from.
type Deps struct {
	Store       *store.Store
	Searcher    ingest.Searcher
	Extractor   ingest.Extractor
	RepoFetcher ingest.RepoFetcher
	Embedder    embed.Embedder
	Ingest      ingest.Config
	Logger      *slog.Logger
}

// KnowledgeBase exposes the four core operations: ingest a topic, answer
// a question, resolve a citation, and report statistics.
type KnowledgeBase struct {
	store    *store.Store
	pipeline *ingest.Pipeline
	engine   *retrieve.Engine
	resolver *refs.Resolver
	embedder embed.Embedder
	logger   *slog.Logger
}

// New assembles a KnowledgeBase from its dependencies.
func New(deps Deps) *KnowledgeBase {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	resolver := refs.NewResolver(deps.Store, logger)

	opts := []ingest.Option{
		ingest.WithRecorder(resolver),
		ingest.WithConfig(deps.Ingest),
		ingest.WithLogger(logger),
	}
	if deps.RepoFetcher != nil {
		opts = append(opts, ingest.WithRepoFetcher(deps.RepoFetcher))
	}

	return &KnowledgeBase{
		store:    deps.Store,
		pipeline: ingest.New(deps.Searcher, deps.Extractor, deps.Embedder, deps.Store, opts...),
		engine:   retrieve.New(deps.Embedder, deps.Store, logger),
		resolver: resolver,
		embedder: deps.Embedder,
		logger:   logger,
	}
}

// AddTopic ingests up to maxDocuments papers for the topic and returns
// the count of stored entries. Failures degrade to lower counts.
func (k *KnowledgeBase) AddTopic(ctx context.Context, topic string, maxDocuments int) int {
	return k.pipeline.Ingest(ctx, topic, maxDocuments)
}

// Ask returns up to maxResults answers for the question, nearest first.
func (k *KnowledgeBase) Ask(ctx context.Context, question string, maxResults int, opts ...retrieve.Option) []retrieve.QueryResult {
	return k.engine.Retrieve(ctx, question, maxResults, opts...)
}

// Resolve maps a source ID to a citation reference.
func (k *KnowledgeBase) Resolve(ctx context.Context, sourceID string) (refs.Reference, bool) {
	return k.resolver.Resolve(ctx, sourceID)
}

// Stats reports the current knowledge base contents.
func (k *KnowledgeBase) Stats(ctx context.Context) (Stats, error) {
	count, err := k.store.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		TotalEntries:   count,
		EmbeddingModel: k.embedder.ModelName(),
		Dimensions:     k.embedder.Dimensions(),
	}, nil
}

// Close persists the store and releases the embedder.
func (k *KnowledgeBase) Close() error {
	if err := k.embedder.Close(); err != nil {
		k.logger.Warn("embedder close failed", slog.String("error", err.Error()))
	}
	return k.store.Close()
}
