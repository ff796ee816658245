// Package ingest implements the document ingestion pipeline: discover
// papers for a topic, extract per-page text, chunk, embed, and upsert
// into the knowledge store. Processing is strictly sequential; documents
// are handled in discovery order and chunk identifiers are assigned by
// position, which makes re-ingestion idempotent.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/paperdex/paperdex/internal/arxiv"
	"github.com/paperdex/paperdex/internal/chunk"
	"github.com/paperdex/paperdex/internal/extract"
	"github.com/paperdex/paperdex/internal/repoctx"
	"github.com/paperdex/paperdex/internal/store"
)

// Default chunk sizes in words.
const (
	DefaultChunkWords     = 500
	DefaultRepoChunkWords = 500
)

// manifestPrefix is prepended to dependency manifests before chunking so
// the embedded text carries its own context.
const manifestPrefix = "Dependencies and requirements: "

// Searcher discovers documents matching a topic.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]arxiv.Document, error)
}

// Extractor fetches a document and extracts per-page text.
type Extractor interface {
	Extract(ctx context.Context, url string) ([]extract.Page, error)
}

// RepoFetcher fetches auxiliary context from a linked code repository.
type RepoFetcher interface {
	Fetch(ctx context.Context, repoURL string) (repoctx.Context, error)
}

// Embedder turns texts into fixed-dimension vectors, order-preserving.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Storer persists knowledge entries with upsert-by-chunk-ID semantics.
type Storer interface {
	Upsert(ctx context.Context, entries []store.KnowledgeEntry) error
}

// ReferenceRecorder is notified of every discovered document so the
// reference cache stays warm for later resolution.
type ReferenceRecorder interface {
	Remember(sourceID, title, url string)
}

// Config holds pipeline tuning parameters.
type Config struct {
	// ChunkWords is the maximum words per primary-content chunk.
	ChunkWords int
	// RepoChunkWords is the maximum words per repository-context chunk.
	RepoChunkWords int
}

// Pipeline wires the ingestion collaborators together.
type Pipeline struct {
	searcher Searcher
	extract  Extractor
	repos    RepoFetcher
	embedder Embedder
	storer   Storer
	recorder ReferenceRecorder
	config   Config
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRepoFetcher enables repository-context ingestion.
func WithRepoFetcher(f RepoFetcher) Option {
	return func(p *Pipeline) { p.repos = f }
}

// WithRecorder registers a reference recorder fed from discovery results.
func WithRecorder(r ReferenceRecorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithConfig overrides the default chunking parameters.
func WithConfig(cfg Config) Option {
	return func(p *Pipeline) {
		if cfg.ChunkWords > 0 {
			p.config.ChunkWords = cfg.ChunkWords
		}
		if cfg.RepoChunkWords > 0 {
			p.config.RepoChunkWords = cfg.RepoChunkWords
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// New creates an ingestion pipeline over the required collaborators.
func New(searcher Searcher, extractor Extractor, embedder Embedder, storer Storer, opts ...Option) *Pipeline {
	p := &Pipeline{
		searcher: searcher,
		extract:  extractor,
		embedder: embedder,
		storer:   storer,
		config: Config{
			ChunkWords:     DefaultChunkWords,
			RepoChunkWords: DefaultRepoChunkWords,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest discovers up to maxDocuments papers for the topic and stores
// their chunked, embedded content. Returns the count of stored entries.
//
// Failures are downgraded, never propagated: a discovery failure yields
// zero entries, a failed document is skipped, a failed repository fetch
// yields zero auxiliary entries. Partial knowledge beats a crashed crawl.
func (p *Pipeline) Ingest(ctx context.Context, topic string, maxDocuments int) int {
	docs, err := p.searcher.Search(ctx, topic, maxDocuments)
	if err != nil {
		p.logger.Error("document discovery failed",
			slog.String("topic", topic),
			slog.String("error", err.Error()))
		return 0
	}
	if len(docs) == 0 {
		p.logger.Info("no documents found", slog.String("topic", topic))
		return 0
	}

	if p.recorder != nil {
		for _, doc := range docs {
			p.recorder.Remember(doc.ID, doc.Title, doc.AbsURL())
		}
	}

	total := 0
	for _, doc := range docs {
		stored := p.ingestDocument(ctx, doc)
		total += stored
		p.logger.Info("document ingested",
			slog.String("source_id", doc.ID),
			slog.Int("entries", stored))
	}

	return total
}

// ingestDocument processes one document: primary content first, then
// repository context if the abstract linked a repository.
func (p *Pipeline) ingestDocument(ctx context.Context, doc arxiv.Document) int {
	total := p.ingestPrimary(ctx, doc)

	if doc.RepoURL != "" && p.repos != nil {
		total += p.ingestRepoContext(ctx, doc)
	}

	return total
}

// ingestPrimary extracts, chunks, embeds, and stores the paper text.
func (p *Pipeline) ingestPrimary(ctx context.Context, doc arxiv.Document) int {
	pages, err := p.extract.Extract(ctx, doc.PDFURL)
	if err != nil {
		p.logger.Warn("extraction failed, skipping document",
			slog.String("source_id", doc.ID),
			slog.String("error", err.Error()))
		return 0
	}
	if len(pages) == 0 {
		p.logger.Warn("document yielded no pages, skipping",
			slog.String("source_id", doc.ID))
		return 0
	}

	// Chunk index runs across the whole document, not per page
	var chunks []chunk.Chunk
	for _, page := range pages {
		chunks = append(chunks, chunk.Split(page.Text, page.Number, p.config.ChunkWords)...)
	}
	if len(chunks) == 0 {
		return 0
	}

	entries := make([]store.KnowledgeEntry, len(chunks))
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
		entries[i] = store.KnowledgeEntry{
			ChunkID:  fmt.Sprintf("%s_chunk_%d", doc.ID, i),
			Text:     c.Text,
			SourceID: doc.ID,
			Title:    doc.Title,
			Page:     c.Page,
			URL:      doc.AbsURL(),
			Kind:     store.KindPrimaryContent,
		}
	}

	return p.embedAndStore(ctx, doc.ID, entries, texts)
}

// ingestRepoContext fetches readme and dependency manifest for the
// document's linked repository and stores them as implementation context.
func (p *Pipeline) ingestRepoContext(ctx context.Context, doc arxiv.Document) int {
	repo, err := p.repos.Fetch(ctx, doc.RepoURL)
	if err != nil {
		p.logger.Warn("repository context unavailable",
			slog.String("source_id", doc.ID),
			slog.String("repo_url", doc.RepoURL),
			slog.String("error", err.Error()))
		// The fetcher may still have partial content
	}

	total := 0

	if repo.Readme != "" {
		total += p.ingestArtifact(ctx, doc, "readme", repo.Readme,
			doc.Title+" - GitHub README")
	}
	if repo.Manifest != "" {
		total += p.ingestArtifact(ctx, doc, "requirements", manifestPrefix+repo.Manifest,
			doc.Title+" - Dependencies")
	}

	return total
}

// ingestArtifact chunks, embeds, and stores one repository artifact.
// Repository artifacts have no page structure; page stays 0.
func (p *Pipeline) ingestArtifact(ctx context.Context, doc arxiv.Document, artifact, text, title string) int {
	chunks := chunk.Split(text, 0, p.config.RepoChunkWords)
	if len(chunks) == 0 {
		return 0
	}

	entries := make([]store.KnowledgeEntry, len(chunks))
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
		entries[i] = store.KnowledgeEntry{
			ChunkID:  fmt.Sprintf("%s_github_%s_%d", doc.ID, artifact, i),
			Text:     c.Text,
			SourceID: doc.ID,
			Title:    title,
			Page:     0,
			URL:      doc.RepoURL,
			Kind:     store.KindImplementationContext,
		}
	}

	return p.embedAndStore(ctx, doc.ID, entries, texts)
}

// embedAndStore batch-embeds the texts and upserts the entries. On any
// failure the batch contributes zero to the stored count.
func (p *Pipeline) embedAndStore(ctx context.Context, sourceID string, entries []store.KnowledgeEntry, texts []string) int {
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		p.logger.Warn("embedding failed, dropping batch",
			slog.String("source_id", sourceID),
			slog.Int("batch_size", len(texts)),
			slog.String("error", err.Error()))
		return 0
	}
	if len(vectors) != len(entries) {
		p.logger.Warn("embedding batch size mismatch, dropping batch",
			slog.String("source_id", sourceID),
			slog.Int("want", len(entries)),
			slog.Int("got", len(vectors)))
		return 0
	}

	for i := range entries {
		entries[i].Embedding = vectors[i]
	}

	if err := p.storer.Upsert(ctx, entries); err != nil {
		p.logger.Warn("store write failed, dropping batch",
			slog.String("source_id", sourceID),
			slog.Int("batch_size", len(entries)),
			slog.String("error", err.Error()))
		return 0
	}

	return len(entries)
}
