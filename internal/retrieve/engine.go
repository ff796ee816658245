// Package retrieve answers questions against the knowledge store via
// nearest-neighbor search over embedded chunks.
package retrieve

import (
	"context"
	"log/slog"
	"strings"

	"github.com/paperdex/paperdex/internal/store"
)

// DefaultMaxResults is the default number of results per question.
const DefaultMaxResults = 3

// UnknownField is the sentinel for missing provenance metadata.
const UnknownField = "Unknown"

// QueryResult is one retrieval hit with citation metadata.
// Missing provenance defaults to UnknownField and page 0 rather than
// failing the query.
type QueryResult struct {
	// Text is the matched chunk content.
	Text string
	// SourceID identifies the source document.
	SourceID string
	// Title is the citation title.
	Title string
	// Page is the 1-based source page, 0 for non-paged sources.
	Page int
	// URL is the citation URL.
	URL string
	// Kind classifies the entry text origin.
	Kind store.Kind
	// Distance is the raw vector distance; smaller is closer.
	Distance float32
	// Relevance is 1 - Distance, larger is better.
	Relevance float32
}

// Embedder turns a question into a query vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Querier runs nearest-neighbor queries against the store.
type Querier interface {
	Query(ctx context.Context, vector []float32, k int, filter store.Filter) ([]store.Hit, error)
}

// Engine embeds questions and ranks stored chunks by similarity.
type Engine struct {
	embedder Embedder
	querier  Querier
	logger   *slog.Logger
}

// Option configures a single Retrieve call.
type Option func(*store.Filter)

// WithKind restricts results to one entry kind. The default searches
// primary content and implementation context together.
func WithKind(kind store.Kind) Option {
	return func(f *store.Filter) { f.Kind = kind }
}

// New creates a retrieval engine.
func New(embedder Embedder, querier Querier, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		embedder: embedder,
		querier:  querier,
		logger:   logger,
	}
}

// Retrieve returns up to k results for the question, ordered by
// ascending distance. An empty store, a blank question, or a failed
// query all yield an empty slice, never an error.
func (e *Engine) Retrieve(ctx context.Context, question string, k int, opts ...Option) []QueryResult {
	if strings.TrimSpace(question) == "" {
		return []QueryResult{}
	}
	if k <= 0 {
		k = DefaultMaxResults
	}

	var filter store.Filter
	for _, opt := range opts {
		opt(&filter)
	}

	vector, err := e.embedder.Embed(ctx, question)
	if err != nil {
		e.logger.Warn("question embedding failed",
			slog.String("error", err.Error()))
		return []QueryResult{}
	}

	hits, err := e.querier.Query(ctx, vector, k, filter)
	if err != nil {
		e.logger.Warn("store query failed",
			slog.String("error", err.Error()))
		return []QueryResult{}
	}

	results := make([]QueryResult, len(hits))
	for i, hit := range hits {
		results[i] = fromHit(hit)
	}
	return results
}

// fromHit maps a raw store hit to a QueryResult, filling defaults for
// missing provenance.
func fromHit(hit store.Hit) QueryResult {
	r := QueryResult{
		Text:      hit.Text,
		SourceID:  hit.SourceID,
		Title:     hit.Title,
		Page:      hit.Page,
		URL:       hit.URL,
		Kind:      hit.Kind,
		Distance:  hit.Distance,
		Relevance: 1 - hit.Distance,
	}
	if r.Title == "" {
		r.Title = UnknownField
	}
	if r.URL == "" {
		r.URL = UnknownField
	}
	if r.Page < 0 {
		r.Page = 0
	}
	return r
}
