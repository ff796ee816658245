// Package refs resolves source identifiers to citation references using
// a two-tier lookup: an in-process cache warmed by discovery, then the
// persistent store's metadata as the durable fallback.
package refs

import (
	"context"
	"log/slog"
	"sync"

	"github.com/paperdex/paperdex/internal/store"
)

// Reference is a resolvable citation for one source document.
type Reference struct {
	SourceID string
	Title    string
	URL      string
}

// MetadataSource looks up stored entry metadata by source ID.
type MetadataSource interface {
	GetBySource(ctx context.Context, sourceID string, limit int) ([]store.EntryMeta, error)
}

// Resolver maps source IDs to References.
//
// The cache only grows; it is never invalidated. The store is the
// durable tier and survives process restarts.
type Resolver struct {
	mu       sync.RWMutex
	cache    map[string]Reference
	metadata MetadataSource
	logger   *slog.Logger
}

// NewResolver creates a resolver backed by the given metadata source.
func NewResolver(metadata MetadataSource, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		cache:    make(map[string]Reference),
		metadata: metadata,
		logger:   logger,
	}
}

// Remember records a discovered document in the cache.
func (r *Resolver) Remember(sourceID, title, url string) {
	if sourceID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[sourceID] = Reference{SourceID: sourceID, Title: title, URL: url}
}

// Resolve returns the reference for sourceID and whether it was found.
// Absence is not an error: an unknown ID yields (zero, false).
func (r *Resolver) Resolve(ctx context.Context, sourceID string) (Reference, bool) {
	if sourceID == "" {
		return Reference{}, false
	}

	r.mu.RLock()
	ref, ok := r.cache[sourceID]
	r.mu.RUnlock()
	if ok {
		return ref, true
	}

	metas, err := r.metadata.GetBySource(ctx, sourceID, 1)
	if err != nil {
		r.logger.Warn("reference lookup against store failed",
			slog.String("source_id", sourceID),
			slog.String("error", err.Error()))
		return Reference{}, false
	}
	if len(metas) == 0 {
		return Reference{}, false
	}

	ref = Reference{
		SourceID: sourceID,
		Title:    metas[0].Title,
		URL:      metas[0].URL,
	}

	// Warm the cache for the next lookup
	r.mu.Lock()
	r.cache[sourceID] = ref
	r.mu.Unlock()

	return ref, true
}

// CachedCount returns the number of references held in the cache.
func (r *Resolver) CachedCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}
