// Package store persists knowledge entries: embeddings in an HNSW graph,
// text and provenance metadata in SQLite. Entries are keyed by chunk ID;
// writing an existing ID overwrites (upsert semantics).
package store

import (
	"fmt"
)

// Kind classifies the origin of an entry's text.
type Kind string

const (
	// KindPrimaryContent marks text extracted from the paper itself.
	KindPrimaryContent Kind = "primary_content"
	// KindImplementationContext marks auxiliary text from the paper's
	// linked code repository (readme, dependency manifest).
	KindImplementationContext Kind = "implementation_context"
)

// KnowledgeEntry is the persisted unit of the knowledge base.
// Immutable once written except for full overwrite by a later
// ingestion of the same source.
type KnowledgeEntry struct {
	// ChunkID is the deterministic identifier, a pure function of
	// (source, content category, sequence index).
	ChunkID string
	// Text is the chunk content.
	Text string
	// Embedding is the fixed-dimension vector for Text.
	Embedding []float32
	// SourceID identifies the source document.
	SourceID string
	// Title is the citation title.
	Title string
	// Page is the 1-based source page, 0 for non-paged sources.
	Page int
	// URL is the citation URL.
	URL string
	// Kind classifies the entry text origin.
	Kind Kind
}

// EntryMeta is entry provenance without text or embedding.
type EntryMeta struct {
	ChunkID  string
	SourceID string
	Title    string
	Page     int
	URL      string
	Kind     Kind
}

// Hit is one nearest-neighbor match.
type Hit struct {
	ChunkID  string
	Text     string
	SourceID string
	Title    string
	Page     int
	URL      string
	Kind     Kind
	// Distance is the store's native distance; smaller is closer.
	Distance float32
}

// Filter restricts query results by metadata.
// Zero values mean "no restriction".
type Filter struct {
	SourceID string
	Kind     Kind
}

// Config configures a Store.
type Config struct {
	// Dir is the directory holding the vector index and entries database.
	Dir string
	// Dimensions is the embedding dimension. 0 adopts the persisted
	// value when reopening an existing store.
	Dimensions int
	// M is the HNSW connectivity parameter.
	M int
	// EfSearch is the HNSW search expansion factor.
	EfSearch int
}

// DefaultConfig returns a store configuration with recommended HNSW
// parameters for the given directory and dimension.
func DefaultConfig(dir string, dimensions int) Config {
	return Config{
		Dir:        dir,
		Dimensions: dimensions,
		M:          16,
		EfSearch:   20,
	}
}

// ErrDimensionMismatch is returned when a vector's dimension doesn't
// match the store configuration.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("vector dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}
