// Package embed wraps embedding providers behind a uniform
// "batch of text -> batch of vectors" contract.
package embed

import (
	"context"
	"math"
	"time"
)

// Default embedding configuration.
const (
	// DefaultOllamaHost is the default Ollama API endpoint.
	DefaultOllamaHost = "http://localhost:11434"

	// DefaultOllamaModel is the default embedding model.
	DefaultOllamaModel = "nomic-embed-text"

	// DefaultDimensions is used when dimension auto-detection is skipped.
	DefaultDimensions = 768

	// DefaultBatchSize is the number of texts per embedding API call.
	DefaultBatchSize = 32

	// DefaultRequestTimeout bounds a single embedding API call.
	DefaultRequestTimeout = 60 * time.Second

	// OllamaPoolSize is the HTTP connection pool size.
	OllamaPoolSize = 4
)

// Embedder generates embeddings from text.
// Output length equals input length and order is preserved.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, order-preserving.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Available checks if the provider is reachable and ready.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// OllamaConfig configures the Ollama embedder.
type OllamaConfig struct {
	// Host is the Ollama API endpoint.
	Host string
	// Model is the embedding model name.
	Model string
	// Dimensions is the expected vector size; 0 means auto-detect.
	Dimensions int
	// BatchSize is the number of texts per API call.
	BatchSize int
	// RequestTimeout bounds a single API call.
	RequestTimeout time.Duration
	// SkipHealthCheck skips the startup connectivity probe, used in tests.
	SkipHealthCheck bool
}

// ollamaEmbedRequest is the Ollama /api/embed request body.
type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

// ollamaEmbedResponse is the Ollama /api/embed response body.
type ollamaEmbedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// ollamaModelInfo is one entry of the Ollama /api/tags response.
type ollamaModelInfo struct {
	Name string `json:"name"`
}

// ollamaModelListResponse is the Ollama /api/tags response body.
type ollamaModelListResponse struct {
	Models []ollamaModelInfo `json:"models"`
}

// normalizeVector returns a unit-length copy of v.
// Zero vectors are returned unchanged.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return v
	}
	invMagnitude := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= invMagnitude
	}
	return v
}
