package embed

import (
	"context"
	"hash/fnv"
	"strings"
)

// HashEmbedder is a deterministic, offline embedding provider based on
// hashed bag-of-words features. Quality is far below a real model, but
// texts sharing vocabulary still land near each other, which is enough
// for offline use and tests. No network, no state.
type HashEmbedder struct {
	dims int
}

// Verify interface implementation at compile time
var _ Embedder = (*HashEmbedder)(nil)

// NewHashEmbedder creates a hash-based embedder with the given dimension.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &HashEmbedder{dims: dims}
}

// Embed generates a deterministic embedding for the text.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dims)

	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(token))
		sum := h.Sum64()

		bucket := int(sum % uint64(e.dims))
		// Use one hash bit for the sign so buckets don't only accumulate
		if sum&(1<<63) != 0 {
			vec[bucket] -= 1
		} else {
			vec[bucket] += 1
		}
	}

	return normalizeVector(vec), nil
}

// EmbedBatch generates embeddings for multiple texts.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		results[i] = vec
	}
	return results, nil
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return e.dims
}

// ModelName returns the model identifier.
func (e *HashEmbedder) ModelName() string {
	return "hash"
}

// Available always reports true; hashing needs no external service.
func (e *HashEmbedder) Available(_ context.Context) bool {
	return true
}

// Close is a no-op.
func (e *HashEmbedder) Close() error {
	return nil
}
