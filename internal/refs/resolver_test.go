package refs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperdex/paperdex/internal/store"
)

type fakeMetadata struct {
	metas map[string][]store.EntryMeta
	err   error
	calls int
}

func (f *fakeMetadata) GetBySource(_ context.Context, sourceID string, _ int) ([]store.EntryMeta, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.metas[sourceID], nil
}

func TestResolver_CacheHit(t *testing.T) {
	// Given: a resolver that saw the source during discovery
	metadata := &fakeMetadata{}
	r := NewResolver(metadata, nil)
	r.Remember("2301.00001", "Shadow Function Estimation", "https://arxiv.org/abs/2301.00001")

	// When: resolving
	ref, ok := r.Resolve(context.Background(), "2301.00001")

	// Then: the cache answers without touching the store
	require.True(t, ok)
	assert.Equal(t, "Shadow Function Estimation", ref.Title)
	assert.Zero(t, metadata.calls)
}

func TestResolver_StoreFallback(t *testing.T) {
	// Given: a source present only in the persistent store
	metadata := &fakeMetadata{metas: map[string][]store.EntryMeta{
		"2302.00002": {{
			ChunkID:  "2302.00002_chunk_0",
			SourceID: "2302.00002",
			Title:    "Photometric Stereo Revisited",
			URL:      "https://arxiv.org/abs/2302.00002",
		}},
	}}
	r := NewResolver(metadata, nil)

	// When: resolving a source the cache has never seen
	ref, ok := r.Resolve(context.Background(), "2302.00002")

	// Then: the store metadata backs the reference
	require.True(t, ok)
	assert.Equal(t, "Photometric Stereo Revisited", ref.Title)
	assert.Equal(t, "https://arxiv.org/abs/2302.00002", ref.URL)

	// And: the result is cached for the next lookup
	_, ok = r.Resolve(context.Background(), "2302.00002")
	require.True(t, ok)
	assert.Equal(t, 1, metadata.calls)
}

func TestResolver_UnknownIDIsAbsence(t *testing.T) {
	r := NewResolver(&fakeMetadata{}, nil)

	ref, ok := r.Resolve(context.Background(), "unknown-id")

	assert.False(t, ok)
	assert.Zero(t, ref)
}

func TestResolver_StoreErrorIsAbsence(t *testing.T) {
	metadata := &fakeMetadata{err: errors.New("database locked")}
	r := NewResolver(metadata, nil)

	_, ok := r.Resolve(context.Background(), "2303.00003")

	assert.False(t, ok)
}

func TestResolver_EmptyID(t *testing.T) {
	r := NewResolver(&fakeMetadata{}, nil)

	_, ok := r.Resolve(context.Background(), "")

	assert.False(t, ok)
}

func TestResolver_CachedCount(t *testing.T) {
	r := NewResolver(&fakeMetadata{}, nil)
	r.Remember("a", "A", "urlA")
	r.Remember("b", "B", "urlB")
	r.Remember("a", "A again", "urlA")

	assert.Equal(t, 2, r.CachedCount())
}
