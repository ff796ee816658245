package kb

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperdex/paperdex/internal/arxiv"
	"github.com/paperdex/paperdex/internal/embed"
	"github.com/paperdex/paperdex/internal/extract"
	"github.com/paperdex/paperdex/internal/store"
)

type fakeSearcher struct {
	docs []arxiv.Document
}

func (f *fakeSearcher) Search(_ context.Context, _ string, _ int) ([]arxiv.Document, error) {
	return f.docs, nil
}

type fakeExtractor struct {
	pages map[string][]extract.Page
}

func (f *fakeExtractor) Extract(_ context.Context, url string) ([]extract.Page, error) {
	return f.pages[url], nil
}

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("term%d", i)
	}
	return strings.Join(parts, " ")
}

// newTestKB builds a knowledge base over a real store and hash embedder
// with faked discovery and extraction.
func newTestKB(t *testing.T) *KnowledgeBase {
	t.Helper()

	s, err := store.Open(store.DefaultConfig(t.TempDir(), 32))
	require.NoError(t, err)

	k := New(Deps{
		Store: s,
		Searcher: &fakeSearcher{docs: []arxiv.Document{
			{ID: "2301.00001", Title: "Shadow Function Estimation", PDFURL: "pdf1"},
		}},
		Extractor: &fakeExtractor{pages: map[string][]extract.Page{
			"pdf1": {{Text: "shadow functions model cast shadow boundaries " + words(20), Number: 1}},
		}},
		Embedder: embed.NewHashEmbedder(32),
	})
	t.Cleanup(func() { _ = k.Close() })
	return k
}

func TestKnowledgeBase_AddTopicThenAsk(t *testing.T) {
	// Given: an ingested topic
	k := newTestKB(t)
	stored := k.AddTopic(context.Background(), "shadow functions", 5)
	require.Equal(t, 1, stored)

	// When: asking a related question
	results := k.Ask(context.Background(), "cast shadow boundaries", 3)

	// Then: the stored chunk comes back with citation metadata
	require.NotEmpty(t, results)
	assert.Equal(t, "2301.00001", results[0].SourceID)
	assert.Equal(t, "Shadow Function Estimation", results[0].Title)
	assert.Equal(t, 1, results[0].Page)
}

func TestKnowledgeBase_ReingestThenAsk(t *testing.T) {
	// Given: a knowledge base over a real store with two documents
	s, err := store.Open(store.DefaultConfig(t.TempDir(), 32))
	require.NoError(t, err)

	k := New(Deps{
		Store: s,
		Searcher: &fakeSearcher{docs: []arxiv.Document{
			{ID: "2301.00001", Title: "Shadow Function Estimation", PDFURL: "pdf1"},
			{ID: "2302.00002", Title: "Photometric Stereo Revisited", PDFURL: "pdf2"},
		}},
		Extractor: &fakeExtractor{pages: map[string][]extract.Page{
			"pdf1": {{Text: "shadow functions model cast shadow boundaries", Number: 1}},
			"pdf2": {{Text: "photometric stereo recovers surface normal fields", Number: 1}},
		}},
		Embedder: embed.NewHashEmbedder(32),
	})
	t.Cleanup(func() { _ = k.Close() })
	ctx := context.Background()

	// When: the same topic is ingested three times
	require.Equal(t, 2, k.AddTopic(ctx, "shadows", 5))
	require.Equal(t, 2, k.AddTopic(ctx, "shadows", 5))
	require.Equal(t, 2, k.AddTopic(ctx, "shadows", 5))

	// Then: the count is stable and retrieval still surfaces every
	// live entry
	stats, err := k.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalEntries)

	results := k.Ask(ctx, "cast shadow boundaries", 2)
	require.Len(t, results, 2)
	assert.Equal(t, "2301.00001", results[0].SourceID)
}

func TestKnowledgeBase_AskEmptyStore(t *testing.T) {
	k := newTestKB(t)

	results := k.Ask(context.Background(), "anything at all", 3)

	assert.Empty(t, results)
}

func TestKnowledgeBase_ResolveFromDiscoveryCache(t *testing.T) {
	k := newTestKB(t)
	k.AddTopic(context.Background(), "shadow functions", 5)

	ref, ok := k.Resolve(context.Background(), "2301.00001")

	require.True(t, ok)
	assert.Equal(t, "Shadow Function Estimation", ref.Title)
	assert.Equal(t, "https://arxiv.org/abs/2301.00001", ref.URL)
}

func TestKnowledgeBase_ResolveUnknownID(t *testing.T) {
	k := newTestKB(t)

	_, ok := k.Resolve(context.Background(), "unknown-id")

	assert.False(t, ok)
}

func TestKnowledgeBase_Stats(t *testing.T) {
	k := newTestKB(t)

	before, err := k.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, before.TotalEntries)

	k.AddTopic(context.Background(), "shadow functions", 5)

	after, err := k.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, after.TotalEntries)
	assert.Equal(t, "hash", after.EmbeddingModel)
	assert.Equal(t, 32, after.Dimensions)
}
