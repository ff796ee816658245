package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperdex/paperdex/internal/kb"
	"github.com/paperdex/paperdex/internal/refs"
	"github.com/paperdex/paperdex/internal/retrieve"
)

type fakeKB struct {
	stored     int
	addedTopic string
	maxDocs    int
	results    []retrieve.QueryResult
	reference  refs.Reference
	found      bool
	stats      kb.Stats
	statsErr   error
}

func (f *fakeKB) AddTopic(_ context.Context, topic string, maxDocuments int) int {
	f.addedTopic = topic
	f.maxDocs = maxDocuments
	return f.stored
}

func (f *fakeKB) Ask(_ context.Context, _ string, _ int, _ ...retrieve.Option) []retrieve.QueryResult {
	return f.results
}

func (f *fakeKB) Resolve(_ context.Context, _ string) (refs.Reference, bool) {
	return f.reference, f.found
}

func (f *fakeKB) Stats(_ context.Context) (kb.Stats, error) {
	return f.stats, f.statsErr
}

func newTestServer(t *testing.T, knowledge KnowledgeBase) *Server {
	t.Helper()
	s, err := NewServer(knowledge, nil)
	require.NoError(t, err)
	return s
}

func TestNewServer_RequiresKnowledgeBase(t *testing.T) {
	_, err := NewServer(nil, nil)
	assert.Error(t, err)
}

func TestAddTopicHandler(t *testing.T) {
	// Given: a knowledge base that will store 12 entries
	fake := &fakeKB{stored: 12, stats: kb.Stats{TotalEntries: 40}}
	s := newTestServer(t, fake)

	// When: the tool is called
	_, out, err := s.addTopicHandler(context.Background(), nil, AddTopicInput{
		Topic: "shadow analysis",
	})

	// Then: counts and default max papers flow through
	require.NoError(t, err)
	assert.Equal(t, "shadow analysis", fake.addedTopic)
	assert.Equal(t, DefaultMaxPapers, fake.maxDocs)
	assert.Equal(t, 12, out.NewEntries)
	assert.Equal(t, 40, out.TotalEntries)
	assert.Contains(t, out.Report, "shadow analysis")
	assert.Contains(t, out.Report, "12")
}

func TestAddTopicHandler_EmptyTopic(t *testing.T) {
	s := newTestServer(t, &fakeKB{})

	_, _, err := s.addTopicHandler(context.Background(), nil, AddTopicInput{})

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)
}

func TestConsultHandler(t *testing.T) {
	fake := &fakeKB{results: []retrieve.QueryResult{
		{
			Text:      "shadow boundaries constrain the light direction",
			SourceID:  "2301.00001",
			Title:     "Shadow Function Estimation",
			Page:      4,
			Relevance: 0.91,
		},
	}}
	s := newTestServer(t, fake)

	_, out, err := s.consultHandler(context.Background(), nil, ConsultInput{
		Question: "how do shadows constrain light direction",
	})

	require.NoError(t, err)
	require.Len(t, out.Passages, 1)
	assert.Equal(t, "2301.00001", out.Passages[0].SourceID)
	assert.InDelta(t, 0.91, out.Passages[0].Relevance, 1e-6)
	assert.Contains(t, out.Report, "Shadow Function Estimation")
	assert.Contains(t, out.Report, "Paper ID: 2301.00001")
}

func TestConsultHandler_NoResults(t *testing.T) {
	s := newTestServer(t, &fakeKB{})

	_, out, err := s.consultHandler(context.Background(), nil, ConsultInput{
		Question: "anything",
	})

	require.NoError(t, err)
	assert.Empty(t, out.Passages)
	assert.Contains(t, out.Report, "No relevant information")
	assert.Contains(t, out.Report, "add_knowledge_topic")
}

func TestVerifySourceHandler_Found(t *testing.T) {
	fake := &fakeKB{
		found: true,
		reference: refs.Reference{
			SourceID: "2301.00001",
			Title:    "Shadow Function Estimation",
			URL:      "https://arxiv.org/abs/2301.00001",
		},
	}
	s := newTestServer(t, fake)

	_, out, err := s.verifySourceHandler(context.Background(), nil, VerifySourceInput{
		PaperID: "2301.00001",
	})

	require.NoError(t, err)
	assert.True(t, out.Found)
	assert.Equal(t, "Shadow Function Estimation", out.Title)
	assert.Contains(t, out.Report, "https://arxiv.org/abs/2301.00001")
}

func TestVerifySourceHandler_NotFoundIsNotAnError(t *testing.T) {
	s := newTestServer(t, &fakeKB{found: false})

	_, out, err := s.verifySourceHandler(context.Background(), nil, VerifySourceInput{
		PaperID: "unknown-id",
	})

	require.NoError(t, err)
	assert.False(t, out.Found)
	assert.Contains(t, out.Report, "unknown-id")
	assert.Contains(t, out.Report, "not found")
}

func TestStatsHandler(t *testing.T) {
	fake := &fakeKB{stats: kb.Stats{
		TotalEntries:   128,
		EmbeddingModel: "nomic-embed-text",
		Dimensions:     768,
	}}
	s := newTestServer(t, fake)

	_, out, err := s.statsHandler(context.Background(), nil, StatsInput{})

	require.NoError(t, err)
	assert.Equal(t, 128, out.TotalEntries)
	assert.Contains(t, out.Report, "128")
	assert.Contains(t, out.Report, "nomic-embed-text")
}

func TestStatsHandler_Error(t *testing.T) {
	s := newTestServer(t, &fakeKB{statsErr: errors.New("database closed")})

	_, _, err := s.statsHandler(context.Background(), nil, StatsInput{})

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeInternalError, mcpErr.Code)
}
