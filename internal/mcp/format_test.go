package mcp

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	kberrors "github.com/paperdex/paperdex/internal/errors"
	"github.com/paperdex/paperdex/internal/retrieve"
)

func TestFormatIngestReport(t *testing.T) {
	report := formatIngestReport("Lambertian Reflectance", 15, 42)

	assert.Contains(t, report, "✅")
	assert.Contains(t, report, "'Lambertian Reflectance'")
	assert.Contains(t, report, "New chunks added: 15")
	assert.Contains(t, report, "Total chunks in database: 42")
}

func TestFormatIngestReport_NothingStored(t *testing.T) {
	report := formatIngestReport("nonexistent topic", 0, 42)

	assert.Contains(t, report, "❌")
	assert.Contains(t, report, "nonexistent topic")
}

func TestFormatConsultReport_TruncatesLongPassages(t *testing.T) {
	long := strings.Repeat("w ", 600)
	report := formatConsultReport("q", []retrieve.QueryResult{
		{Text: long, Title: "T", SourceID: "id", Relevance: 0.5},
	})

	assert.Contains(t, report, "...")
	assert.NotContains(t, report, long)
}

func TestFormatConsultReport_CitationFields(t *testing.T) {
	report := formatConsultReport("shadows", []retrieve.QueryResult{
		{Text: "passage", Title: "Paper Title", SourceID: "2301.00001", Page: 7, Relevance: 0.8},
	})

	assert.Contains(t, report, "Source: Paper Title")
	assert.Contains(t, report, "Paper ID: 2301.00001")
	assert.Contains(t, report, "Page: 7")
	assert.Contains(t, report, "Relevance Score: 0.800")
	assert.Contains(t, report, "verify_source")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
}

func TestTruncate_KeepsMultibyteRunesIntact(t *testing.T) {
	// 2-byte runes, so an odd byte budget lands mid-rune
	text := strings.Repeat("é", 300)

	cut := truncate(text, 501)

	assert.True(t, utf8.ValidString(cut))
	assert.Equal(t, strings.Repeat("é", 250)+"...", cut)
}

func TestMapError_KBError(t *testing.T) {
	err := kberrors.New(kberrors.ErrCodeDiscoveryFailed, "arxiv unreachable", nil)

	mcpErr := MapError(err)

	assert.Equal(t, ErrCodeDiscoveryFailed, mcpErr.Code)
	assert.Contains(t, mcpErr.Message, "arxiv unreachable")
}

func TestMapError_SuggestionIsAppended(t *testing.T) {
	err := kberrors.New(kberrors.ErrCodeEmbeddingFailed, "model missing", nil).
		WithSuggestion("Run 'ollama pull nomic-embed-text'")

	mcpErr := MapError(err)

	assert.Equal(t, ErrCodeEmbeddingFailed, mcpErr.Code)
	assert.Contains(t, mcpErr.Message, "ollama pull")
}

func TestMapError_ContextDeadline(t *testing.T) {
	assert.Equal(t, ErrCodeTimeout, MapError(context.DeadlineExceeded).Code)
}

func TestMapError_Nil(t *testing.T) {
	assert.Nil(t, MapError(nil))
}
