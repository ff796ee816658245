package mcp

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/paperdex/paperdex/internal/retrieve"
)

// maxPassageDisplay caps passage text length in formatted reports.
const maxPassageDisplay = 500

// formatIngestReport renders the add_knowledge_topic summary.
func formatIngestReport(topic string, newEntries, totalEntries int) string {
	if newEntries == 0 {
		return fmt.Sprintf(
			"❌ No papers could be ingested for topic: '%s'\n"+
				"💡 Tip: try a broader phrasing, or check network access to arXiv.",
			topic)
	}
	return fmt.Sprintf(
		"✅ Successfully ingested papers on topic: '%s'\n"+
			"📚 New chunks added: %d\n"+
			"📊 Total chunks in database: %d\n\n"+
			"The knowledge base is now updated with the latest research on this topic.",
		topic, newEntries, totalEntries)
}

// formatConsultReport renders retrieved passages with citations.
func formatConsultReport(question string, results []retrieve.QueryResult) string {
	if len(results) == 0 {
		return "❌ No relevant information found in the knowledge base.\n" +
			"💡 Tip: Use 'add_knowledge_topic' to ingest papers on the relevant topic first."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 Found %d relevant passages for: %q\n\n", len(results), question)
	b.WriteString(strings.Repeat("=", 60))
	b.WriteString("\n")

	for i, r := range results {
		fmt.Fprintf(&b, "📖 [%d] PASSAGE\n", i+1)
		fmt.Fprintf(&b, "   Source: %s\n", r.Title)
		fmt.Fprintf(&b, "   Paper ID: %s\n", r.SourceID)
		fmt.Fprintf(&b, "   Page: %d\n", r.Page)
		fmt.Fprintf(&b, "   Relevance Score: %.3f\n", r.Relevance)
		fmt.Fprintf(&b, "\n   %q\n", truncate(r.Text, maxPassageDisplay))
		b.WriteString(strings.Repeat("-", 60))
		b.WriteString("\n")
	}

	b.WriteString("\n💡 Use 'verify_source' with the Paper ID to get the full citation details.")
	return b.String()
}

// formatReferenceReport renders the verify_source citation block.
func formatReferenceReport(paperID, title, url string) string {
	rule := strings.Repeat("=", 60)
	return fmt.Sprintf(
		"📄 PAPER REFERENCE\n"+
			"%s\n"+
			"📌 Paper ID: %s\n"+
			"📚 Title: %s\n"+
			"🔗 URL: %s\n"+
			"%s\n\n"+
			"You can access the full paper at the URL above for verification.",
		rule, paperID, title, url, rule)
}

// formatMissingReference renders the verify_source not-found message.
func formatMissingReference(paperID string) string {
	return fmt.Sprintf(
		"❌ Paper ID '%s' not found in the knowledge base.\n"+
			"💡 Make sure the paper has been ingested using 'add_knowledge_topic'.",
		paperID)
}

// formatStatsReport renders the knowledge base statistics block.
func formatStatsReport(totalEntries int, model string, dimensions int) string {
	rule := strings.Repeat("=", 40)
	return fmt.Sprintf(
		"📊 KNOWLEDGE BASE STATISTICS\n"+
			"%s\n"+
			"📚 Total text chunks: %d\n"+
			"🧮 Embedding model: %s (%d dimensions)\n"+
			"%s",
		rule, totalEntries, model, dimensions, rule)
}

// truncate shortens text to at most n bytes, appending an ellipsis.
// The cut backs up to a rune boundary so multibyte text stays valid.
func truncate(text string, n int) string {
	if len(text) <= n {
		return text
	}
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return text[:n] + "..."
}
