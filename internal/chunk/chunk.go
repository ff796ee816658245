// Package chunk splits page text into bounded word-count windows.
//
// Chunking is a pure function: the same input always produces the same
// ordered chunk sequence. Downstream chunk identifiers are assigned by
// position, so this determinism is what makes re-ingestion idempotent.
package chunk

import (
	"strings"
)

// Chunk is a bounded-size contiguous span of text extracted from one page.
// Chunks are ephemeral: produced here, embedded and stored immediately,
// never persisted on their own.
type Chunk struct {
	// Text is the chunk content with tokens re-joined by single spaces.
	Text string
	// Page is the 1-based page number of the source page,
	// or 0 for non-paged sources (repository artifacts).
	Page int
}

// Words returns the number of whitespace-separated tokens in the chunk.
func (c Chunk) Words() int {
	return len(strings.Fields(c.Text))
}

// Split splits pageText into consecutive, non-overlapping windows of at
// most maxWords whitespace-separated tokens, each tagged with page.
//
// Empty or whitespace-only input yields nil. Tokens are conserved: the
// concatenation of all chunk tokens equals the token sequence of the input.
func Split(pageText string, page, maxWords int) []Chunk {
	if maxWords <= 0 {
		return nil
	}

	words := strings.Fields(pageText)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]Chunk, 0, (len(words)+maxWords-1)/maxWords)
	for start := 0; start < len(words); start += maxWords {
		end := start + maxWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, Chunk{
			Text: strings.Join(words[start:end], " "),
			Page: page,
		})
	}

	return chunks
}
