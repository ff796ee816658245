// Package arxiv implements document discovery against the arXiv Atom API.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	kberrors "github.com/paperdex/paperdex/internal/errors"
)

// DefaultBaseURL is the public arXiv query endpoint.
const DefaultBaseURL = "http://export.arxiv.org/api/query"

// repoPattern matches GitHub repository URLs embedded in paper abstracts.
var repoPattern = regexp.MustCompile(`https://github\.com/[\w\-]+/[\w\-]+`)

// Document describes one discovered paper.
// Results are consumed in the order returned by Search; that ordering is
// part of the contract since chunk identifiers are assigned by position.
type Document struct {
	// ID is the short arXiv identifier (e.g., "2002.01588v1"),
	// globally unique across ingested documents.
	ID string
	// Title is the paper title with whitespace collapsed.
	Title string
	// PDFURL points at the paper PDF.
	PDFURL string
	// Summary is the abstract text.
	Summary string
	// RepoURL is the GitHub repository linked from the abstract,
	// empty when the abstract carries none.
	RepoURL string
}

// AbsURL returns the paper's abstract page URL, used for citations.
func (d Document) AbsURL() string {
	return "https://arxiv.org/abs/" + d.ID
}

// Client queries arXiv for papers matching a topic.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the arXiv endpoint, used for testing.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates an arXiv discovery client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// atomFeed mirrors the subset of the arXiv Atom response we consume.
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID      string     `xml:"id"`
	Title   string     `xml:"title"`
	Summary string     `xml:"summary"`
	Links   []atomLink `xml:"link"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

// Search returns up to limit documents matching the query, sorted by
// relevance. May return fewer than limit, including zero.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Document, error) {
	if strings.TrimSpace(query) == "" {
		return nil, kberrors.New(kberrors.ErrCodeInvalidInput, "search query is empty", nil)
	}
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("start", "0")
	params.Set("max_results", fmt.Sprintf("%d", limit))
	params.Set("sortBy", "relevance")

	reqURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, kberrors.Wrap(kberrors.ErrCodeDiscoveryFailed, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, kberrors.Wrap(kberrors.ErrCodeDiscoveryFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, kberrors.New(kberrors.ErrCodeDiscoveryFailed,
			fmt.Sprintf("arxiv query returned status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, kberrors.Wrap(kberrors.ErrCodeDiscoveryFailed, err)
	}

	docs := make([]Document, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		doc := Document{
			ID:      shortID(entry.ID),
			Title:   collapseWhitespace(entry.Title),
			Summary: strings.TrimSpace(entry.Summary),
			PDFURL:  pdfLink(entry),
			RepoURL: extractRepoURL(entry.Summary),
		}
		if doc.ID == "" || doc.PDFURL == "" {
			c.logger.Warn("skipping malformed arxiv entry",
				slog.String("entry_id", entry.ID))
			continue
		}
		docs = append(docs, doc)
	}

	c.logger.Info("arxiv search completed",
		slog.String("query", query),
		slog.Int("results", len(docs)))

	return docs, nil
}

// shortID extracts the short paper ID from an Atom entry ID.
// "http://arxiv.org/abs/2002.01588v1" -> "2002.01588v1"
func shortID(entryID string) string {
	idx := strings.LastIndex(entryID, "/abs/")
	if idx < 0 {
		return strings.TrimSpace(entryID)
	}
	return strings.TrimSpace(entryID[idx+len("/abs/"):])
}

// pdfLink finds the PDF link in an entry, falling back to deriving it
// from the abstract URL when no explicit PDF link is present.
func pdfLink(entry atomEntry) string {
	for _, l := range entry.Links {
		if l.Title == "pdf" || l.Type == "application/pdf" {
			return l.Href
		}
	}
	if id := shortID(entry.ID); id != "" && strings.Contains(entry.ID, "/abs/") {
		return strings.Replace(entry.ID, "/abs/", "/pdf/", 1)
	}
	return ""
}

// extractRepoURL returns the first GitHub repository URL in the abstract.
func extractRepoURL(summary string) string {
	return repoPattern.FindString(summary)
}

// collapseWhitespace normalizes runs of whitespace (arXiv titles wrap
// with embedded newlines) to single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
