// Package extract downloads documents and extracts ordered per-page text.
package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	kberrors "github.com/paperdex/paperdex/internal/errors"
)

// DefaultDownloadTimeout bounds a single PDF download.
const DefaultDownloadTimeout = 60 * time.Second

// maxPDFBytes caps downloaded document size.
const maxPDFBytes = 100 << 20 // 100 MB

// Page is one page of extracted text.
type Page struct {
	// Text is the raw page text; may be empty for figure-only pages.
	Text string
	// Number is the 1-based page number.
	Number int
}

// Extractor downloads PDFs and extracts per-page text.
type Extractor struct {
	http    *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithTimeout sets the per-download timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) { e.timeout = d }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(e *Extractor) { e.http = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// NewExtractor creates a PDF extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		http:    &http.Client{},
		timeout: DefaultDownloadTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract downloads the document at contentURL and returns its pages in
// ascending page order. Pages with no extractable text are omitted.
// On any download or parse failure it returns nil pages and the error;
// callers treat that as "skip document".
func (e *Extractor) Extract(ctx context.Context, contentURL string) ([]Page, error) {
	tmpPath, err := e.download(ctx, contentURL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rmErr := os.Remove(tmpPath); rmErr != nil {
			e.logger.Warn("failed to remove temp pdf",
				slog.String("path", tmpPath),
				slog.String("error", rmErr.Error()))
		}
	}()

	pages, err := readPages(tmpPath)
	if err != nil {
		return nil, kberrors.Wrap(kberrors.ErrCodePDFUnreadable, err)
	}

	e.logger.Debug("pdf extracted",
		slog.String("url", contentURL),
		slog.Int("pages", len(pages)))

	return pages, nil
}

// download fetches the PDF to a temp file and returns its path.
func (e *Extractor) download(ctx context.Context, contentURL string) (string, error) {
	dlCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(dlCtx, http.MethodGet, contentURL, nil)
	if err != nil {
		return "", kberrors.Wrap(kberrors.ErrCodeDownloadFailed, err)
	}

	resp, err := e.http.Do(req)
	if err != nil {
		return "", kberrors.Wrap(kberrors.ErrCodeDownloadFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", kberrors.New(kberrors.ErrCodeDownloadFailed,
			fmt.Sprintf("download returned status %d", resp.StatusCode), nil)
	}

	tmp, err := os.CreateTemp("", "paperdex-*.pdf")
	if err != nil {
		return "", kberrors.Wrap(kberrors.ErrCodeDownloadFailed, err)
	}

	_, err = io.Copy(tmp, io.LimitReader(resp.Body, maxPDFBytes))
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", kberrors.Wrap(kberrors.ErrCodeDownloadFailed, err)
	}

	return tmp.Name(), nil
}

// readPages extracts text from every page of the PDF at path.
func readPages(path string) ([]Page, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer func() { _ = f.Close() }()

	numPages := reader.NumPage()
	pages := make([]Page, 0, numPages)

	for n := 1; n <= numPages; n++ {
		page := reader.Page(n)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page doesn't fail the document
			continue
		}

		if strings.TrimSpace(text) == "" {
			continue
		}

		pages = append(pages, Page{Text: text, Number: n})
	}

	return pages, nil
}
