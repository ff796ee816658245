package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtract_DownloadError(t *testing.T) {
	// Given: a server that always 404s
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	e := NewExtractor()

	// When: extracting
	pages, err := e.Extract(context.Background(), srv.URL+"/missing.pdf")

	// Then: no pages and an error for the caller to log and skip
	assert.Error(t, err)
	assert.Nil(t, pages)
}

func TestExtract_CorruptDocument(t *testing.T) {
	// Given: a server returning bytes that are not a PDF
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("this is not a pdf"))
	}))
	defer srv.Close()

	e := NewExtractor()

	pages, err := e.Extract(context.Background(), srv.URL+"/fake.pdf")

	assert.Error(t, err)
	assert.Nil(t, pages)
}

func TestExtract_DownloadTimeout(t *testing.T) {
	// Given: a server that stalls longer than the timeout
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	e := NewExtractor(WithTimeout(20 * time.Millisecond))

	pages, err := e.Extract(context.Background(), srv.URL+"/slow.pdf")

	assert.Error(t, err)
	assert.Nil(t, pages)
}

func TestExtract_UnreachableHost(t *testing.T) {
	e := NewExtractor(WithTimeout(100 * time.Millisecond))

	pages, err := e.Extract(context.Background(), "http://127.0.0.1:1/paper.pdf")

	assert.Error(t, err)
	assert.Nil(t, pages)
}
