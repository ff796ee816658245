package repoctx

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	gh "github.com/google/go-github/v80/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient returns a go-github client pointed at the test server.
func newTestClient(t *testing.T, srv *httptest.Server) *gh.Client {
	t.Helper()
	client := gh.NewClient(nil)
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base
	return client
}

// contentJSON renders a GitHub contents API response body.
func contentJSON(path, text string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(text))
	return fmt.Sprintf(`{"type":"file","encoding":"base64","name":%q,"path":%q,"content":%q}`,
		path, path, encoded)
}

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		owner   string
		repo    string
		wantErr bool
	}{
		{"plain repo", "https://github.com/user/project", "user", "project", false},
		{"with path suffix", "https://github.com/user/project/tree/main", "user", "project", false},
		{"hyphens and underscores", "https://github.com/a-b/c_d", "a-b", "c_d", false},
		{"missing repo", "https://github.com/user", "", "", true},
		{"wrong host", "https://gitlab.com/user/project", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, err := ParseRepoURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.owner, owner)
			assert.Equal(t, tt.repo, repo)
		})
	}
}

func TestFetch_ReadmeAndManifest(t *testing.T) {
	// Given: a repo with a README and a requirements.txt
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/user/project/readme", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, contentJSON("README.md", "# Project\nusage notes"))
	})
	mux.HandleFunc("/repos/user/project/contents/requirements.txt", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, contentJSON("requirements.txt", "torch==2.1\nnumpy"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewFetcher(WithClient(newTestClient(t, srv)))

	// When: fetching repository context
	got, err := f.Fetch(context.Background(), "https://github.com/user/project")

	// Then: both artifacts come back decoded
	require.NoError(t, err)
	assert.Equal(t, "# Project\nusage notes", got.Readme)
	assert.Equal(t, "torch==2.1\nnumpy", got.Manifest)
}

func TestFetch_ManifestFallbackProbe(t *testing.T) {
	// Given: no requirements.txt but a go.mod
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/user/gomodule/readme", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, contentJSON("README.md", "readme body"))
	})
	mux.HandleFunc("/repos/user/gomodule/contents/go.mod", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, contentJSON("go.mod", "module example.com/m"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewFetcher(WithClient(newTestClient(t, srv)))

	got, err := f.Fetch(context.Background(), "https://github.com/user/gomodule")

	require.NoError(t, err)
	assert.Equal(t, "module example.com/m", got.Manifest)
}

func TestFetch_MissingReadmeIsError(t *testing.T) {
	// Given: a repo where everything 404s
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(WithClient(newTestClient(t, srv)))

	got, err := f.Fetch(context.Background(), "https://github.com/user/ghost")

	// Then: the caller gets the error and an empty context
	assert.Error(t, err)
	assert.Empty(t, got.Readme)
	assert.Empty(t, got.Manifest)
}

func TestFetch_MalformedURL(t *testing.T) {
	f := NewFetcher()

	_, err := f.Fetch(context.Background(), "https://github.com/onlyowner")

	assert.Error(t, err)
}
