// Package repoctx fetches auxiliary plain-text artifacts from a paper's
// linked code repository: a readme-like document and a dependency manifest.
package repoctx

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"

	kberrors "github.com/paperdex/paperdex/internal/errors"
)

// DefaultFetchTimeout bounds a single artifact fetch.
const DefaultFetchTimeout = 15 * time.Second

// manifestProbes are dependency manifest paths tried in order.
// The first one found wins.
var manifestProbes = []string{"requirements.txt", "go.mod", "package.json"}

// Context holds the auxiliary text fetched for one repository.
// Either field is an empty string when the artifact is unavailable.
type Context struct {
	Readme   string
	Manifest string
}

// Fetcher retrieves repository artifacts through the GitHub API.
type Fetcher struct {
	gh      *gh.Client
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithToken authenticates API calls for higher rate limits.
func WithToken(token string) Option {
	return func(f *Fetcher) {
		if token != "" {
			f.gh = f.gh.WithAuthToken(token)
		}
	}
}

// WithClient overrides the go-github client, used for testing.
func WithClient(client *gh.Client) Option {
	return func(f *Fetcher) { f.gh = client }
}

// WithTimeout sets the per-artifact fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// NewFetcher creates a repository context fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		gh:      gh.NewClient(nil),
		timeout: DefaultFetchTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the readme and dependency manifest for repoURL.
// Missing artifacts yield empty strings; only a malformed URL is an error.
// A readme fetch failure is returned as an error so the caller can log it,
// but the returned Context is still usable (both fields empty).
func (f *Fetcher) Fetch(ctx context.Context, repoURL string) (Context, error) {
	owner, repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return Context{}, err
	}

	result := Context{}

	readmeCtx, cancel := context.WithTimeout(ctx, f.timeout)
	readme, _, err := f.gh.Repositories.GetReadme(readmeCtx, owner, repo, nil)
	cancel()
	if err != nil {
		f.logger.Warn("readme fetch failed",
			slog.String("repo", owner+"/"+repo),
			slog.String("error", err.Error()))
		return result, kberrors.Wrap(kberrors.ErrCodeRepoFetchFailed, err)
	}

	content, err := readme.GetContent()
	if err != nil {
		return result, kberrors.Wrap(kberrors.ErrCodeRepoFetchFailed, err)
	}
	result.Readme = content

	// Manifest is best-effort: absence is normal
	result.Manifest = f.fetchManifest(ctx, owner, repo)

	f.logger.Debug("repository context fetched",
		slog.String("repo", owner+"/"+repo),
		slog.Bool("has_manifest", result.Manifest != ""))

	return result, nil
}

// fetchManifest probes known manifest paths and returns the first hit.
func (f *Fetcher) fetchManifest(ctx context.Context, owner, repo string) string {
	for _, path := range manifestProbes {
		probeCtx, cancel := context.WithTimeout(ctx, f.timeout)
		file, _, _, err := f.gh.Repositories.GetContents(probeCtx, owner, repo, path, nil)
		cancel()
		if err != nil || file == nil {
			continue
		}

		content, err := file.GetContent()
		if err != nil {
			continue
		}
		if strings.TrimSpace(content) != "" {
			return content
		}
	}
	return ""
}

// ParseRepoURL extracts owner and repository name from a GitHub URL
// like https://github.com/owner/repo.
func ParseRepoURL(repoURL string) (owner, repo string, err error) {
	u, err := url.Parse(repoURL)
	if err != nil {
		return "", "", kberrors.Wrap(kberrors.ErrCodeInvalidInput, err)
	}
	if !strings.EqualFold(u.Host, "github.com") {
		return "", "", kberrors.New(kberrors.ErrCodeInvalidInput,
			"not a github.com repository URL: "+repoURL, nil)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", kberrors.New(kberrors.ErrCodeInvalidInput,
			"repository URL missing owner/name: "+repoURL, nil)
	}

	return parts[0], parts[1], nil
}
