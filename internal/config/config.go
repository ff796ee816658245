// Package config loads and validates the paperdex configuration.
//
// Configuration is resolved in priority order:
//  1. Built-in defaults
//  2. Config file (~/.paperdex/config.yaml, or the path given explicitly)
//  3. Environment variables (PAPERDEX_*)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Entry kinds stored in the knowledge base.
const (
	// DefaultChunkWords is the word-window size for paper text.
	DefaultChunkWords = 500
	// DefaultMaxDocuments is the default paper cap per topic crawl.
	DefaultMaxDocuments = 5
	// DefaultMaxResults is the default passage count per question.
	DefaultMaxResults = 3
)

// Config represents the complete paperdex configuration.
type Config struct {
	Version    int              `yaml:"version"`
	Paths      PathsConfig      `yaml:"paths"`
	Discovery  DiscoveryConfig  `yaml:"discovery"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	GitHub     GitHubConfig     `yaml:"github"`
	Server     ServerConfig     `yaml:"server"`
}

// PathsConfig configures on-disk locations.
type PathsConfig struct {
	// DataDir holds the vector index and the entries database.
	DataDir string `yaml:"data_dir"`
}

// DiscoveryConfig configures the arXiv discovery client.
type DiscoveryConfig struct {
	// BaseURL is the arXiv query API endpoint.
	BaseURL string `yaml:"base_url"`
	// MaxDocuments caps how many papers one topic crawl ingests.
	MaxDocuments int `yaml:"max_documents"`
}

// IngestConfig configures chunking during ingestion.
type IngestConfig struct {
	// ChunkWords is the maximum words per chunk for paper pages.
	ChunkWords int `yaml:"chunk_words"`
	// RepoChunkWords is the maximum words per chunk for repository artifacts.
	RepoChunkWords int `yaml:"repo_chunk_words"`
	// DownloadTimeout bounds a single PDF download, in seconds.
	DownloadTimeout int `yaml:"download_timeout"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider selects the embedder: "ollama" (default) or "hash" (offline).
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	BatchSize  int    `yaml:"batch_size"`
	// OllamaHost is the Ollama API endpoint (default: http://localhost:11434).
	OllamaHost string `yaml:"ollama_host"`
	// CacheSize is the number of embeddings kept in the LRU cache.
	CacheSize int `yaml:"cache_size"`
}

// RetrievalConfig configures query-time behavior.
type RetrievalConfig struct {
	// MaxResults is the default number of passages returned per question.
	MaxResults int `yaml:"max_results"`
}

// GitHubConfig configures the repository context fetcher.
type GitHubConfig struct {
	// Token is an optional GitHub API token for higher rate limits.
	Token string `yaml:"token"`
	// FetchTimeout bounds a single artifact fetch, in seconds.
	FetchTimeout int `yaml:"fetch_timeout"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Transport string `yaml:"transport"`
	LogLevel  string `yaml:"log_level"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			DataDir: defaultDataDir(),
		},
		Discovery: DiscoveryConfig{
			BaseURL:      "http://export.arxiv.org/api/query",
			MaxDocuments: DefaultMaxDocuments,
		},
		Ingest: IngestConfig{
			ChunkWords:      DefaultChunkWords,
			RepoChunkWords:  DefaultChunkWords,
			DownloadTimeout: 60,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "ollama",
			Model:      "nomic-embed-text",
			Dimensions: 0, // auto-detect
			BatchSize:  32,
			OllamaHost: "http://localhost:11434",
			CacheSize:  1000,
		},
		Retrieval: RetrievalConfig{
			MaxResults: DefaultMaxResults,
		},
		GitHub: GitHubConfig{
			FetchTimeout: 15,
		},
		Server: ServerConfig{
			Transport: "stdio",
			LogLevel:  "info",
		},
	}
}

// Load reads configuration from the given path, falling back to defaults
// when the file does not exist. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the given path as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Ingest.ChunkWords <= 0 {
		return fmt.Errorf("ingest.chunk_words must be positive, got %d", c.Ingest.ChunkWords)
	}
	if c.Ingest.RepoChunkWords <= 0 {
		return fmt.Errorf("ingest.repo_chunk_words must be positive, got %d", c.Ingest.RepoChunkWords)
	}
	if c.Discovery.MaxDocuments <= 0 {
		return fmt.Errorf("discovery.max_documents must be positive, got %d", c.Discovery.MaxDocuments)
	}
	if c.Retrieval.MaxResults <= 0 {
		return fmt.Errorf("retrieval.max_results must be positive, got %d", c.Retrieval.MaxResults)
	}
	switch c.Embeddings.Provider {
	case "ollama", "hash":
	default:
		return fmt.Errorf("embeddings.provider must be ollama or hash, got %q", c.Embeddings.Provider)
	}
	return nil
}

// applyEnv applies PAPERDEX_* environment overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv("PAPERDEX_DATA_DIR"); v != "" {
		c.Paths.DataDir = v
	}
	if v := os.Getenv("PAPERDEX_ARXIV_URL"); v != "" {
		c.Discovery.BaseURL = v
	}
	if v := os.Getenv("PAPERDEX_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("PAPERDEX_EMBED_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("PAPERDEX_EMBED_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("PAPERDEX_GITHUB_TOKEN"); v != "" {
		c.GitHub.Token = v
	}
	if v := os.Getenv("PAPERDEX_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("PAPERDEX_MAX_DOCUMENTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Discovery.MaxDocuments = n
		}
	}
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "paperdex", "config.yaml")
	}
	return filepath.Join(home, ".paperdex", "config.yaml")
}

// defaultDataDir returns the default data directory.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "paperdex", "db")
	}
	return filepath.Join(home, ".paperdex", "db")
}
