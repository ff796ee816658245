package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 500, cfg.Ingest.ChunkWords)
	assert.Equal(t, 5, cfg.Discovery.MaxDocuments)
	assert.Equal(t, 3, cfg.Retrieval.MaxResults)
	assert.Equal(t, "ollama", cfg.Embeddings.Provider)
	assert.Equal(t, "http://export.arxiv.org/api/query", cfg.Discovery.BaseURL)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	// Given: a path that does not exist
	path := filepath.Join(t.TempDir(), "nope.yaml")

	// When: loaded
	cfg, err := Load(path)

	// Then: defaults apply without error
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Ingest.ChunkWords)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	// Given: a config file with overrides
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("ingest:\n  chunk_words: 200\nretrieval:\n  max_results: 7\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	// When: loaded
	cfg, err := Load(path)

	// Then: overridden fields change, others keep defaults
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Ingest.ChunkWords)
	assert.Equal(t, 7, cfg.Retrieval.MaxResults)
	assert.Equal(t, "ollama", cfg.Embeddings.Provider)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("embeddings:\n  provider: ollama\n"), 0o644))

	t.Setenv("PAPERDEX_EMBED_PROVIDER", "hash")
	t.Setenv("PAPERDEX_MAX_DOCUMENTS", "2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hash", cfg.Embeddings.Provider)
	assert.Equal(t, 2, cfg.Discovery.MaxDocuments)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero chunk words", func(c *Config) { c.Ingest.ChunkWords = 0 }},
		{"negative max documents", func(c *Config) { c.Discovery.MaxDocuments = -1 }},
		{"unknown provider", func(c *Config) { c.Embeddings.Provider = "openai" }},
		{"zero max results", func(c *Config) { c.Retrieval.MaxResults = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := NewConfig()
	cfg.Ingest.ChunkWords = 250
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 250, loaded.Ingest.ChunkWords)
}
