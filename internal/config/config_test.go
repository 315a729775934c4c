package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/domain"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "training-data", cfg.DocsDir)
	assert.Equal(t, 500, cfg.Chunker.Size)
	assert.Equal(t, 50, cfg.Chunker.Overlap)
	assert.Equal(t, 5, cfg.Query.TopK)
	assert.Equal(t, "ollama", cfg.Embedder.Type)
	assert.Equal(t, 300, cfg.LLM.TimeoutSecs)
	require.NoError(t, cfg.Validate())
}

func TestLoadAppliesDefaultsToPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("docs_dir: my-docs\nchunker:\n  size: 200\n  overlap: 40\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "my-docs", cfg.DocsDir)
	assert.Equal(t, 200, cfg.Chunker.Size)
	assert.Equal(t, 40, cfg.Chunker.Overlap)
	assert.Equal(t, "nomic-embed-text", cfg.Embedder.Model)
	assert.Equal(t, "http://localhost:11434", cfg.Embedder.BaseURL)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunker: [unclosed"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Query.TopK = 9
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"overlap equals size", func(c *AppConfig) { c.Chunker.Overlap = c.Chunker.Size }},
		{"overlap exceeds size", func(c *AppConfig) { c.Chunker.Overlap = c.Chunker.Size + 1 }},
		{"negative overlap", func(c *AppConfig) { c.Chunker.Overlap = -1 }},
		{"zero size", func(c *AppConfig) { c.Chunker.Size = 0 }},
		{"zero top_k", func(c *AppConfig) { c.Query.TopK = 0 }},
		{"unknown embedder", func(c *AppConfig) { c.Embedder.Type = "quantum" }},
		{"unknown llm", func(c *AppConfig) { c.LLM.Type = "quantum" }},
		{"zero embedder timeout", func(c *AppConfig) { c.Embedder.TimeoutSecs = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidConfig)
		})
	}
}
