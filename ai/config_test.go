package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, cfg.EmbeddingHost, cfg.ScorerHost)
}

func TestNewConfig_Options(t *testing.T) {
	cfg := NewConfig(
		WithHost("http://models.local:9100"),
		WithEmbeddingModel("text-embedding-3-small"),
		WithScorerModel("gpt-4o-mini"),
	)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://models.local:9100/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://models.local:9100/v1", cfg.ScorerHost)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, "gpt-4o-mini", cfg.ScorerModel)
}

func TestConfig_Normalize(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{"bare host", "http://localhost:11434", "http://localhost:11434/v1"},
		{"trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"already normalized", "http://localhost:11434/v1", "http://localhost:11434/v1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig(WithHost(tt.host))
			cfg.Normalize()
			assert.Equal(t, tt.want, cfg.EmbeddingHost)
			assert.Equal(t, tt.want, cfg.ScorerHost)
		})
	}
}

func TestConfig_Validate_Missing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing embedding host", func(c *Config) { c.EmbeddingHost = "" }},
		{"missing embedding model", func(c *Config) { c.EmbeddingModel = "" }},
		{"missing scorer host", func(c *Config) { c.ScorerHost = "" }},
		{"missing scorer model", func(c *Config) { c.ScorerModel = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DOCSEARCH_EMBEDDING_MODEL", "custom-embedder")
	t.Setenv("DOCSEARCH_SCORER_HOST", "http://scorer.local:8000")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "custom-embedder", cfg.EmbeddingModel)
	assert.Equal(t, "http://scorer.local:8000", cfg.ScorerHost)
	// Unset variables keep defaults.
	assert.Equal(t, DefaultConfig().EmbeddingHost, cfg.EmbeddingHost)
}
