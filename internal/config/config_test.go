package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/patternrank/internal/embedder"
	"github.com/dshills/patternrank/internal/searcher"
)

// isolate runs the test from an empty directory with no provider keys set
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv(embedder.EnvJinaAPIKey, "")
	t.Setenv(embedder.EnvOpenAIAPIKey, "")
	return dir
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "patternrank.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultCorpusPath, cfg.CorpusPath)
	assert.Equal(t, DefaultCollection, cfg.Collection)
	assert.Equal(t, searcher.DefaultLimit, cfg.TopK)
	assert.Equal(t, "hybrid", cfg.Mode)
	assert.Equal(t, "degrade", cfg.Policy)
	assert.InDelta(t, 0.6, cfg.Weights.Lexical, 1e-9)
	assert.InDelta(t, 0.4, cfg.Weights.Semantic, 1e-9)
	assert.InDelta(t, 1.5, cfg.BM25.K1, 1e-9)
	assert.InDelta(t, 0.75, cfg.BM25.B, 1e-9)
	assert.Equal(t, 10*time.Second, cfg.Embedding.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Vector.Timeout)
	assert.True(t, cfg.Semantic.Enabled)
	assert.NotEmpty(t, cfg.DBPath)
}

func TestLoadFile(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, dir, `
corpus_path: ./ui/patterns.json
collection: design_system
top_k: 5
mode: lexical
policy: require_hybrid
weights:
  lexical: 0.7
  semantic: 0.3
embedding:
  provider: local
  timeout: 3s
vector:
  timeout: 750ms
`)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "./ui/patterns.json", cfg.CorpusPath)
	assert.Equal(t, "design_system", cfg.Collection)
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, "lexical", cfg.Mode)
	assert.Equal(t, "require_hybrid", cfg.Policy)
	assert.InDelta(t, 0.7, cfg.Weights.Lexical, 1e-9)
	assert.Equal(t, "local", cfg.Embedding.Provider)
	assert.Equal(t, 3*time.Second, cfg.Embedding.Timeout)
	assert.Equal(t, 750*time.Millisecond, cfg.Vector.Timeout)
}

func TestLoadExplicitPath(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("top_k: 7\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.TopK)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, dir, "top_k: 5\n")
	t.Setenv("PATTERNRANK_TOP_K", "12")
	t.Setenv("PATTERNRANK_EMBEDDING_PROVIDER", "local")
	t.Setenv("PATTERNRANK_SEMANTIC_ENABLED", "false")
	t.Setenv("PATTERNRANK_VECTOR_TIMEOUT", "2s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.TopK)
	assert.Equal(t, "local", cfg.Embedding.Provider)
	assert.False(t, cfg.Semantic.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Vector.Timeout)
}

func TestValidate(t *testing.T) {
	isolate(t)

	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty collection", func(c *Config) { c.Collection = "" }},
		{"zero top_k", func(c *Config) { c.TopK = 0 }},
		{"top_k above max", func(c *Config) { c.TopK = searcher.MaxLimit + 1 }},
		{"unknown mode", func(c *Config) { c.Mode = "fuzzy" }},
		{"unknown policy", func(c *Config) { c.Policy = "retry" }},
		{"weights do not sum to one", func(c *Config) { c.Weights.Lexical = 0.8 }},
		{"negative weight", func(c *Config) { c.Weights = WeightsConfig{Lexical: 1.2, Semantic: -0.2} }},
		{"k1 not positive", func(c *Config) { c.BM25.K1 = 0 }},
		{"b above one", func(c *Config) { c.BM25.B = 1.5 }},
		{"embedding timeout", func(c *Config) { c.Embedding.Timeout = 0 }},
		{"vector timeout", func(c *Config) { c.Vector.Timeout = -time.Second }},
		{"negative rate", func(c *Config) { c.Embedding.RequestsPerSecond = -1 }},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "cohere" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestValidateHostedProviderNeedsKey(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Embedding.Provider = embedder.ProviderOpenAI
	assert.ErrorIs(t, cfg.Validate(), ErrMissingAPIKey)

	// Disabling semantic retrieval makes the key irrelevant
	cfg.Semantic.Enabled = false
	assert.NoError(t, cfg.Validate())

	cfg.Semantic.Enabled = true
	cfg.Embedding.APIKey = "sk-test"
	assert.NoError(t, cfg.Validate())

	cfg.Embedding.APIKey = ""
	t.Setenv(embedder.EnvOpenAIAPIKey, "sk-env")
	assert.NoError(t, cfg.Validate())
}

func TestDerivedConfigs(t *testing.T) {
	isolate(t)
	t.Setenv("PATTERNRANK_EMBEDDING_PROVIDER", "local")
	t.Setenv("PATTERNRANK_MODE", "semantic")

	cfg, err := Load("")
	require.NoError(t, err)

	fus, err := cfg.Fusion()
	require.NoError(t, err)
	assert.InDelta(t, 0.6, fus.Weights().Lexical, 1e-9)

	sc := cfg.SearcherConfig()
	assert.Equal(t, searcher.ModeSemantic, sc.Mode)
	assert.Equal(t, searcher.PolicyDegrade, sc.Policy)
	assert.Equal(t, cfg.TopK, sc.DefaultLimit)

	ec := cfg.EmbedderConfig()
	assert.Equal(t, "local", ec.Provider)
	assert.Equal(t, cfg.Embedding.Timeout, ec.Timeout)

	assert.Len(t, cfg.SemanticOptions(), 2)
	assert.Len(t, cfg.LexicalOptions(), 1)
}
