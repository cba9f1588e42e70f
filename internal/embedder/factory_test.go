package embedder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable the factory consults
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvProvider, "")
	t.Setenv(EnvJinaAPIKey, "")
	t.Setenv(EnvOpenAIAPIKey, "")
}

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		jinaKey  string
		openKey  string
		expected string
	}{
		{"explicit provider wins", "OpenAI", "jina-key", "", ProviderOpenAI},
		{"jina key", "", "jina-key", "openai-key", ProviderJina},
		{"openai key", "", "", "openai-key", ProviderOpenAI},
		{"no keys falls back to local", "", "", "", ProviderLocal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(EnvProvider, tt.provider)
			t.Setenv(EnvJinaAPIKey, tt.jinaKey)
			t.Setenv(EnvOpenAIAPIKey, tt.openKey)

			assert.Equal(t, tt.expected, DetectProvider())
		})
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Run("local provider (no keys)", func(t *testing.T) {
		clearEnv(t)
		emb, err := NewFromEnv()
		require.NoError(t, err)
		defer emb.Close()
		assert.Equal(t, ProviderLocal, emb.Provider())
	})

	t.Run("jina with api key", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(EnvProvider, "jina")
		t.Setenv(EnvJinaAPIKey, "test-jina-key")

		emb, err := NewFromEnv()
		require.NoError(t, err)
		defer emb.Close()
		assert.Equal(t, ProviderJina, emb.Provider())
		assert.Equal(t, JinaDimension, emb.Dimension())
	})

	t.Run("openai without api key", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(EnvProvider, "openai")

		_, err := NewFromEnv()
		assert.ErrorIs(t, err, ErrNoProviderEnabled)
	})

	t.Run("unknown provider", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(EnvProvider, "unknown")

		_, err := NewFromEnv()
		assert.ErrorIs(t, err, ErrUnsupportedModel)
	})

	t.Run("auto-detect openai", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(EnvOpenAIAPIKey, "test-key")

		emb, err := NewFromEnv()
		require.NoError(t, err)
		defer emb.Close()
		assert.Equal(t, ProviderOpenAI, emb.Provider())
		assert.Equal(t, DefaultOpenAIModel, emb.Model())
	})
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantErr  error
		wantProv string
	}{
		{
			name:     "jina with key",
			cfg:      Config{Provider: ProviderJina, APIKey: "test-key"},
			wantProv: ProviderJina,
		},
		{
			name:     "openai with key and overrides",
			cfg:      Config{Provider: ProviderOpenAI, APIKey: "test-key", Model: "custom", BaseURL: "http://localhost:1234/v1", Timeout: time.Second},
			wantProv: ProviderOpenAI,
		},
		{
			name:     "local provider",
			cfg:      Config{Provider: "LOCAL"},
			wantProv: ProviderLocal,
		},
		{
			name:    "jina without key",
			cfg:     Config{Provider: ProviderJina},
			wantErr: ErrNoProviderEnabled,
		},
		{
			name:    "unknown provider",
			cfg:     Config{Provider: "word2vec"},
			wantErr: ErrUnsupportedModel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)

			emb, err := New(tt.cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer emb.Close()
			assert.Equal(t, tt.wantProv, emb.Provider())
		})
	}
}

func TestNewAppliesOptions(t *testing.T) {
	clearEnv(t)

	emb, err := New(Config{
		Provider:          ProviderOpenAI,
		APIKey:            "k",
		Model:             "custom-model",
		BaseURL:           "http://localhost:1234/v1/",
		Timeout:           2 * time.Second,
		RequestsPerSecond: 5,
		Burst:             2,
	})
	require.NoError(t, err)

	p, ok := emb.(*OpenAIProvider)
	require.True(t, ok)
	assert.Equal(t, "custom-model", p.Model())
	assert.Equal(t, "http://localhost:1234/v1", p.baseURL)
	assert.Equal(t, 2*time.Second, p.httpClient.Timeout)
	require.NotNil(t, p.limiter)
	assert.Equal(t, 2, p.limiter.Burst())
}
