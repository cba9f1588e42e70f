package embedder

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeHash(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", ComputeHash(""))
	assert.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", ComputeHash("hello world"))
	assert.Equal(t, ComputeHash("test"), ComputeHash("test"))
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     EmbeddingRequest
		wantErr error
	}{
		{"valid request", EmbeddingRequest{Text: "test text"}, nil},
		{"empty text", EmbeddingRequest{Text: ""}, ErrEmptyText},
		{"with model", EmbeddingRequest{Text: "test", Model: "custom-model"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.req)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateBatchRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     BatchEmbeddingRequest
		wantErr bool
	}{
		{"valid batch", BatchEmbeddingRequest{Texts: []string{"text1", "text2", "text3"}}, false},
		{"empty batch", BatchEmbeddingRequest{Texts: []string{}}, true},
		{"contains empty text", BatchEmbeddingRequest{Texts: []string{"text1", "", "text3"}}, true},
		{"with model", BatchEmbeddingRequest{Texts: []string{"a", "b"}, Model: "test-model"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBatchRequest(tt.req)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestErrorTaxonomy(t *testing.T) {
	assert.ErrorIs(t, ErrAuth, ErrProviderFailed)
	assert.ErrorIs(t, ErrRateLimited, ErrProviderFailed)
	assert.NotErrorIs(t, ErrAuth, ErrRateLimited)
}

func TestLocalProvider(t *testing.T) {
	provider := mustNewLocalProvider(t)
	ctx := context.Background()

	t.Run("provider metadata", func(t *testing.T) {
		assert.Equal(t, ProviderLocal, provider.Provider())
		assert.Equal(t, LocalDimension, provider.Dimension())
		assert.Equal(t, DefaultLocalModel, provider.Model())
	})

	t.Run("single embedding", func(t *testing.T) {
		emb, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "A Button component"})
		require.NoError(t, err)
		require.Len(t, emb.Vector, LocalDimension)
		assert.Equal(t, ProviderLocal, emb.Provider)
		assert.InDelta(t, 1.0, norm(emb.Vector), 1e-5)
	})

	t.Run("deterministic", func(t *testing.T) {
		a, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "card with shadow"})
		require.NoError(t, err)
		b, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "card with shadow"})
		require.NoError(t, err)
		assert.Equal(t, a.Vector, b.Vector)
	})

	t.Run("shared vocabulary is closer", func(t *testing.T) {
		query, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "A Button component with variant props"})
		require.NoError(t, err)
		near, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "Button. Clickable element. Props: variant size"})
		require.NoError(t, err)
		far, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: "Avatar. User image thumbnail"})
		require.NoError(t, err)

		assert.Greater(t, dot(query.Vector, near.Vector), dot(query.Vector, far.Vector))
	})

	t.Run("batch embedding", func(t *testing.T) {
		resp, err := provider.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: []string{"text1", "text2", "text3"}})
		require.NoError(t, err)
		require.Len(t, resp.Embeddings, 3)
		for _, emb := range resp.Embeddings {
			assert.Len(t, emb.Vector, LocalDimension)
		}
	})

	t.Run("validation errors", func(t *testing.T) {
		_, err := provider.GenerateEmbedding(ctx, EmbeddingRequest{Text: ""})
		assert.ErrorIs(t, err, ErrEmptyText)

		_, err = provider.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: []string{}})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("context cancellation", func(t *testing.T) {
		cctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := provider.GenerateEmbedding(cctx, EmbeddingRequest{Text: "test"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNormalizeVector(t *testing.T) {
	assert.InDelta(t, 1.0, norm(NormalizeVector([]float32{3, 4})), 1e-6)
	assert.InDelta(t, 1.0, norm(NormalizeVector([]float32{1, 0, 0})), 1e-6)

	v := NormalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	zero := []float32{0, 0, 0}
	assert.Equal(t, zero, NormalizeVector(zero))
}

func mustNewLocalProvider(t *testing.T) *LocalProvider {
	t.Helper()
	p, err := NewLocalProvider()
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
