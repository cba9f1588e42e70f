package embedder

import (
	"context"
	"fmt"
	"testing"
)

func BenchmarkLocalProvider(b *testing.B) {
	provider, err := NewLocalProvider()
	if err != nil {
		b.Fatalf("NewLocalProvider() error = %v", err)
	}
	defer provider.Close()

	ctx := context.Background()

	b.Run("single-embedding", func(b *testing.B) {
		req := EmbeddingRequest{
			Text: "A Button component with variant, size and disabled props, with primary and ghost variants.",
		}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := provider.GenerateEmbedding(ctx, req); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("batch-50", func(b *testing.B) {
		texts := make([]string, 50)
		for i := range texts {
			texts[i] = fmt.Sprintf("Pattern %d. Container that groups related content", i)
		}
		req := BatchEmbeddingRequest{Texts: texts}

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := provider.GenerateBatch(ctx, req); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkNormalizeVector(b *testing.B) {
	for _, size := range []int{384, 1024, 1536} {
		vec := make([]float32, size)
		for i := range vec {
			vec[i] = float32(i%7) + 0.5
		}
		b.Run(fmt.Sprintf("dim-%d", size), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = NormalizeVector(vec)
			}
		})
	}
}
