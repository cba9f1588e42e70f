// Package embedder generates vector embeddings for pattern documents and
// requirement sentences using various providers.
//
// The embedder supports hosted providers (Jina AI, OpenAI) speaking the
// common /embeddings wire format, plus an offline feature-hashing provider
// for development and tests.
//
// # Basic Usage
//
//	emb, err := embedder.New(embedder.Config{Provider: "openai"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	result, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
//	    Text: "A Button component with variant and size props.",
//	})
//	fmt.Printf("Vector dimension: %d\n", len(result.Vector))
//
// # Provider Selection
//
// When Config.Provider is empty the provider is detected from the environment:
//
//  1. If PATTERNRANK_EMBEDDING_PROVIDER is set → use specified provider
//  2. Else if JINA_API_KEY is set → use Jina AI
//  3. Else if OPENAI_API_KEY is set → use OpenAI
//  4. Else → fallback to local provider (offline mode)
//
// Hosted providers accept a BaseURL override, which makes any
// OpenAI-compatible endpoint usable, and an optional client-side request
// rate limit.
//
// # Error Handling
//
// Transient failures are retried with exponential backoff. Every failure
// wraps ErrProviderFailed; rejected credentials additionally match ErrAuth
// (never retried) and throttling matches ErrRateLimited:
//
//	_, err := emb.GenerateBatch(ctx, req)
//	if errors.Is(err, embedder.ErrAuth) {
//	    // fix the API key
//	}
//
// Embeddings are never cached. Pattern vectors live in the vector index and
// requirement vectors are computed per request.
package embedder
