// Package searcher ranks UI component patterns against structured
// requirements by combining a BM25 lexical retriever with an embedding based
// semantic retriever.
//
// The searcher provides three modes:
//   - Hybrid: both retrievers, fused with weighted min-max scores (default)
//   - Lexical: BM25 over the in-memory corpus only, no network access
//   - Semantic: embedding similarity against the vector index only
//
// # Basic Usage
//
//	s, err := searcher.NewSearcher(patterns, lex, sem, fusion.Default(), explain.New(), searcher.DefaultConfig())
//
//	resp, err := s.Search(ctx, searcher.SearchRequest{
//	    Requirements: types.Requirements{
//	        ComponentType: "Button",
//	        Props:         []types.Prop{{Name: "variant"}, {Name: "size"}},
//	        Variants:      []string{"primary"},
//	    },
//	    Limit: 5,
//	})
//
//	for _, r := range resp.Results {
//	    fmt.Printf("[%d] %s (score: %.2f) %s\n", r.FinalRank, r.Pattern.Name, r.FinalScore, r.Rationale)
//	}
//
// # Degradation
//
// The retrievers run concurrently and fusion starts only after both have
// returned. When the semantic leg fails the request policy decides:
//
//   - PolicyDegrade ranks with the lexical results alone, sets
//     SearchResponse.Degraded and reports why in SemanticStatus.
//   - PolicyRequireHybrid returns the *types.RetrievalError to the caller.
//
// In semantic mode a degraded request ranks with the lexical retriever
// instead of returning nothing.
//
// A Searcher built without a semantic retriever reports StatusDisabled,
// which keeps "hybrid turned off" distinct from "vector index unreachable".
package searcher
