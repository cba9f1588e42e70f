// Package types provides shared type definitions for patternrank.
//
// This package defines the domain types passed between the retrieval
// components: curated UI component patterns, the requirements a caller
// wants matched, per-retriever and fused scores, and explanations.
//
// # Patterns
//
// Pattern is an immutable record loaded once from the corpus:
//
//	button := types.Pattern{
//	    ID:       "shadcn-button",
//	    Name:     "Button",
//	    Category: "form",
//	    Metadata: types.PatternMetadata{
//	        Props:    []types.Prop{{Name: "variant", Type: "string"}},
//	        Variants: []types.Variant{{Name: "primary"}},
//	    },
//	}
//
// # Requirements
//
// Requirements arrive as JSON from the requirements-proposal agents. Props may
// be plain names, {name, type} objects or a name-to-type map; UnmarshalJSON
// normalizes all of them to []Prop so nothing downstream branches on shape.
//
// # Scores and ranks
//
// Ranks are 1-based. A pattern a retriever did not return carries
// RankNotPresent rather than 0. Fused scores are normalized to [0, 1].
//
// # Errors
//
// Semantic retrieval failures are reported as *RetrievalError and match one of
// ErrEmbeddingFailed, ErrVectorDBUnavailable or ErrCollectionNotFound with
// errors.Is.
package types
