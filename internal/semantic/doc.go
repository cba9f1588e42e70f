// Package semantic ranks patterns by embedding similarity.
//
// A Retriever turns the natural-language requirements sentence into a vector
// with an embedder.Embedder and queries a VectorIndex for the nearest pattern
// vectors. Each call runs under its own deadline. Failures surface as
// *types.RetrievalError so the caller can tell a transient outage
// (types.ErrRetrievalUnavailable) from a missing collection
// (types.ErrCollectionNotFound) and pick a degradation policy.
package semantic
