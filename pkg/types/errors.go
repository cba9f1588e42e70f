package types

import (
	"errors"
	"fmt"
)

// Domain errors for type validation
var (
	ErrMissingPatternID   = errors.New("pattern id is required")
	ErrMissingPatternName = errors.New("pattern name is required")
	ErrDuplicatePatternID = errors.New("duplicate pattern id")
	ErrMalformedProps     = errors.New("malformed props")
	ErrInvalidConfidence  = errors.New("confidence must be between 0 and 1")
	ErrEmptyRationale     = errors.New("rationale cannot be empty")
	ErrInvalidWeights     = errors.New("fusion weights must be in [0,1] and sum to 1.0")
)

// Retrieval errors. Embedding and vector database failures are transient and
// match ErrRetrievalUnavailable; a missing collection is a setup problem and
// does not.
var (
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	ErrEmbeddingFailed      = fmt.Errorf("%w: embedding service error", ErrRetrievalUnavailable)
	ErrVectorDBUnavailable  = fmt.Errorf("%w: vector database unavailable", ErrRetrievalUnavailable)
	ErrCollectionNotFound   = errors.New("vector collection not found")
)

// RetrievalErrorKind classifies a semantic retrieval failure
type RetrievalErrorKind string

const (
	KindEmbedding          RetrievalErrorKind = "embedding"
	KindCollectionNotFound RetrievalErrorKind = "collection_not_found"
	KindVectorDB           RetrievalErrorKind = "vector_db"
)

// RetrievalError wraps a semantic retrieval failure with its kind
type RetrievalError struct {
	Kind       RetrievalErrorKind
	Op         string
	Collection string
	Err        error
}

// NewRetrievalError builds a RetrievalError, deriving the kind from err
func NewRetrievalError(op, collection string, err error) *RetrievalError {
	kind := KindVectorDB
	switch {
	case errors.Is(err, ErrCollectionNotFound):
		kind = KindCollectionNotFound
	case errors.Is(err, ErrEmbeddingFailed):
		kind = KindEmbedding
	}
	return &RetrievalError{Kind: kind, Op: op, Collection: collection, Err: err}
}

func (e *RetrievalError) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("%s (collection %q): %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}
