package storage

import (
	"context"
	"errors"
	"time"

	"github.com/dshills/patternrank/internal/semantic"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
	// ErrDimensionMismatch is returned when a vector does not fit its collection
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidFilterKey is returned for payload keys that are not plain identifiers
	ErrInvalidFilterKey = errors.New("invalid filter key")
	// ErrInvalidCollection is returned for empty collection names or dimensions
	ErrInvalidCollection = errors.New("invalid collection")
)

// VectorStore defines the operations the indexer and status tools need on
// top of nearest-neighbor search
type VectorStore interface {
	semantic.VectorIndex

	// Collection operations
	CreateCollection(ctx context.Context, name string, dimension int) error
	GetCollection(ctx context.Context, name string) (*Collection, error)
	CollectionExists(ctx context.Context, name string) (bool, error)
	DeleteCollection(ctx context.Context, name string) error
	ListCollections(ctx context.Context) ([]*Collection, error)

	// Vector operations
	UpsertVector(ctx context.Context, collection string, record VectorRecord) error
	UpsertVectors(ctx context.Context, collection string, records []VectorRecord) error
	DeleteVector(ctx context.Context, collection, id string) error
	CountVectors(ctx context.Context, collection string) (int, error)

	// Index run bookkeeping
	RecordIndexRun(ctx context.Context, run *IndexRun) error
	LastIndexRun(ctx context.Context, collection string) (*IndexRun, error)

	// Database operations
	Ping(ctx context.Context) error
	Close() error
}

// Collection is a named set of vectors sharing one dimension
type Collection struct {
	Name        string
	Dimension   int
	VectorCount int
	CreatedAt   time.Time
}

// VectorRecord is one stored pattern embedding
type VectorRecord struct {
	ID      string
	Vector  []float32
	Payload map[string]string
}

// IndexRun records the outcome of one corpus indexing pass
type IndexRun struct {
	ID              int64         `json:"id"`
	Collection      string        `json:"collection"`
	Provider        string        `json:"provider"`
	Model           string        `json:"model"`
	PatternsIndexed int           `json:"patterns_indexed"`
	PatternsFailed  int           `json:"patterns_failed"`
	Duration        time.Duration `json:"duration"`
	CompletedAt     time.Time     `json:"completed_at"`
}
