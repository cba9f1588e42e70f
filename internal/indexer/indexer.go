package indexer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/patternrank/internal/corpus"
	"github.com/dshills/patternrank/internal/embedder"
	"github.com/dshills/patternrank/internal/storage"
	"github.com/dshills/patternrank/pkg/types"
)

// Default indexing parameters
const (
	DefaultBatchSize  = 20
	DefaultCollection = "ui_patterns"

	// ContentHashKey is the payload key holding the hash of the embedded document
	ContentHashKey = "content_hash"
)

var (
	// ErrIndexingInProgress is returned when another index run holds the lock
	ErrIndexingInProgress = errors.New("indexing already in progress")
	// ErrNoEmbedder is returned when the indexer was built without an embedder
	ErrNoEmbedder = errors.New("indexing requires an embedder")
)

// Indexer coordinates the indexing pipeline: document -> embed -> store
type Indexer struct {
	store    storage.VectorStore
	embedder embedder.Embedder
	lock     IndexLock
}

// Config contains configuration for the indexer
type Config struct {
	Collection string // Target collection (default: ui_patterns)
	Workers    int    // Number of concurrent batches (default: runtime.NumCPU())
	BatchSize  int    // Patterns per embedding request (default: 20)
	Recreate   bool   // Drop the collection before indexing
}

// Statistics contains statistics about the indexing operation
type Statistics struct {
	Collection      string
	Dimension       int
	PatternsIndexed int
	PatternsFailed  int
	Batches         int
	Duration        time.Duration
	ErrorMessages   []string
}

// New creates a new Indexer instance
func New(store storage.VectorStore, emb embedder.Embedder) *Indexer {
	return &Indexer{
		store:    store,
		embedder: emb,
	}
}

// IsIndexing reports whether an index run is active
func (idx *Indexer) IsIndexing() bool {
	return idx.lock.Held()
}

// IndexCorpus embeds every pattern and upserts it into the collection,
// creating the collection on first use. Failures of individual patterns or
// batches are collected in Statistics.ErrorMessages and do not stop the run.
func (idx *Indexer) IndexCorpus(ctx context.Context, patterns []types.Pattern, config *Config) (*Statistics, error) {
	if idx.embedder == nil {
		return nil, ErrNoEmbedder
	}
	if !idx.lock.TryAcquire() {
		return nil, ErrIndexingInProgress
	}
	defer idx.lock.Release()

	config = withDefaults(config)

	startTime := time.Now()
	stats := &Statistics{
		Collection:    config.Collection,
		ErrorMessages: make([]string, 0),
	}

	if config.Recreate {
		err := idx.store.DeleteCollection(ctx, config.Collection)
		if err != nil && !errors.Is(err, types.ErrCollectionNotFound) {
			return nil, fmt.Errorf("failed to drop collection: %w", err)
		}
	}

	valid := make([]types.Pattern, 0, len(patterns))
	for i, p := range patterns {
		if err := p.Validate(); err != nil {
			stats.PatternsFailed++
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("pattern %d: %v", i, err))
			continue
		}
		valid = append(valid, p)
	}

	if err := idx.indexPatterns(ctx, valid, config, stats); err != nil {
		return nil, fmt.Errorf("failed to index patterns: %w", err)
	}

	stats.Duration = time.Since(startTime)

	run := &storage.IndexRun{
		Collection:      config.Collection,
		Provider:        idx.embedder.Provider(),
		Model:           idx.embedder.Model(),
		PatternsIndexed: stats.PatternsIndexed,
		PatternsFailed:  stats.PatternsFailed,
		Duration:        stats.Duration,
	}
	if err := idx.store.RecordIndexRun(ctx, run); err != nil {
		log.Printf("indexer: failed to record index run: %v", err)
	}

	return stats, nil
}

func withDefaults(config *Config) *Config {
	c := Config{}
	if config != nil {
		c = *config
	}
	if c.Collection == "" {
		c.Collection = DefaultCollection
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.BatchSize > embedder.MaxBatchSize {
		c.BatchSize = embedder.MaxBatchSize
	}
	return &c
}

// batchState is shared by the concurrent batches of one run
type batchState struct {
	indexed int32
	failed  int32
	batches int32

	mu        sync.Mutex // Protects the fields below
	dimension int
	messages  []string
}

func (s *batchState) fail(n int, msg string) {
	atomic.AddInt32(&s.failed, int32(n))
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
}

// indexPatterns runs the batches concurrently
func (idx *Indexer) indexPatterns(ctx context.Context, patterns []types.Pattern, config *Config, stats *Statistics) error {
	state := &batchState{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.Workers)

	for i := 0; i < len(patterns); i += config.BatchSize {
		end := i + config.BatchSize
		if end > len(patterns) {
			end = len(patterns)
		}
		batch := patterns[i:end]

		g.Go(func() error {
			return idx.indexBatch(gctx, config.Collection, batch, state)
		})
	}

	// Wait for all goroutines to complete
	if err := g.Wait(); err != nil {
		return err
	}

	stats.PatternsIndexed = int(state.indexed)
	stats.PatternsFailed += int(state.failed)
	stats.Batches = int(state.batches)
	stats.Dimension = state.dimension
	stats.ErrorMessages = append(stats.ErrorMessages, state.messages...)
	return nil
}

// indexBatch embeds and stores one batch. Only context cancellation aborts
// the run; other failures mark the batch as failed.
func (idx *Indexer) indexBatch(ctx context.Context, collection string, batch []types.Pattern, state *batchState) error {
	atomic.AddInt32(&state.batches, 1)

	texts := make([]string, len(batch))
	for i, p := range batch {
		texts[i] = corpus.Document(p)
	}

	resp, err := idx.embedder.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{Texts: texts})
	if err == nil && len(resp.Embeddings) != len(batch) {
		err = fmt.Errorf("got %d embeddings for %d patterns", len(resp.Embeddings), len(batch))
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		state.fail(len(batch), fmt.Sprintf("batch %s..%s: embed: %v", batch[0].ID, batch[len(batch)-1].ID, err))
		return nil
	}

	records := make([]storage.VectorRecord, len(batch))
	for i, p := range batch {
		payload := corpus.Payload(p)
		payload[ContentHashKey] = embedder.ComputeHash(texts[i])
		records[i] = storage.VectorRecord{
			ID:      p.ID,
			Vector:  resp.Embeddings[i].Vector,
			Payload: payload,
		}
	}

	if err := idx.ensureCollection(ctx, collection, len(records[0].Vector), state); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		state.fail(len(batch), fmt.Sprintf("batch %s..%s: %v", batch[0].ID, batch[len(batch)-1].ID, err))
		return nil
	}

	if err := idx.store.UpsertVectors(ctx, collection, records); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		state.fail(len(batch), fmt.Sprintf("batch %s..%s: store: %v", batch[0].ID, batch[len(batch)-1].ID, err))
		return nil
	}

	atomic.AddInt32(&state.indexed, int32(len(batch)))
	return nil
}

// ensureCollection creates the collection with the dimension of the first
// embeddings returned, so providers with configurable output sizes work
func (idx *Indexer) ensureCollection(ctx context.Context, collection string, dimension int, state *batchState) error {
	state.mu.Lock()
	defer state.mu.Unlock()

	if state.dimension != 0 {
		if state.dimension != dimension {
			return fmt.Errorf("%w: got %d, run uses %d", storage.ErrDimensionMismatch, dimension, state.dimension)
		}
		return nil
	}

	if err := idx.store.CreateCollection(ctx, collection, dimension); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	state.dimension = dimension
	return nil
}
