package semantic

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/patternrank/internal/embedder"
	"github.com/dshills/patternrank/pkg/types"
)

// Defaults for the per-call deadlines and batch fan-out
const (
	DefaultEmbedTimeout     = 10 * time.Second
	DefaultSearchTimeout    = 5 * time.Second
	DefaultBatchConcurrency = 4
)

var (
	ErrNilClient       = errors.New("semantic retriever requires an embedder and a vector index")
	ErrEmptyCollection = errors.New("collection name is required")
)

// Condition is a single "payload key must equal value" clause
type Condition struct {
	Key   string
	Value string
}

// Filter is a conjunction of equality conditions. A nil Filter matches
// every vector in the collection.
type Filter []Condition

// FilterFromMap converts a filter map into a Filter with keys in sorted
// order. An empty map yields nil.
func FilterFromMap(m map[string]string) Filter {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	f := make(Filter, 0, len(keys))
	for _, k := range keys {
		f = append(f, Condition{Key: k, Value: m[k]})
	}
	return f
}

// Hit is one nearest-neighbor match returned by a VectorIndex
type Hit struct {
	ID      string
	Score   float64 // Cosine similarity
	Payload map[string]string
}

// VectorIndex is the nearest-neighbor store holding pattern embeddings.
// Implementations report a missing collection with types.ErrCollectionNotFound
// and connectivity problems with types.ErrVectorDBUnavailable. topK <= 0
// returns every hit.
type VectorIndex interface {
	Search(ctx context.Context, collection string, vector []float32, topK int, filter Filter) ([]Hit, error)
}

// Option configures a Retriever
type Option func(*Retriever)

// WithEmbedTimeout bounds each embedding call
func WithEmbedTimeout(d time.Duration) Option {
	return func(r *Retriever) {
		if d > 0 {
			r.embedTimeout = d
		}
	}
}

// WithSearchTimeout bounds each vector index call
func WithSearchTimeout(d time.Duration) Option {
	return func(r *Retriever) {
		if d > 0 {
			r.searchTimeout = d
		}
	}
}

// WithBatchConcurrency caps the number of concurrent queries in SearchBatch
func WithBatchConcurrency(n int) Option {
	return func(r *Retriever) {
		if n > 0 {
			r.batchConcurrency = n
		}
	}
}

// Retriever embeds a query and asks the vector index for its nearest
// patterns. Clients are injected; it holds no other state and is safe for
// concurrent use.
type Retriever struct {
	emb        embedder.Embedder
	index      VectorIndex
	collection string

	embedTimeout     time.Duration
	searchTimeout    time.Duration
	batchConcurrency int
}

// NewRetriever creates a semantic retriever over collection
func NewRetriever(emb embedder.Embedder, index VectorIndex, collection string, opts ...Option) (*Retriever, error) {
	if emb == nil || index == nil {
		return nil, ErrNilClient
	}
	if collection == "" {
		return nil, ErrEmptyCollection
	}

	r := &Retriever{
		emb:              emb,
		index:            index,
		collection:       collection,
		embedTimeout:     DefaultEmbedTimeout,
		searchTimeout:    DefaultSearchTimeout,
		batchConcurrency: DefaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Collection returns the collection this retriever searches
func (r *Retriever) Collection() string {
	return r.collection
}

// Search embeds query and returns up to topK patterns by cosine similarity.
// Filters restrict the search to vectors whose payload matches every entry.
// An empty query returns no results. Failures are *types.RetrievalError.
func (r *Retriever) Search(ctx context.Context, query string, topK int, filters map[string]string) ([]types.ScoredResult, error) {
	if query == "" {
		return nil, nil
	}

	vector, err := r.embed(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := r.search(ctx, vector, topK, FilterFromMap(filters))
	if err != nil {
		return nil, err
	}

	return rankHits(hits, topK), nil
}

// SearchBatch runs Search for every query concurrently. The result at index
// i belongs to queries[i]. The first failure cancels the remaining queries.
func (r *Retriever) SearchBatch(ctx context.Context, queries []string, topK int) ([][]types.ScoredResult, error) {
	results := make([][]types.ScoredResult, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.batchConcurrency)

	for i, q := range queries {
		g.Go(func() error {
			res, err := r.Search(gctx, q, topK, nil)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Retriever) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, r.embedTimeout)
	defer cancel()

	emb, err := r.emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: text})
	if err == nil && (emb == nil || len(emb.Vector) == 0) {
		err = errors.New("empty embedding returned")
	}
	if err != nil {
		return nil, types.NewRetrievalError("embed query", r.collection,
			fmt.Errorf("%w: %w", types.ErrEmbeddingFailed, err))
	}
	return emb.Vector, nil
}

func (r *Retriever) search(ctx context.Context, vector []float32, topK int, filter Filter) ([]Hit, error) {
	ctx, cancel := context.WithTimeout(ctx, r.searchTimeout)
	defer cancel()

	hits, err := r.index.Search(ctx, r.collection, vector, topK, filter)
	if err != nil {
		if !errors.Is(err, types.ErrCollectionNotFound) && !errors.Is(err, types.ErrVectorDBUnavailable) {
			err = fmt.Errorf("%w: %w", types.ErrVectorDBUnavailable, err)
		}
		return nil, types.NewRetrievalError("vector search", r.collection, err)
	}
	return hits, nil
}

// rankHits clamps similarities into [0,1], re-sorts by score descending then
// ID ascending and assigns 1-based ranks. Duplicate IDs keep their best hit.
func rankHits(hits []Hit, topK int) []types.ScoredResult {
	seen := make(map[string]int, len(hits))
	results := make([]types.ScoredResult, 0, len(hits))
	for _, h := range hits {
		if h.ID == "" {
			continue
		}
		score := clamp01(h.Score)
		if i, ok := seen[h.ID]; ok {
			if score > results[i].Score {
				results[i].Score = score
			}
			continue
		}
		seen[h.ID] = len(results)
		results = append(results, types.ScoredResult{PatternID: h.ID, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].PatternID < results[j].PatternID
	})

	if topK > 0 && topK < len(results) {
		results = results[:topK]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
