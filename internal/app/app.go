// Package app wires the configured components into a running engine shared
// by the MCP server and the command line.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/dshills/patternrank/internal/config"
	"github.com/dshills/patternrank/internal/corpus"
	"github.com/dshills/patternrank/internal/embedder"
	"github.com/dshills/patternrank/internal/explain"
	"github.com/dshills/patternrank/internal/indexer"
	"github.com/dshills/patternrank/internal/lexical"
	"github.com/dshills/patternrank/internal/searcher"
	"github.com/dshills/patternrank/internal/semantic"
	"github.com/dshills/patternrank/internal/storage"
	"github.com/dshills/patternrank/pkg/types"
)

// ErrSemanticDisabled is returned by operations that need the embedder and
// vector index when semantic retrieval is switched off
var ErrSemanticDisabled = errors.New("semantic retrieval is disabled by configuration")

// App holds the long-lived components
type App struct {
	Config   *config.Config
	Patterns []types.Pattern
	Searcher *searcher.Searcher

	// Nil when semantic retrieval is disabled
	Store    storage.VectorStore
	Embedder embedder.Embedder
	Indexer  *indexer.Indexer
}

// Status summarizes the engine for get_status and the CLI
type Status struct {
	CorpusPath      string            `json:"corpus_path"`
	Patterns        int               `json:"patterns"`
	Collection      string            `json:"collection"`
	SemanticEnabled bool              `json:"semantic_enabled"`
	Provider        string            `json:"provider,omitempty"`
	Model           string            `json:"model,omitempty"`
	Indexing        bool              `json:"indexing"`
	Health          Health            `json:"health"`
	Vectors         int               `json:"vectors"`
	LastIndexRun    *storage.IndexRun `json:"last_index_run,omitempty"`
}

// Health reports reachability of the semantic dependencies
type Health struct {
	DatabaseAccessible bool   `json:"database_accessible"`
	CollectionExists   bool   `json:"collection_exists"`
	Error              string `json:"error,omitempty"`
}

// New loads the corpus and builds every component. A hosted embedding
// provider without credentials fails here.
func New(cfg *config.Config) (*App, error) {
	patterns, err := corpus.Load(cfg.CorpusPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}

	lex, err := lexical.NewRetriever(patterns, cfg.LexicalOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to build lexical index: %w", err)
	}

	fus, err := cfg.Fusion()
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Patterns: patterns,
	}

	// Stays a nil interface when semantic retrieval is off
	var sem searcher.SemanticSearcher
	if cfg.Semantic.Enabled {
		if err := a.openSemantic(); err != nil {
			return nil, err
		}
		r, err := semantic.NewRetriever(a.Embedder, a.Store, cfg.Collection, cfg.SemanticOptions()...)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		sem = r
	}

	a.Searcher, err = searcher.NewSearcher(patterns, lex, sem, fus, explain.New(), cfg.SearcherConfig())
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	log.Printf("app: loaded %d patterns from %s (semantic=%v)", len(patterns), cfg.CorpusPath, cfg.Semantic.Enabled)
	return a, nil
}

func (a *App) openSemantic() error {
	emb, err := embedder.New(a.Config.EmbedderConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %w", err)
	}

	if a.Config.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(a.Config.DBPath), 0o755); err != nil {
			_ = emb.Close()
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	store, err := storage.NewSQLiteIndex(a.Config.DBPath)
	if err != nil {
		_ = emb.Close()
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	a.Embedder = emb
	a.Store = store
	a.Indexer = indexer.New(store, emb)
	return nil
}

// SemanticEnabled reports whether the embedder and vector index are wired
func (a *App) SemanticEnabled() bool {
	return a.Indexer != nil
}

// Index embeds the loaded corpus into the configured collection
func (a *App) Index(ctx context.Context, recreate bool, batchSize int) (*indexer.Statistics, error) {
	if !a.SemanticEnabled() {
		return nil, ErrSemanticDisabled
	}
	return a.Indexer.IndexCorpus(ctx, a.Patterns, &indexer.Config{
		Collection: a.Config.Collection,
		BatchSize:  batchSize,
		Recreate:   recreate,
	})
}

// Status reports corpus and index state. Storage failures are reported in
// Health rather than returned.
func (a *App) Status(ctx context.Context) *Status {
	st := &Status{
		CorpusPath:      a.Config.CorpusPath,
		Patterns:        len(a.Patterns),
		Collection:      a.Config.Collection,
		SemanticEnabled: a.SemanticEnabled(),
	}
	if !a.SemanticEnabled() {
		return st
	}

	st.Provider = a.Embedder.Provider()
	st.Model = a.Embedder.Model()
	st.Indexing = a.Indexer.IsIndexing()

	ctx, cancel := context.WithTimeout(ctx, a.Config.Vector.Timeout)
	defer cancel()

	if err := a.Store.Ping(ctx); err != nil {
		st.Health.Error = err.Error()
		return st
	}
	st.Health.DatabaseAccessible = true

	exists, err := a.Store.CollectionExists(ctx, a.Config.Collection)
	if err != nil {
		st.Health.Error = err.Error()
		return st
	}
	st.Health.CollectionExists = exists
	if !exists {
		return st
	}

	if n, err := a.Store.CountVectors(ctx, a.Config.Collection); err == nil {
		st.Vectors = n
	}
	if run, err := a.Store.LastIndexRun(ctx, a.Config.Collection); err == nil {
		st.LastIndexRun = run
	} else if !errors.Is(err, storage.ErrNotFound) {
		st.Health.Error = err.Error()
	}
	return st
}

// Close releases the embedder and the vector index
func (a *App) Close() error {
	var errs []error
	if a.Embedder != nil {
		errs = append(errs, a.Embedder.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}
