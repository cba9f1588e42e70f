package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dshills/patternrank/internal/semantic"
	"github.com/dshills/patternrank/pkg/types"
)

// SQLiteIndex implements VectorStore using SQLite
type SQLiteIndex struct {
	db     *sql.DB
	closed atomic.Bool
}

var _ VectorStore = (*SQLiteIndex)(nil)

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteIndex opens (or creates) the vector index at dbPath and applies
// pending migrations. ":memory:" gives a private in-memory index.
func NewSQLiteIndex(dbPath string) (*SQLiteIndex, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %v", types.ErrVectorDBUnavailable, err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteIndex{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteIndex) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// Ping reports whether the database is reachable
func (s *SQLiteIndex) Ping(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", types.ErrVectorDBUnavailable, err)
	}
	return nil
}

func (s *SQLiteIndex) checkOpen() error {
	if s.closed.Load() {
		return fmt.Errorf("%w: database is closed", types.ErrVectorDBUnavailable)
	}
	return nil
}

// unavailable classifies a database error as an outage, keeping context
// errors matchable
func unavailable(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s: %w", types.ErrVectorDBUnavailable, op, err)
	}
	return fmt.Errorf("%w: %s: %v", types.ErrVectorDBUnavailable, op, err)
}

// Collection operations

// CreateCollection registers a collection. Creating an existing collection
// with the same dimension is a no-op.
func (s *SQLiteIndex) CreateCollection(ctx context.Context, name string, dimension int) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" || dimension <= 0 {
		return fmt.Errorf("%w: name %q dimension %d", ErrInvalidCollection, name, dimension)
	}

	existing, err := s.GetCollection(ctx, name)
	switch {
	case err == nil:
		if existing.Dimension != dimension {
			return fmt.Errorf("%w: collection %s has dimension %d, not %d",
				ErrAlreadyExists, name, existing.Dimension, dimension)
		}
		return nil
	case !errors.Is(err, types.ErrCollectionNotFound):
		return err
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO collections (name, dimension, created_at) VALUES (?, ?, ?)",
		name, dimension, time.Now().UTC())
	if err != nil {
		return unavailable("create collection", err)
	}
	return nil
}

// GetCollection returns a collection with its vector count
func (s *SQLiteIndex) GetCollection(ctx context.Context, name string) (*Collection, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	query := `
		SELECT c.name, c.dimension, c.created_at,
			(SELECT COUNT(*) FROM pattern_vectors v WHERE v.collection = c.name)
		FROM collections c
		WHERE c.name = ?
	`
	var c Collection
	err := s.db.QueryRowContext(ctx, query, name).Scan(&c.Name, &c.Dimension, &c.CreatedAt, &c.VectorCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", types.ErrCollectionNotFound, name)
	}
	if err != nil {
		return nil, unavailable("get collection", err)
	}
	return &c, nil
}

// CollectionExists reports whether name has been created
func (s *SQLiteIndex) CollectionExists(ctx context.Context, name string) (bool, error) {
	_, err := s.GetCollection(ctx, name)
	if errors.Is(err, types.ErrCollectionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteCollection removes a collection and all of its vectors
func (s *SQLiteIndex) DeleteCollection(ctx context.Context, name string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", name)
	if err != nil {
		return unavailable("delete collection", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", types.ErrCollectionNotFound, name)
	}
	return nil
}

// ListCollections returns every collection ordered by name
func (s *SQLiteIndex) ListCollections(ctx context.Context) ([]*Collection, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	query := `
		SELECT c.name, c.dimension, c.created_at,
			(SELECT COUNT(*) FROM pattern_vectors v WHERE v.collection = c.name)
		FROM collections c
		ORDER BY c.name
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, unavailable("list collections", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Collection
	for rows.Next() {
		var c Collection
		if err := rows.Scan(&c.Name, &c.Dimension, &c.CreatedAt, &c.VectorCount); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// Vector operations

// UpsertVector stores or replaces one vector
func (s *SQLiteIndex) UpsertVector(ctx context.Context, collection string, record VectorRecord) error {
	return s.UpsertVectors(ctx, collection, []VectorRecord{record})
}

// UpsertVectors stores or replaces records in a single transaction. Every
// vector must match the collection dimension.
func (s *SQLiteIndex) UpsertVectors(ctx context.Context, collection string, records []VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	coll, err := s.GetCollection(ctx, collection)
	if err != nil {
		return err
	}

	for _, r := range records {
		if r.ID == "" {
			return fmt.Errorf("%w: empty vector id", types.ErrMissingPatternID)
		}
		if len(r.Vector) != coll.Dimension {
			return fmt.Errorf("%w: %s has %d dimensions, collection %s expects %d",
				ErrDimensionMismatch, r.ID, len(r.Vector), collection, coll.Dimension)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO pattern_vectors (collection, pattern_id, vector, payload, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(collection, pattern_id) DO UPDATE SET
			vector = excluded.vector,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC()
	for _, r := range records {
		payload, err := encodePayload(r.Payload)
		if err != nil {
			return fmt.Errorf("encode payload for %s: %w", r.ID, err)
		}
		if _, err := tx.ExecContext(ctx, query, collection, r.ID, serializeVector(r.Vector), payload, now); err != nil {
			return unavailable("upsert vector", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return unavailable("commit vectors", err)
	}
	return nil
}

// DeleteVector removes one vector
func (s *SQLiteIndex) DeleteVector(ctx context.Context, collection, id string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM pattern_vectors WHERE collection = ? AND pattern_id = ?", collection, id)
	if err != nil {
		return unavailable("delete vector", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: vector %s in %s", ErrNotFound, id, collection)
	}
	return nil
}

// CountVectors returns the number of vectors in a collection
func (s *SQLiteIndex) CountVectors(ctx context.Context, collection string) (int, error) {
	c, err := s.GetCollection(ctx, collection)
	if err != nil {
		return 0, err
	}
	return c.VectorCount, nil
}

// Search returns the topK vectors most similar to vector whose payload
// satisfies filter. topK <= 0 returns every match.
func (s *SQLiteIndex) Search(ctx context.Context, collection string, vector []float32, topK int, filter semantic.Filter) ([]semantic.Hit, error) {
	coll, err := s.GetCollection(ctx, collection)
	if err != nil {
		return nil, err
	}
	if len(vector) != coll.Dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection %s expects %d",
			ErrDimensionMismatch, len(vector), collection, coll.Dimension)
	}
	for _, c := range filter {
		if !validFilterKey(c.Key) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFilterKey, c.Key)
		}
	}

	hits, err := searchVector(ctx, s.db, collection, vector, topK, filter)
	if err != nil {
		return nil, unavailable("vector search", err)
	}
	return hits, nil
}

// Index run bookkeeping

// RecordIndexRun stores the outcome of an indexing pass
func (s *SQLiteIndex) RecordIndexRun(ctx context.Context, run *IndexRun) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if run.CompletedAt.IsZero() {
		run.CompletedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO index_runs (collection, provider, model, patterns_indexed, patterns_failed, duration_ms, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	res, err := s.db.ExecContext(ctx, query,
		run.Collection, run.Provider, run.Model,
		run.PatternsIndexed, run.PatternsFailed, run.Duration.Milliseconds(), run.CompletedAt)
	if err != nil {
		return unavailable("record index run", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	run.ID = id
	return nil
}

// LastIndexRun returns the most recent run for collection
func (s *SQLiteIndex) LastIndexRun(ctx context.Context, collection string) (*IndexRun, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	query := `
		SELECT id, collection, COALESCE(provider, ''), COALESCE(model, ''),
			patterns_indexed, patterns_failed, duration_ms, completed_at
		FROM index_runs
		WHERE collection = ?
		ORDER BY id DESC
		LIMIT 1
	`
	var run IndexRun
	var durationMs int64
	err := s.db.QueryRowContext(ctx, query, collection).Scan(
		&run.ID, &run.Collection, &run.Provider, &run.Model,
		&run.PatternsIndexed, &run.PatternsFailed, &durationMs, &run.CompletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no index run for %s", ErrNotFound, collection)
	}
	if err != nil {
		return nil, unavailable("last index run", err)
	}
	run.Duration = time.Duration(durationMs) * time.Millisecond
	return &run, nil
}

func encodePayload(p map[string]string) (string, error) {
	if len(p) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodePayload(s string) map[string]string {
	out := map[string]string{}
	if s == "" {
		return out
	}
	// Non-string JSON values are skipped
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return out
	}
	for k, v := range raw {
		if str, ok := v.(string); ok {
			out[k] = str
		}
	}
	return out
}
