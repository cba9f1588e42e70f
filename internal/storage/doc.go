// Package storage provides the SQLite-backed vector index for pattern
// embeddings.
//
// The index manages:
//   - Collections (a name plus a fixed vector dimension)
//   - Pattern vectors with a JSON payload used for equality filters
//   - A history of corpus index runs
//
// # Database Schema
//
// Tables:
//   - schema_version: applied migrations (semantic versions)
//   - collections: collection name and dimension
//   - pattern_vectors: little-endian float32 vectors keyed by (collection, pattern_id)
//   - index_runs: outcome of each indexing pass
//
// # Basic Usage
//
//	idx, err := storage.NewSQLiteIndex("patterns.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer idx.Close()
//
//	_ = idx.CreateCollection(ctx, "ui_patterns", 1536)
//	_ = idx.UpsertVector(ctx, "ui_patterns", storage.VectorRecord{
//	    ID:      "button",
//	    Vector:  vec,
//	    Payload: map[string]string{"type": "button"},
//	})
//
//	hits, err := idx.Search(ctx, "ui_patterns", query, 10,
//	    semantic.Filter{{Key: "type", Value: "button"}})
//
// # Errors
//
// Search on an unknown collection returns types.ErrCollectionNotFound.
// Failures of the database itself, including use after Close, return
// types.ErrVectorDBUnavailable, which callers treat as a transient outage.
//
// # Build Modes
//
// The default build uses modernc.org/sqlite and computes cosine similarity
// in Go. Building with -tags sqlite_vec switches to mattn/go-sqlite3 and
// pushes the distance computation into SQL via the sqlite-vec extension.
package storage
