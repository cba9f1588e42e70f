package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"regexp"
	"sort"

	"github.com/dshills/patternrank/internal/semantic"
)

// searchVector performs vector similarity search using cosine similarity
func searchVector(ctx context.Context, db *sql.DB, collection string, queryVector []float32, limit int, filter semantic.Filter) ([]semantic.Hit, error) {
	// Use optimized SQL-based search when sqlite-vec is available
	if VectorExtensionAvailable {
		return searchVectorOptimized(ctx, db, collection, queryVector, limit, filter)
	}
	// Fall back to Go-based computation for purego builds
	return searchVectorFallback(ctx, db, collection, queryVector, limit, filter)
}

// searchVectorOptimized uses sqlite-vec extension for SQL-based vector similarity search
func searchVectorOptimized(ctx context.Context, db *sql.DB, collection string, queryVector []float32, limit int, filter semantic.Filter) ([]semantic.Hit, error) {
	queryVectorBlob := serializeVector(queryVector)

	// vec_distance_cosine returns distance (lower is better); convert to similarity
	query := `
		SELECT
			v.pattern_id,
			v.payload,
			1.0 - vec_distance_cosine(v.vector, ?) AS similarity
		FROM pattern_vectors v
		WHERE v.collection = ?
	`
	args := []interface{}{queryVectorBlob, collection}
	query, args = applyPayloadFilter(query, args, filter)

	query += " ORDER BY similarity DESC, v.pattern_id ASC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute vector search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	hits := make([]semantic.Hit, 0)
	for rows.Next() {
		var hit semantic.Hit
		var payload string
		if err := rows.Scan(&hit.ID, &payload, &hit.Score); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		hit.Payload = decodePayload(payload)
		hits = append(hits, hit)
	}

	return hits, rows.Err()
}

// searchVectorFallback loads the collection's candidate vectors and computes
// cosine similarity in Go. Used when sqlite-vec is not available (purego builds).
func searchVectorFallback(ctx context.Context, db *sql.DB, collection string, queryVector []float32, limit int, filter semantic.Filter) ([]semantic.Hit, error) {
	query := `
		SELECT v.pattern_id, v.payload, v.vector
		FROM pattern_vectors v
		WHERE v.collection = ?
	`
	args := []interface{}{collection}
	query, args = applyPayloadFilter(query, args, filter)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	candidates, err := computeSimilarityScores(rows, queryVector)
	if err != nil {
		return nil, err
	}

	sortCandidates(candidates)
	return buildHits(candidates, limit), nil
}

// filterKeyPattern restricts payload keys to plain identifiers so they can
// be spliced into a JSON path
var filterKeyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validFilterKey(key string) bool {
	return filterKeyPattern.MatchString(key)
}

// applyPayloadFilter adds one json_extract equality clause per condition
func applyPayloadFilter(query string, args []interface{}, filter semantic.Filter) (string, []interface{}) {
	for _, c := range filter {
		query += " AND json_extract(v.payload, ?) = ?"
		args = append(args, "$."+c.Key, c.Value)
	}
	return query, args
}

// computeSimilarityScores processes rows and computes cosine similarity
func computeSimilarityScores(rows *sql.Rows, queryVector []float32) ([]candidate, error) {
	candidates := make([]candidate, 0, 64)

	for rows.Next() {
		var c candidate
		var payload string
		var vectorBlob []byte
		if err := rows.Scan(&c.id, &payload, &vectorBlob); err != nil {
			return nil, err
		}

		vector := deserializeVector(vectorBlob)
		if len(vector) != len(queryVector) {
			continue // Dimension mismatch, skip
		}

		c.score = cosineSimilarity(queryVector, vector)
		c.payload = payload
		candidates = append(candidates, c)
	}

	return candidates, rows.Err()
}

// buildHits converts the first limit candidates (all when limit <= 0)
func buildHits(candidates []candidate, limit int) []semantic.Hit {
	if limit <= 0 || limit > len(candidates) {
		limit = len(candidates)
	}

	hits := make([]semantic.Hit, limit)
	for i := 0; i < limit; i++ {
		hits[i] = semantic.Hit{
			ID:      candidates[i].id,
			Score:   candidates[i].score,
			Payload: decodePayload(candidates[i].payload),
		}
	}
	return hits
}

// serializeVector converts a float32 slice to a byte blob (little-endian)
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector
}

// cosineSimilarity computes the cosine similarity between two vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// candidate is a stored vector with its similarity to the query
type candidate struct {
	id      string
	payload string
	score   float64
}

// sortCandidates sorts by score descending, then ID ascending
func sortCandidates(candidates []candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].id < candidates[j].id
	})
}
