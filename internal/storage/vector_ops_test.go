package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVectorSerialization(t *testing.T) {
	vec := []float32{0, 1.5, -2.25, 3.125}
	blob := serializeVector(vec)
	assert.Len(t, blob, len(vec)*4)
	assert.Equal(t, vec, deserializeVector(blob))
	assert.Empty(t, deserializeVector(nil))
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"scaled", []float32{1, 1}, []float32{3, 3}, 1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"length mismatch", []float32{1}, []float32{1, 2}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSortCandidatesTieBreak(t *testing.T) {
	c := []candidate{{id: "b", score: 0.5}, {id: "c", score: 0.9}, {id: "a", score: 0.5}}
	sortCandidates(c)
	assert.Equal(t, "c", c[0].id)
	assert.Equal(t, "a", c[1].id)
	assert.Equal(t, "b", c[2].id)

	assert.Len(t, buildHits(c, 0), 3)
	assert.Len(t, buildHits(c, 2), 2)
	assert.Len(t, buildHits(c, 10), 3)
}

func TestFilterKeys(t *testing.T) {
	assert.True(t, validFilterKey("type"))
	assert.True(t, validFilterKey("_framework2"))
	assert.False(t, validFilterKey(""))
	assert.False(t, validFilterKey("a.b"))
	assert.False(t, validFilterKey("1abc"))
	assert.False(t, validFilterKey("x'--"))
}

func TestPayloadRoundTrip(t *testing.T) {
	s, err := encodePayload(nil)
	assert.NoError(t, err)
	assert.Equal(t, "{}", s)

	assert.Equal(t, map[string]string{"type": "button"}, decodePayload(`{"type":"button","n":3}`))
	assert.Empty(t, decodePayload("not json"))
}
