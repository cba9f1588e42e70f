package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/patternrank/pkg/types"
)

func scored(pairs ...interface{}) []types.ScoredResult {
	var out []types.ScoredResult
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, types.ScoredResult{
			PatternID: pairs[i].(string),
			Score:     pairs[i+1].(float64),
			Rank:      i/2 + 1,
		})
	}
	return out
}

func TestNewValidatesWeights(t *testing.T) {
	tests := []struct {
		name    string
		lw, sw  float64
		wantErr bool
	}{
		{"balanced", 0.5, 0.5, false},
		{"all lexical", 1, 0, false},
		{"float noise", 0.7, 0.3, false},
		{"sum too low", 0.4, 0.4, true},
		{"sum too high", 0.7, 0.7, true},
		{"negative", -0.5, 1.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.lw, tt.sw)
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrInvalidWeights)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, types.Weights{Lexical: tt.lw, Semantic: tt.sw}, f.Weights())
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Empty(t, Normalize(nil))
	assert.Equal(t, map[string]float64{"a": 1}, Normalize(scored("a", 7.3)))
	assert.Equal(t, map[string]float64{"a": 1, "b": 1}, Normalize(scored("a", 2.0, "b", 2.0)))

	n := Normalize(scored("a", 10.0, "b", 5.0, "c", 0.0))
	assert.Equal(t, 1.0, n["a"])
	assert.Equal(t, 0.5, n["b"])
	assert.Equal(t, 0.0, n["c"])
}

func TestFuseUnionCompleteness(t *testing.T) {
	f := Default()
	lex := scored("a", 3.0, "b", 2.0)
	sem := scored("c", 0.9, "b", 0.8)

	fused := f.Fuse(lex, sem, 0)
	require.Len(t, fused, 3)

	ids := make([]string, len(fused))
	for i, r := range fused {
		ids[i] = r.PatternID
		assert.Equal(t, i+1, r.FinalRank)
		assert.GreaterOrEqual(t, r.FinalScore, 0.0)
		assert.LessOrEqual(t, r.FinalScore, 1.0)
	}
	assert.ElementsMatch(t, []string{"a", "b", "c"}, ids)
}

func TestFuseWeightMonotonicity(t *testing.T) {
	// p1 is favored lexically, p2 semantically
	lex := scored("p1", 8.0, "p2", 2.0)
	sem := scored("p2", 0.95, "p1", 0.40)

	lexHeavy, err := New(0.9, 0.1)
	require.NoError(t, err)
	semHeavy, err := New(0.1, 0.9)
	require.NoError(t, err)

	low := semHeavy.Fuse(lex, sem, 0)
	high := lexHeavy.Fuse(lex, sem, 0)

	assert.Equal(t, "p2", low[0].PatternID)
	assert.Equal(t, "p1", low[1].PatternID)
	assert.Equal(t, "p1", high[0].PatternID)
	assert.Equal(t, "p2", high[1].PatternID)
}

func TestFuseEmptyInputs(t *testing.T) {
	f := Default()

	assert.Empty(t, f.Fuse(nil, nil, 10))

	onlyLex := f.Fuse(scored("a", 1.0, "b", 0.5), nil, 10)
	require.Len(t, onlyLex, 2)
	assert.Equal(t, "a", onlyLex[0].PatternID)
	assert.InDelta(t, DefaultLexicalWeight, onlyLex[0].FinalScore, 1e-12)
	assert.Equal(t, 0.0, onlyLex[1].FinalScore)

	onlySem := f.Fuse(nil, scored("x", 0.7), 10)
	require.Len(t, onlySem, 1)
	assert.InDelta(t, DefaultSemanticWeight, onlySem[0].FinalScore, 1e-12)
}

func TestFuseTopKAndTieBreak(t *testing.T) {
	f, err := New(0.5, 0.5)
	require.NoError(t, err)

	fused := f.Fuse(scored("b", 1.0, "a", 1.0, "c", 1.0), nil, 2)
	require.Len(t, fused, 2)
	assert.Equal(t, "a", fused[0].PatternID)
	assert.Equal(t, "b", fused[1].PatternID)
	assert.Equal(t, 2, fused[1].FinalRank)
}

func TestFuseWithDetails(t *testing.T) {
	f := Default()
	lex := scored("a", 4.0, "b", 2.0)
	sem := scored("b", 0.9)

	details := f.FuseWithDetails(lex, sem, 0)
	require.Len(t, details, 2)

	byID := map[string]Detail{}
	for _, d := range details {
		byID[d.PatternID] = d
		assert.Equal(t, f.Weights(), d.Weights)
	}

	a := byID["a"]
	assert.Equal(t, 4.0, a.LexicalScore)
	assert.Equal(t, 1, a.LexicalRank)
	assert.Equal(t, types.RankNotPresent, a.SemanticRank)
	assert.Equal(t, 0.0, a.SemanticNormalized)

	b := byID["b"]
	assert.Equal(t, 2, b.LexicalRank)
	assert.Equal(t, 0.0, b.LexicalNormalized)
	assert.Equal(t, 1, b.SemanticRank)
	assert.Equal(t, 1.0, b.SemanticNormalized)
	assert.InDelta(t, DefaultSemanticWeight, b.FinalScore, 1e-12)

	rd := b.RankingDetails()
	assert.True(t, rd.InLexical())
	assert.True(t, rd.InSemantic())
	assert.False(t, a.RankingDetails().InSemantic())
}

func TestFuseDeterministic(t *testing.T) {
	f := Default()
	lex := scored("a", 3.0, "b", 3.0, "c", 1.0)
	sem := scored("c", 0.5, "d", 0.5)
	assert.Equal(t, f.Fuse(lex, sem, 0), f.Fuse(lex, sem, 0))
}
