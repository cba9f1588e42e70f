// Package fusion merges lexical and semantic rankings into one list.
//
// Each retriever's raw scores are min-max normalized on their own scale and
// combined linearly: final = lw·lexical + sw·semantic. A pattern missing from
// one retriever contributes zero on that side, so nothing present in either
// input is ever dropped.
package fusion

import (
	"fmt"
	"math"
	"sort"

	"github.com/dshills/patternrank/pkg/types"
)

// Default weights favor keyword matches slightly
const (
	DefaultLexicalWeight  = 0.6
	DefaultSemanticWeight = 0.4

	weightTolerance = 1e-9
)

// Fusion combines two ranked lists with fixed weights. It holds no other
// state and is safe for concurrent use.
type Fusion struct {
	weights types.Weights
}

// Detail is a fused result with the per-retriever inputs that produced it
type Detail struct {
	types.FusedResult
	LexicalScore       float64 // Raw
	LexicalRank        int     // types.RankNotPresent when absent
	LexicalNormalized  float64
	SemanticScore      float64
	SemanticRank       int
	SemanticNormalized float64
	Weights            types.Weights
}

// RankingDetails projects the detail into the public ranking breakdown
func (d Detail) RankingDetails() types.RankingDetails {
	return types.RankingDetails{
		LexicalScore:  d.LexicalScore,
		LexicalRank:   d.LexicalRank,
		SemanticScore: d.SemanticScore,
		SemanticRank:  d.SemanticRank,
		Weights:       d.Weights,
	}
}

// New creates a Fusion. Both weights must lie in [0,1] and sum to 1.
func New(lexicalWeight, semanticWeight float64) (*Fusion, error) {
	if lexicalWeight < 0 || lexicalWeight > 1 || semanticWeight < 0 || semanticWeight > 1 ||
		math.IsNaN(lexicalWeight) || math.IsNaN(semanticWeight) ||
		math.Abs(lexicalWeight+semanticWeight-1) > weightTolerance {
		return nil, fmt.Errorf("%w: lexical=%g semantic=%g", types.ErrInvalidWeights, lexicalWeight, semanticWeight)
	}
	return &Fusion{weights: types.Weights{Lexical: lexicalWeight, Semantic: semanticWeight}}, nil
}

// Default returns a Fusion with DefaultLexicalWeight and DefaultSemanticWeight
func Default() *Fusion {
	return &Fusion{weights: types.Weights{Lexical: DefaultLexicalWeight, Semantic: DefaultSemanticWeight}}
}

// Weights returns the configured weights
func (f *Fusion) Weights() types.Weights {
	return f.weights
}

// Normalize min-max scales scores into [0,1]. When every score is equal,
// including the single-result case, each maps to 1.0.
func Normalize(results []types.ScoredResult) map[string]float64 {
	out := make(map[string]float64, len(results))
	if len(results) == 0 {
		return out
	}

	lo, hi := results[0].Score, results[0].Score
	for _, r := range results[1:] {
		lo = math.Min(lo, r.Score)
		hi = math.Max(hi, r.Score)
	}

	span := hi - lo
	for _, r := range results {
		if span == 0 {
			out[r.PatternID] = 1
			continue
		}
		out[r.PatternID] = (r.Score - lo) / span
	}
	return out
}

// Fuse merges both lists and returns at most topK results (topK <= 0 keeps
// all), sorted by final score descending then pattern ID ascending
func (f *Fusion) Fuse(lexical, semantic []types.ScoredResult, topK int) []types.FusedResult {
	details := f.FuseWithDetails(lexical, semantic, topK)
	out := make([]types.FusedResult, len(details))
	for i, d := range details {
		out[i] = d.FusedResult
	}
	return out
}

// FuseWithDetails is Fuse keeping each retriever's raw and normalized inputs
func (f *Fusion) FuseWithDetails(lexical, semantic []types.ScoredResult, topK int) []Detail {
	lexNorm := Normalize(lexical)
	semNorm := Normalize(semantic)

	byID := make(map[string]*Detail, len(lexical)+len(semantic))
	get := func(id string) *Detail {
		d, ok := byID[id]
		if !ok {
			d = &Detail{
				FusedResult:  types.FusedResult{PatternID: id},
				LexicalRank:  types.RankNotPresent,
				SemanticRank: types.RankNotPresent,
				Weights:      f.weights,
			}
			byID[id] = d
		}
		return d
	}

	for _, r := range lexical {
		d := get(r.PatternID)
		if d.LexicalRank != types.RankNotPresent {
			continue
		}
		d.LexicalScore = r.Score
		d.LexicalRank = r.Rank
		d.LexicalNormalized = lexNorm[r.PatternID]
	}
	for _, r := range semantic {
		d := get(r.PatternID)
		if d.SemanticRank != types.RankNotPresent {
			continue
		}
		d.SemanticScore = r.Score
		d.SemanticRank = r.Rank
		d.SemanticNormalized = semNorm[r.PatternID]
	}

	details := make([]Detail, 0, len(byID))
	for _, d := range byID {
		score := f.weights.Lexical*d.LexicalNormalized + f.weights.Semantic*d.SemanticNormalized
		d.FinalScore = math.Max(0, math.Min(1, score))
		details = append(details, *d)
	}

	sort.Slice(details, func(i, j int) bool {
		if details[i].FinalScore != details[j].FinalScore {
			return details[i].FinalScore > details[j].FinalScore
		}
		return details[i].PatternID < details[j].PatternID
	})

	if topK > 0 && topK < len(details) {
		details = details[:topK]
	}
	for i := range details {
		details[i].FinalRank = i + 1
	}
	return details
}
