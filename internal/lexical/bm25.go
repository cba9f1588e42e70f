package lexical

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dshills/patternrank/pkg/types"
)

// Standard Okapi BM25 parameters
const (
	DefaultK1 = 1.5
	DefaultB  = 0.75
)

// FieldWeights sets how many times each pattern field is repeated in the
// synthesized document. Repetition is the ranking signal that lets name
// matches dominate description matches.
type FieldWeights struct {
	Name        int
	Category    int
	Description int
	Props       int
	Variants    int
	A11y        int
}

// DefaultFieldWeights returns the standard weighting
func DefaultFieldWeights() FieldWeights {
	return FieldWeights{
		Name:        3,
		Category:    2,
		Description: 1,
		Props:       1,
		Variants:    1,
		A11y:        1,
	}
}

// Option configures a Retriever
type Option func(*Retriever)

// WithParams overrides the BM25 k1 and b parameters
func WithParams(k1, b float64) Option {
	return func(r *Retriever) {
		if k1 > 0 {
			r.k1 = k1
		}
		if b >= 0 && b <= 1 {
			r.b = b
		}
	}
}

// WithFieldWeights overrides the per-field repetition counts
func WithFieldWeights(w FieldWeights) Option {
	return func(r *Retriever) {
		r.weights = w
	}
}

// document is the synthesized token stream of one pattern
type document struct {
	pattern types.Pattern
	tf      map[string]int
	length  int
}

// Retriever ranks an in-memory pattern corpus with BM25. It is immutable
// after construction and safe for concurrent use.
type Retriever struct {
	k1      float64
	b       float64
	weights FieldWeights

	docs   []document // Sorted by pattern ID
	byID   map[string]int
	df     map[string]int
	avgLen float64
}

// Match is a lexical result with the query terms that hit the document
type Match struct {
	types.ScoredResult
	MatchedTerms []string
}

// NewRetriever indexes corpus. Pattern IDs must be unique.
func NewRetriever(corpus []types.Pattern, opts ...Option) (*Retriever, error) {
	r := &Retriever{
		k1:      DefaultK1,
		b:       DefaultB,
		weights: DefaultFieldWeights(),
		byID:    make(map[string]int, len(corpus)),
		df:      make(map[string]int),
	}
	for _, opt := range opts {
		opt(r)
	}

	patterns := make([]types.Pattern, len(corpus))
	copy(patterns, corpus)
	sort.Slice(patterns, func(i, j int) bool { return patterns[i].ID < patterns[j].ID })

	r.docs = make([]document, 0, len(patterns))
	totalLen := 0
	for _, p := range patterns {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: %s", types.ErrDuplicatePatternID, p.ID)
		}

		tokens := r.synthesize(p)
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		for term := range tf {
			r.df[term]++
		}

		r.byID[p.ID] = len(r.docs)
		r.docs = append(r.docs, document{pattern: p, tf: tf, length: len(tokens)})
		totalLen += len(tokens)
	}

	if len(r.docs) > 0 {
		r.avgLen = float64(totalLen) / float64(len(r.docs))
	}

	return r, nil
}

// synthesize builds the weighted token stream for a pattern
func (r *Retriever) synthesize(p types.Pattern) []string {
	var tokens []string
	add := func(text string, times int) {
		toks := Tokenize(text)
		for i := 0; i < times; i++ {
			tokens = append(tokens, toks...)
		}
	}

	add(p.Name, r.weights.Name)
	add(p.Category, r.weights.Category)
	add(p.Description, r.weights.Description)
	add(strings.Join(p.PropNames(), " "), r.weights.Props)
	add(strings.Join(p.VariantNames(), " "), r.weights.Variants)
	add(strings.Join(p.Metadata.A11y.Features, " "), r.weights.A11y)

	return tokens
}

// Len returns the corpus size
func (r *Retriever) Len() int {
	return len(r.docs)
}

// Pattern looks up a corpus pattern by ID
func (r *Retriever) Pattern(id string) (types.Pattern, bool) {
	i, ok := r.byID[id]
	if !ok {
		return types.Pattern{}, false
	}
	return r.docs[i].pattern, true
}

// Search ranks the corpus against query and returns at most topK results
// (topK <= 0 returns every result). An empty query is not an error: every
// pattern is returned with a zero score in ID order. For a non-empty query
// only patterns sharing at least one term with it are returned.
func (r *Retriever) Search(query string, topK int) []types.ScoredResult {
	matches := r.SearchWithExplanation(query, topK)
	results := make([]types.ScoredResult, len(matches))
	for i, m := range matches {
		results[i] = m.ScoredResult
	}
	return results
}

// SearchWithExplanation is Search plus the matched query terms per result
func (r *Retriever) SearchWithExplanation(query string, topK int) []Match {
	terms := Tokenize(query)

	matches := make([]Match, 0, len(r.docs))
	if len(terms) == 0 {
		for _, doc := range r.docs {
			matches = append(matches, Match{ScoredResult: types.ScoredResult{PatternID: doc.pattern.ID}})
		}
		return rankMatches(matches, topK)
	}

	for _, doc := range r.docs {
		score, matched := r.score(doc, terms)
		if len(matched) == 0 {
			continue
		}
		matches = append(matches, Match{
			ScoredResult: types.ScoredResult{PatternID: doc.pattern.ID, Score: score},
			MatchedTerms: matched,
		})
	}

	return rankMatches(matches, topK)
}

// score computes the BM25 score of doc. Repeated query terms contribute once
// per occurrence, which is how the query builder boosts the component type.
func (r *Retriever) score(doc document, terms []string) (float64, []string) {
	var score float64
	seen := make(map[string]bool)
	var matched []string

	norm := 1 - r.b
	if r.avgLen > 0 {
		norm += r.b * float64(doc.length) / r.avgLen
	}

	for _, term := range terms {
		tf := doc.tf[term]
		if tf == 0 {
			continue
		}
		f := float64(tf)
		score += r.idf(term) * (f * (r.k1 + 1)) / (f + r.k1*norm)
		if !seen[term] {
			seen[term] = true
			matched = append(matched, term)
		}
	}

	sort.Strings(matched)
	return score, matched
}

// idf is the non-negative BM25 inverse document frequency
func (r *Retriever) idf(term string) float64 {
	n := float64(len(r.docs))
	df := float64(r.df[term])
	return math.Log(1 + (n-df+0.5)/(df+0.5))
}

// rankMatches sorts by score descending, then pattern ID ascending, assigns
// 1-based ranks and truncates to topK
func rankMatches(matches []Match, topK int) []Match {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].PatternID < matches[j].PatternID
	})

	if topK > 0 && topK < len(matches) {
		matches = matches[:topK]
	}
	for i := range matches {
		matches[i].Rank = i + 1
	}
	return matches
}
