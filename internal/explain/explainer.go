// Package explain annotates a fused ranking with the reasons behind it: which
// requested props, variants and accessibility features a pattern covers, a
// confidence score and a short rationale sentence.
package explain

import (
	"fmt"
	"math"
	"strings"

	"github.com/dshills/patternrank/internal/lexical"
	"github.com/dshills/patternrank/internal/query"
	"github.com/dshills/patternrank/pkg/types"
)

// Default confidence parameters
const (
	DefaultFinalWeight         = 0.6
	DefaultAgreementBonus      = 0.15
	DefaultAgreementWindow     = 1
	DefaultMatchBonus          = 0.05
	DefaultMaxMatchBonus       = 0.2
	DefaultSingleSourcePenalty = 0.1
	DefaultStrongThreshold     = 0.85
)

// Signals are the ranking inputs for one pattern
type Signals struct {
	LexicalScore      float64
	LexicalRank       int     // types.RankNotPresent when absent
	LexicalNormalized float64 // Min-max normalized BM25 score in [0,1]
	SemanticScore     float64
	SemanticRank      int
	FinalScore        float64
	FinalRank         int
	Weights           types.Weights
}

// Option configures an Explainer
type Option func(*Explainer)

// WithStrongThreshold sets the score both retrievers must reach for the
// rationale to call the similarity strong. BM25 is unbounded, so the lexical
// side is compared on its normalized score.
func WithStrongThreshold(v float64) Option {
	return func(e *Explainer) { e.strongThreshold = v }
}

// WithAgreementBonus sets the bonus for ranks within window of each other
func WithAgreementBonus(bonus float64, window int) Option {
	return func(e *Explainer) {
		e.agreementBonus = bonus
		if window >= 0 {
			e.agreementWindow = window
		}
	}
}

// WithMatchBonus sets the per-match bonus and its cap
func WithMatchBonus(perMatch, limit float64) Option {
	return func(e *Explainer) {
		e.matchBonus = perMatch
		e.maxMatchBonus = limit
	}
}

// WithSingleSourcePenalty sets the penalty for patterns only one retriever found
func WithSingleSourcePenalty(p float64) Option {
	return func(e *Explainer) { e.singleSourcePenalty = p }
}

// Explainer is a pure function of its inputs and safe for concurrent use
type Explainer struct {
	finalWeight         float64
	agreementBonus      float64
	agreementWindow     int
	matchBonus          float64
	maxMatchBonus       float64
	singleSourcePenalty float64
	strongThreshold     float64
}

// New creates an Explainer with default parameters
func New(opts ...Option) *Explainer {
	e := &Explainer{
		finalWeight:         DefaultFinalWeight,
		agreementBonus:      DefaultAgreementBonus,
		agreementWindow:     DefaultAgreementWindow,
		matchBonus:          DefaultMatchBonus,
		maxMatchBonus:       DefaultMaxMatchBonus,
		singleSourcePenalty: DefaultSingleSourcePenalty,
		strongThreshold:     DefaultStrongThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Explain builds the explanation for pattern p ranked with signals s
func (e *Explainer) Explain(p types.Pattern, req types.Requirements, s Signals) types.Explanation {
	details := types.RankingDetails{
		LexicalScore:  s.LexicalScore,
		LexicalRank:   s.LexicalRank,
		SemanticScore: s.SemanticScore,
		SemanticRank:  s.SemanticRank,
		Weights:       s.Weights,
	}

	exp := types.Explanation{
		PatternID:       p.ID,
		MatchedProps:    matchNames(req.PropNames(), p.PropNames()),
		MatchedVariants: matchNames(req.Variants, p.VariantNames()),
		MatchedA11y:     MatchA11y(req.A11y, p.Metadata.A11y.Features),
		RankingDetails:  details,
	}
	exp.Confidence = e.confidence(s, details, len(exp.MatchedProps)+len(exp.MatchedVariants)+len(exp.MatchedA11y))
	exp.Rationale = e.rationale(p, req, s, details, exp)
	return exp
}

func (e *Explainer) confidence(s Signals, d types.RankingDetails, matches int) float64 {
	c := e.finalWeight * s.FinalScore

	inBoth := d.InLexical() && d.InSemantic()
	if inBoth && abs(d.LexicalRank-d.SemanticRank) <= e.agreementWindow {
		c += e.agreementBonus
	}

	c += math.Min(float64(matches)*e.matchBonus, e.maxMatchBonus)

	if d.InLexical() != d.InSemantic() {
		c -= e.singleSourcePenalty
	}

	return math.Max(0, math.Min(1, c))
}

func (e *Explainer) rationale(p types.Pattern, req types.Requirements, s Signals, d types.RankingDetails, exp types.Explanation) string {
	var parts []string

	componentType := strings.TrimSpace(req.ComponentType)
	if componentType != "" && strings.EqualFold(strings.TrimSpace(p.Name), componentType) {
		parts = append(parts, fmt.Sprintf("Exact component type match: %s.", p.Name))
	}
	if len(exp.MatchedProps) > 0 {
		parts = append(parts, fmt.Sprintf("Supports requested props %s.", query.JoinNatural(exp.MatchedProps)))
	}
	if len(exp.MatchedVariants) > 0 {
		parts = append(parts, fmt.Sprintf("Offers variants %s.", query.JoinNatural(exp.MatchedVariants)))
	}
	if len(exp.MatchedA11y) > 0 {
		parts = append(parts, fmt.Sprintf("Provides accessibility features %s.", query.JoinNatural(exp.MatchedA11y)))
	}

	switch {
	case d.InLexical() && d.InSemantic() &&
		s.LexicalNormalized >= e.strongThreshold && s.SemanticScore >= e.strongThreshold:
		parts = append(parts, "Strong lexical and semantic similarity.")
	case d.InSemantic() && s.SemanticScore >= e.strongThreshold:
		parts = append(parts, "High semantic similarity to the requirements.")
	}

	if len(parts) == 0 {
		parts = append(parts, fallback(p, s.FinalRank, d))
	}
	return strings.Join(parts, " ")
}

func fallback(p types.Pattern, rank int, d types.RankingDetails) string {
	name := p.Name
	if name == "" {
		name = p.ID
	}
	switch {
	case d.InLexical() && d.InSemantic():
		return fmt.Sprintf("%s ranked #%d on combined keyword and semantic relevance.", name, rank)
	case d.InLexical():
		return fmt.Sprintf("%s ranked #%d on keyword relevance only.", name, rank)
	case d.InSemantic():
		return fmt.Sprintf("%s ranked #%d on semantic relevance only.", name, rank)
	default:
		return fmt.Sprintf("%s ranked #%d with no direct field matches.", name, rank)
	}
}

// matchNames intersects wanted with have case-insensitively, keeping the
// order and spelling of wanted and dropping duplicates
func matchNames(wanted, have []string) []string {
	set := make(map[string]bool, len(have))
	for _, h := range have {
		set[strings.ToLower(strings.TrimSpace(h))] = true
	}

	var out []string
	seen := make(map[string]bool)
	for _, w := range wanted {
		key := strings.ToLower(strings.TrimSpace(w))
		if key == "" || seen[key] || !set[key] {
			continue
		}
		seen[key] = true
		out = append(out, w)
	}
	return out
}

// MatchA11y returns the requested features the pattern provides. A request
// matches a pattern feature when either text contains the other, ignoring
// case, or when every token of the request appears in the feature.
func MatchA11y(wanted, have []string) []string {
	type feature struct {
		text   string
		tokens map[string]bool
	}
	features := make([]feature, 0, len(have))
	for _, h := range have {
		f := feature{text: strings.ToLower(strings.TrimSpace(h)), tokens: map[string]bool{}}
		for _, tok := range lexical.Tokenize(h) {
			f.tokens[tok] = true
		}
		if f.text != "" {
			features = append(features, f)
		}
	}

	var out []string
	seen := make(map[string]bool)
	for _, w := range wanted {
		key := strings.ToLower(strings.TrimSpace(w))
		if key == "" || seen[key] {
			continue
		}
		wantTokens := lexical.Tokenize(w)

		for _, f := range features {
			if strings.Contains(f.text, key) || strings.Contains(key, f.text) || containsAll(f.tokens, wantTokens) {
				seen[key] = true
				out = append(out, w)
				break
			}
		}
	}
	return out
}

func containsAll(set map[string]bool, tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	for _, t := range tokens {
		if !set[t] {
			return false
		}
	}
	return true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
