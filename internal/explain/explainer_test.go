package explain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/patternrank/pkg/types"
)

func buttonPattern() types.Pattern {
	return types.Pattern{
		ID:       "button",
		Name:     "Button",
		Category: "form",
		Metadata: types.PatternMetadata{
			Props:    []types.Prop{{Name: "variant"}, {Name: "size"}, {Name: "disabled"}},
			Variants: []types.Variant{{Name: "primary"}, {Name: "secondary"}, {Name: "ghost"}},
			A11y:     types.A11y{Features: []string{"Keyboard navigation support", "ARIA labels"}},
		},
	}
}

func buttonRequirements() types.Requirements {
	return types.Requirements{
		ComponentType: "button",
		Props:         []types.Prop{{Name: "Variant"}, {Name: "size"}, {Name: "onClick"}},
		Variants:      []string{"primary", "danger"},
		A11y:          []string{"keyboard navigation", "focus trap"},
	}
}

func bothSignals() Signals {
	return Signals{
		LexicalScore:      9.1,
		LexicalRank:       1,
		LexicalNormalized: 1.0,
		SemanticScore:     0.91,
		SemanticRank:      1,
		FinalScore:        1.0,
		FinalRank:         1,
		Weights:           types.Weights{Lexical: 0.6, Semantic: 0.4},
	}
}

func TestExplainMatches(t *testing.T) {
	exp := New().Explain(buttonPattern(), buttonRequirements(), bothSignals())

	assert.Equal(t, "button", exp.PatternID)
	assert.Equal(t, []string{"Variant", "size"}, exp.MatchedProps)
	assert.Equal(t, []string{"primary"}, exp.MatchedVariants)
	assert.Equal(t, []string{"keyboard navigation"}, exp.MatchedA11y)
	assert.Equal(t, 1, exp.RankingDetails.LexicalRank)
	assert.Equal(t, 0.4, exp.RankingDetails.Weights.Semantic)
	require.NoError(t, exp.Validate())
}

func TestExplainRationale(t *testing.T) {
	exp := New().Explain(buttonPattern(), buttonRequirements(), bothSignals())

	assert.Contains(t, exp.Rationale, "Exact component type match: Button.")
	assert.Contains(t, exp.Rationale, "Variant and size")
	assert.Contains(t, exp.Rationale, "primary")
	assert.Contains(t, exp.Rationale, "keyboard navigation")
	assert.Contains(t, exp.Rationale, "Strong lexical and semantic similarity.")
}

func TestExplainRationaleFallback(t *testing.T) {
	p := types.Pattern{ID: "card", Name: "Card"}
	req := types.Requirements{ComponentType: "Button"}

	tests := []struct {
		name string
		s    Signals
		want string
	}{
		{"both", Signals{LexicalRank: 2, SemanticRank: 3, FinalRank: 2, SemanticScore: 0.2}, "Card ranked #2 on combined keyword and semantic relevance."},
		{"lexical only", Signals{LexicalRank: 1, SemanticRank: types.RankNotPresent, FinalRank: 3}, "Card ranked #3 on keyword relevance only."},
		{"semantic only", Signals{LexicalRank: types.RankNotPresent, SemanticRank: 4, FinalRank: 4, SemanticScore: 0.3}, "Card ranked #4 on semantic relevance only."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := New().Explain(p, req, tt.s)
			assert.Equal(t, tt.want, exp.Rationale)
			assert.Empty(t, exp.MatchedProps)
		})
	}
}

func TestExplainStrongUsesNormalizedLexicalScore(t *testing.T) {
	p := types.Pattern{ID: "x", Name: "X"}

	// A large raw BM25 score alone is not strong when the pattern sits low
	// in the lexical ranking
	s := Signals{LexicalScore: 7.4, LexicalRank: 3, LexicalNormalized: 0.3, SemanticScore: 0.9, SemanticRank: 1, FinalScore: 0.5, FinalRank: 2}
	exp := New().Explain(p, types.Requirements{}, s)
	assert.NotContains(t, exp.Rationale, "Strong lexical and semantic similarity.")

	s.LexicalNormalized = 0.9
	exp = New().Explain(p, types.Requirements{}, s)
	assert.Equal(t, "Strong lexical and semantic similarity.", exp.Rationale)
}

func TestExplainHighSemanticOnly(t *testing.T) {
	s := Signals{LexicalScore: 0.1, LexicalRank: 5, SemanticScore: 0.9, SemanticRank: 1, FinalScore: 0.5, FinalRank: 2}
	exp := New().Explain(types.Pattern{ID: "x", Name: "X"}, types.Requirements{}, s)
	assert.Equal(t, "High semantic similarity to the requirements.", exp.Rationale)
}

func TestConfidence(t *testing.T) {
	e := New()
	p := types.Pattern{ID: "p", Name: "P"}

	t.Run("agreement bonus", func(t *testing.T) {
		exp := e.Explain(p, types.Requirements{}, Signals{LexicalRank: 2, SemanticRank: 3, FinalScore: 0.5})
		assert.InDelta(t, 0.6*0.5+0.15, exp.Confidence, 1e-9)
	})

	t.Run("no agreement when ranks far apart", func(t *testing.T) {
		exp := e.Explain(p, types.Requirements{}, Signals{LexicalRank: 1, SemanticRank: 5, FinalScore: 0.5})
		assert.InDelta(t, 0.3, exp.Confidence, 1e-9)
	})

	t.Run("single source penalty", func(t *testing.T) {
		exp := e.Explain(p, types.Requirements{}, Signals{LexicalRank: 1, SemanticRank: types.RankNotPresent, FinalScore: 0.5})
		assert.InDelta(t, 0.2, exp.Confidence, 1e-9)
	})

	t.Run("match bonus is capped", func(t *testing.T) {
		// Five matches would be 0.25 uncapped
		exp := e.Explain(buttonPattern(), types.Requirements{
			Props:    []types.Prop{{Name: "variant"}, {Name: "size"}, {Name: "disabled"}},
			Variants: []string{"primary", "ghost"},
		}, Signals{LexicalRank: 1, SemanticRank: 8, FinalScore: 0.5})
		assert.InDelta(t, 0.3+0.2, exp.Confidence, 1e-9)
	})

	t.Run("clamped to one", func(t *testing.T) {
		exp := e.Explain(buttonPattern(), buttonRequirements(), bothSignals())
		assert.InDelta(t, 0.6+0.15+0.2, exp.Confidence, 1e-9)

		generous := New(WithMatchBonus(0.1, 0.5))
		exp = generous.Explain(buttonPattern(), buttonRequirements(), bothSignals())
		assert.Equal(t, 1.0, exp.Confidence)
	})

	t.Run("clamped to zero", func(t *testing.T) {
		exp := e.Explain(p, types.Requirements{}, Signals{LexicalRank: types.RankNotPresent, SemanticRank: 3, FinalScore: 0})
		assert.Equal(t, 0.0, exp.Confidence)
	})
}

func TestOptions(t *testing.T) {
	e := New(
		WithStrongThreshold(0.5),
		WithAgreementBonus(0.3, 0),
		WithMatchBonus(0.1, 0.1),
		WithSingleSourcePenalty(0),
	)
	p := types.Pattern{ID: "p", Name: "P"}

	exp := e.Explain(p, types.Requirements{}, Signals{LexicalRank: 2, SemanticRank: 3, FinalScore: 0.5, LexicalNormalized: 0.6, SemanticScore: 0.6})
	assert.InDelta(t, 0.3, exp.Confidence, 1e-9)
	assert.Equal(t, "Strong lexical and semantic similarity.", exp.Rationale)

	exp = e.Explain(p, types.Requirements{}, Signals{LexicalRank: 2, SemanticRank: 2, FinalScore: 0.5})
	assert.InDelta(t, 0.6, exp.Confidence, 1e-9)
}

func TestMatchA11y(t *testing.T) {
	have := []string{"Keyboard navigation support", "Screen reader labels", "Focus visible ring"}

	tests := []struct {
		name   string
		wanted []string
		want   []string
	}{
		{"substring", []string{"keyboard navigation"}, []string{"keyboard navigation"}},
		{"superstring", []string{"full keyboard navigation support for menus"}, []string{"full keyboard navigation support for menus"}},
		{"token containment", []string{"labels screen reader"}, []string{"labels screen reader"}},
		{"reordered tokens", []string{"reader screen"}, []string{"reader screen"}},
		{"no match", []string{"color contrast"}, nil},
		{"dedupe case-insensitive", []string{"Focus Visible", "focus visible"}, []string{"Focus Visible"}},
		{"empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchA11y(tt.wanted, have))
		})
	}
}
