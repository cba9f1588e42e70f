package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequirementsUnmarshalPropShapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Prop
	}{
		{"string list", `{"component_type":"Button","props":["variant"," size ",""]}`, []Prop{{Name: "variant"}, {Name: "size"}}},
		{"object list", `{"component_type":"Button","props":[{"name":"variant","type":"string"}]}`, []Prop{{Name: "variant", Type: "string"}}},
		{"map sorted by name", `{"component_type":"Button","props":{"size":"string","disabled":"boolean"}}`, []Prop{{Name: "disabled", Type: "boolean"}, {Name: "size", Type: "string"}}},
		{"absent", `{"component_type":"Button"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req Requirements
			require.NoError(t, json.Unmarshal([]byte(tt.input), &req))
			assert.Equal(t, "Button", req.ComponentType)
			assert.Equal(t, tt.want, req.Props)
		})
	}
}

func TestRequirementsUnmarshalNames(t *testing.T) {
	var req Requirements
	input := `{"component_type":" Card ","variants":[{"name":"elevated"},"flat"],"a11y":["Focus ring"],"states":["hover"]}`
	require.NoError(t, json.Unmarshal([]byte(input), &req))

	assert.Equal(t, "Card", req.ComponentType)
	assert.Equal(t, []string{"elevated", "flat"}, req.Variants)
	assert.Equal(t, []string{"Focus ring"}, req.A11y)
	assert.Equal(t, []string{"hover"}, req.States)
}

func TestRequirementsUnmarshalMalformed(t *testing.T) {
	var req Requirements
	err := json.Unmarshal([]byte(`{"props":[1,2]}`), &req)
	assert.ErrorIs(t, err, ErrMalformedProps)

	err = json.Unmarshal([]byte(`{"props":"variant"}`), &req)
	assert.ErrorIs(t, err, ErrMalformedProps)

	err = json.Unmarshal([]byte(`{"variants":7}`), &req)
	assert.Error(t, err)
}

func TestRequirementsIsEmpty(t *testing.T) {
	assert.True(t, Requirements{}.IsEmpty())
	assert.True(t, Requirements{ComponentType: "  "}.IsEmpty())
	assert.False(t, Requirements{States: []string{"hover"}}.IsEmpty())
	assert.False(t, Requirements{ComponentType: "Button"}.IsEmpty())
}

func TestPatternValidate(t *testing.T) {
	assert.NoError(t, Pattern{ID: "button", Name: "Button"}.Validate())
	assert.ErrorIs(t, Pattern{Name: "Button"}.Validate(), ErrMissingPatternID)
	assert.ErrorIs(t, Pattern{ID: "button"}.Validate(), ErrMissingPatternName)
}

func TestRetrievalErrorKinds(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		kind        RetrievalErrorKind
		unavailable bool
	}{
		{"embedding", fmt.Errorf("%w: status 401", ErrEmbeddingFailed), KindEmbedding, true},
		{"vector db", ErrVectorDBUnavailable, KindVectorDB, true},
		{"collection missing", ErrCollectionNotFound, KindCollectionNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error = NewRetrievalError("search", "ui_patterns", tt.err)

			var re *RetrievalError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tt.kind, re.Kind)
			assert.Equal(t, tt.unavailable, errors.Is(err, ErrRetrievalUnavailable))
			assert.Contains(t, err.Error(), `collection "ui_patterns"`)
		})
	}
}

func TestExplanationValidate(t *testing.T) {
	valid := Explanation{PatternID: "button", Confidence: 0.7, Rationale: "Exact type match."}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.Confidence = 1.2
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfidence)

	bad = valid
	bad.Rationale = ""
	assert.ErrorIs(t, bad.Validate(), ErrEmptyRationale)
}

func TestRankingDetailsPresence(t *testing.T) {
	d := RankingDetails{LexicalRank: 1, SemanticRank: RankNotPresent}
	assert.True(t, d.InLexical())
	assert.False(t, d.InSemantic())
}
