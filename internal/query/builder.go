// Package query turns structured requirements into retrieval queries.
package query

import (
	"strings"

	"github.com/dshills/patternrank/internal/lexical"
	"github.com/dshills/patternrank/pkg/types"
)

// typeBoost is how many times the component type is repeated in the lexical
// query so that exact type matches dominate BM25 scoring.
const typeBoost = 3

// FilterType is the metadata filter key for the component type
const FilterType = "type"

// Query is the per-request derived form of a Requirements value
type Query struct {
	Lexical  string            // Lowercased tokens for BM25, camelCase already split
	Semantic string            // Natural-language sentence for embedding
	Filters  map[string]string // Equality filters for the vector index
}

// Build derives the lexical query, semantic query and filters from req.
// It is deterministic and performs no I/O.
func Build(req types.Requirements) Query {
	return Query{
		Lexical:  buildLexical(req),
		Semantic: buildSemantic(req),
		Filters:  buildFilters(req),
	}
}

func buildLexical(req types.Requirements) string {
	terms := make([]string, 0, typeBoost+len(req.Props)+len(req.Variants)+len(req.States))

	if t := lexical.Tokenize(req.ComponentType); len(t) > 0 {
		for i := 0; i < typeBoost; i++ {
			terms = append(terms, t...)
		}
	}
	for _, p := range req.Props {
		terms = append(terms, lexical.Tokenize(p.Name)...)
	}
	for _, v := range req.Variants {
		terms = append(terms, lexical.Tokenize(v)...)
	}
	for _, s := range req.States {
		terms = append(terms, lexical.Tokenize(s)...)
	}

	return strings.Join(terms, " ")
}

func buildSemantic(req types.Requirements) string {
	componentType := strings.TrimSpace(req.ComponentType)
	if componentType == "" {
		componentType = "UI"
	}

	var b strings.Builder
	b.WriteString("A ")
	b.WriteString(componentType)
	b.WriteString(" component")

	// The first clause follows the noun directly; later ones are comma-led.
	clauses := 0
	clause := func(lead, body string) {
		if clauses > 0 {
			b.WriteString(",")
		}
		b.WriteString(" ")
		b.WriteString(lead)
		b.WriteString(" ")
		b.WriteString(body)
		clauses++
	}

	if props := nonEmpty(req.PropNames()); len(props) > 0 {
		clause("with", JoinNatural(props)+" props")
	}
	if variants := nonEmpty(req.Variants); len(variants) > 0 {
		clause("with", JoinNatural(variants)+" variants")
	}
	if a11y := nonEmpty(req.A11y); len(a11y) > 0 {
		clause("supporting", JoinNatural(a11y))
	}
	b.WriteString(".")

	return b.String()
}

func buildFilters(req types.Requirements) map[string]string {
	filters := make(map[string]string)
	if t := strings.ToLower(strings.TrimSpace(req.ComponentType)); t != "" {
		filters[FilterType] = t
	}
	return filters
}

// JoinNatural joins items as English prose: "a", "a and b", "a, b and c".
func JoinNatural(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
