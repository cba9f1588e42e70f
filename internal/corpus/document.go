package corpus

import (
	"strings"

	"github.com/dshills/patternrank/internal/query"
	"github.com/dshills/patternrank/pkg/types"
)

// Document renders the text embedded for a pattern. It reads like the
// requirement sentences the query builder produces so both land close
// together in embedding space.
func Document(p types.Pattern) string {
	var b strings.Builder

	b.WriteString(p.Name)
	if p.Category != "" {
		b.WriteString(" (")
		b.WriteString(p.Category)
		b.WriteString(")")
	}
	b.WriteString(" component.")

	if d := strings.TrimSpace(p.Description); d != "" {
		b.WriteString(" ")
		b.WriteString(d)
		if !strings.HasSuffix(d, ".") {
			b.WriteString(".")
		}
	}
	if names := p.PropNames(); len(names) > 0 {
		b.WriteString(" Props: ")
		b.WriteString(query.JoinNatural(names))
		b.WriteString(".")
	}
	if names := p.VariantNames(); len(names) > 0 {
		b.WriteString(" Variants: ")
		b.WriteString(query.JoinNatural(names))
		b.WriteString(".")
	}
	if f := p.Metadata.A11y.Features; len(f) > 0 {
		b.WriteString(" Accessibility: ")
		b.WriteString(query.JoinNatural(f))
		b.WriteString(".")
	}

	return b.String()
}

// Payload returns the filterable metadata stored next to a pattern vector.
// "type" is the lowercased pattern name, matching query filters.
func Payload(p types.Pattern) map[string]string {
	payload := map[string]string{
		"type": strings.ToLower(strings.TrimSpace(p.Name)),
	}
	if p.Category != "" {
		payload["category"] = strings.ToLower(p.Category)
	}
	if p.Framework != "" {
		payload["framework"] = p.Framework
	}
	if p.Library != "" {
		payload["library"] = p.Library
	}
	return payload
}
