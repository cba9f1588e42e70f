package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Prop describes a component property in canonical form
type Prop struct {
	Name string `json:"name" yaml:"name" toml:"name"`
	Type string `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
}

// Variant is a named visual or behavioral variant of a component
type Variant struct {
	Name string `json:"name" yaml:"name" toml:"name"`
}

// A11y holds the accessibility features a pattern declares
type A11y struct {
	Features []string `json:"features,omitempty" yaml:"features,omitempty" toml:"features,omitempty"`
}

// PatternMetadata is the structured part of a pattern used for matching
type PatternMetadata struct {
	Props    []Prop    `json:"props,omitempty" yaml:"props,omitempty" toml:"props,omitempty"`
	Variants []Variant `json:"variants,omitempty" yaml:"variants,omitempty" toml:"variants,omitempty"`
	A11y     A11y      `json:"a11y" yaml:"a11y" toml:"a11y"`
}

// Pattern is a curated UI component pattern. Patterns are loaded once and
// never mutated afterwards, so they are shared freely across goroutines.
type Pattern struct {
	ID          string          `json:"id" yaml:"id" toml:"id"`
	Name        string          `json:"name" yaml:"name" toml:"name"`
	Category    string          `json:"category,omitempty" yaml:"category,omitempty" toml:"category,omitempty"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Framework   string          `json:"framework,omitempty" yaml:"framework,omitempty" toml:"framework,omitempty"`
	Library     string          `json:"library,omitempty" yaml:"library,omitempty" toml:"library,omitempty"`
	Metadata    PatternMetadata `json:"metadata" yaml:"metadata" toml:"metadata"`
}

// PropNames returns the declared prop names in declaration order
func (p Pattern) PropNames() []string {
	names := make([]string, 0, len(p.Metadata.Props))
	for _, prop := range p.Metadata.Props {
		names = append(names, prop.Name)
	}
	return names
}

// VariantNames returns the declared variant names in declaration order
func (p Pattern) VariantNames() []string {
	names := make([]string, 0, len(p.Metadata.Variants))
	for _, v := range p.Metadata.Variants {
		names = append(names, v.Name)
	}
	return names
}

// Validate checks the fields every pattern must carry
func (p Pattern) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrMissingPatternID
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: pattern %q", ErrMissingPatternName, p.ID)
	}
	return nil
}

// Requirements is the structured description of the component a caller wants.
// It is produced per request by the requirements-proposal agents and never
// persisted here.
type Requirements struct {
	ComponentType string   `json:"component_type"`
	Props         []Prop   `json:"props,omitempty"`
	Variants      []string `json:"variants,omitempty"`
	A11y          []string `json:"a11y,omitempty"`
	States        []string `json:"states,omitempty"`
}

// IsEmpty reports whether the requirements carry nothing to match on
func (r Requirements) IsEmpty() bool {
	return strings.TrimSpace(r.ComponentType) == "" &&
		len(r.Props) == 0 && len(r.Variants) == 0 && len(r.A11y) == 0 && len(r.States) == 0
}

// PropNames returns the requested prop names in request order
func (r Requirements) PropNames() []string {
	names := make([]string, 0, len(r.Props))
	for _, prop := range r.Props {
		names = append(names, prop.Name)
	}
	return names
}

// UnmarshalJSON accepts props as strings, {name,type} objects or a name->type
// map and stores them in canonical form.
func (r *Requirements) UnmarshalJSON(data []byte) error {
	var raw struct {
		ComponentType string   `json:"component_type"`
		Props         any      `json:"props"`
		Variants      any      `json:"variants"`
		A11y          any      `json:"a11y"`
		States        []string `json:"states"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	props, err := NormalizeProps(raw.Props)
	if err != nil {
		return err
	}
	variants, err := NormalizeNames(raw.Variants)
	if err != nil {
		return fmt.Errorf("variants: %w", err)
	}
	a11y, err := NormalizeNames(raw.A11y)
	if err != nil {
		return fmt.Errorf("a11y: %w", err)
	}

	*r = Requirements{
		ComponentType: strings.TrimSpace(raw.ComponentType),
		Props:         props,
		Variants:      variants,
		A11y:          a11y,
		States:        raw.States,
	}
	return nil
}

// NormalizeProps converts a loosely-typed props value into []Prop.
// Accepted shapes: nil, []string, a list mixing strings and {name,type}
// objects, or a map of name to type. Entries without a name are dropped.
func NormalizeProps(v any) ([]Prop, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case []Prop:
		return val, nil
	case []string:
		props := make([]Prop, 0, len(val))
		for _, name := range val {
			if name = strings.TrimSpace(name); name != "" {
				props = append(props, Prop{Name: name})
			}
		}
		return props, nil
	case []any:
		props := make([]Prop, 0, len(val))
		for i, item := range val {
			prop, ok, err := propFromAny(item)
			if err != nil {
				return nil, fmt.Errorf("%w: props[%d]: %v", ErrMalformedProps, i, err)
			}
			if ok {
				props = append(props, prop)
			}
		}
		return props, nil
	case map[string]any:
		names := make([]string, 0, len(val))
		for name := range val {
			names = append(names, name)
		}
		sort.Strings(names)
		props := make([]Prop, 0, len(names))
		for _, name := range names {
			typ, _ := val[name].(string)
			props = append(props, Prop{Name: name, Type: typ})
		}
		return props, nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrMalformedProps, v)
	}
}

func propFromAny(item any) (Prop, bool, error) {
	switch it := item.(type) {
	case string:
		name := strings.TrimSpace(it)
		return Prop{Name: name}, name != "", nil
	case map[string]any:
		name, _ := it["name"].(string)
		typ, _ := it["type"].(string)
		name = strings.TrimSpace(name)
		return Prop{Name: name, Type: typ}, name != "", nil
	default:
		return Prop{}, false, fmt.Errorf("unsupported entry type %T", item)
	}
}

// NormalizeNames converts a list of strings or {name: ...} objects into
// plain names. It is used for variants and a11y features.
func NormalizeNames(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return val, nil
	case []any:
		names := make([]string, 0, len(val))
		for i, item := range val {
			switch it := item.(type) {
			case string:
				if s := strings.TrimSpace(it); s != "" {
					names = append(names, s)
				}
			case map[string]any:
				if s, _ := it["name"].(string); strings.TrimSpace(s) != "" {
					names = append(names, strings.TrimSpace(s))
				}
			default:
				return nil, fmt.Errorf("entry %d: unsupported type %T", i, item)
			}
		}
		return names, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
}
