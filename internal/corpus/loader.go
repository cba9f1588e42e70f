package corpus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.yaml.in/yaml/v3"

	"github.com/dshills/patternrank/pkg/types"
)

// Format is a corpus file encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported corpus format")
	ErrMalformedEntry    = errors.New("malformed pattern entry")
)

// FormatFromPath picks the format from a file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Load reads and normalizes a corpus file
func Load(path string) ([]types.Pattern, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}

	patterns, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return patterns, nil
}

// Parse decodes a corpus document. The document is either a list of
// patterns or an object with a "patterns" list (TOML only allows the
// latter). Pattern IDs must be unique.
func Parse(data []byte, format Format) ([]types.Pattern, error) {
	var doc interface{}
	var err error

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		err = dec.Decode(&doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	case FormatTOML:
		var m map[string]interface{}
		err = toml.Unmarshal(data, &m)
		doc = m
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s corpus: %w", format, err)
	}

	entries, err := entryList(doc)
	if err != nil {
		return nil, err
	}

	patterns := make([]types.Pattern, 0, len(entries))
	seen := make(map[string]int, len(entries))
	for i, entry := range entries {
		p, err := normalizeEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("pattern %d: %w", i, err)
		}
		if prev, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("pattern %d: %w: %s (first seen at %d)", i, types.ErrDuplicatePatternID, p.ID, prev)
		}
		seen[p.ID] = i
		patterns = append(patterns, p)
	}
	return patterns, nil
}

func entryList(doc interface{}) ([]interface{}, error) {
	switch d := doc.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		return d, nil
	case map[string]interface{}:
		list, ok := d["patterns"]
		if !ok {
			return nil, fmt.Errorf("%w: document has no \"patterns\" list", ErrMalformedEntry)
		}
		if list == nil {
			return nil, nil
		}
		items, ok := list.([]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: \"patterns\" is %T, not a list", ErrMalformedEntry, list)
		}
		return items, nil
	default:
		return nil, fmt.Errorf("%w: top level is %T", ErrMalformedEntry, doc)
	}
}

// normalizeEntry converts one loosely-typed entry. Props, variants and a11y
// may sit under "metadata" or at the top level of the entry.
func normalizeEntry(raw interface{}) (types.Pattern, error) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return types.Pattern{}, fmt.Errorf("%w: entry is %T, not an object", ErrMalformedEntry, raw)
	}

	p := types.Pattern{
		ID:          stringField(m, "id"),
		Name:        stringField(m, "name"),
		Category:    stringField(m, "category"),
		Description: stringField(m, "description"),
		Framework:   stringField(m, "framework"),
		Library:     stringField(m, "library"),
	}
	if err := p.Validate(); err != nil {
		return types.Pattern{}, fmt.Errorf("%w: %w", ErrMalformedEntry, err)
	}

	meta := m
	if md, ok := m["metadata"].(map[string]interface{}); ok {
		meta = md
	}

	props, err := types.NormalizeProps(meta["props"])
	if err != nil {
		return types.Pattern{}, fmt.Errorf("%s: %w", p.ID, err)
	}
	p.Metadata.Props = props

	variants, err := types.NormalizeNames(meta["variants"])
	if err != nil {
		return types.Pattern{}, fmt.Errorf("%w: %s variants: %v", ErrMalformedEntry, p.ID, err)
	}
	for _, v := range variants {
		p.Metadata.Variants = append(p.Metadata.Variants, types.Variant{Name: v})
	}

	a11y := meta["a11y"]
	if obj, ok := a11y.(map[string]interface{}); ok {
		a11y = obj["features"]
	}
	features, err := types.NormalizeNames(a11y)
	if err != nil {
		return types.Pattern{}, fmt.Errorf("%w: %s a11y: %v", ErrMalformedEntry, p.ID, err)
	}
	p.Metadata.A11y.Features = features

	return p, nil
}

func stringField(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
