package engine

import (
	"encoding/json"
	"fmt"
	"sort"
)

// FieldType is the declared engine type of a mapped field.
type FieldType string

// Supported field types.
const (
	FieldText    FieldType = "text"
	FieldKeyword FieldType = "keyword"
	FieldInteger FieldType = "integer"
	FieldLong    FieldType = "long"
	FieldFloat   FieldType = "float"
	FieldBoolean FieldType = "boolean"
	FieldDate    FieldType = "date"
)

// Field is one property of an index mapping.
type Field struct {
	Type     FieldType        `json:"type"`
	Analyzer string           `json:"analyzer,omitempty"`
	Format   string           `json:"format,omitempty"`
	Fields   map[string]Field `json:"fields,omitempty"`
}

// Mapping is the declared field schema of an index.
type Mapping struct {
	Properties map[string]Field `json:"properties"`
}

// Field looks up a top-level property or a dotted sub-field ("title.english").
func (m Mapping) Field(path string) (Field, bool) {
	if f, ok := m.Properties[path]; ok {
		return f, true
	}
	for name, f := range m.Properties {
		for sub, sf := range f.Fields {
			if name+"."+sub == path {
				return sf, true
			}
		}
	}
	return Field{}, false
}

// HasSubfield reports whether a text field declares the named sub-field.
func (m Mapping) HasSubfield(field, sub string) bool {
	f, ok := m.Properties[field]
	if !ok || f.Type != FieldText {
		return false
	}
	_, ok = f.Fields[sub]
	return ok
}

// Names returns property names in sorted order.
func (m Mapping) Names() []string {
	names := make([]string, 0, len(m.Properties))
	for n := range m.Properties {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Analyzer is a custom analyzer declared in index settings.
type Analyzer struct {
	Type      string   `json:"type"`
	Tokenizer string   `json:"tokenizer"`
	Filters   []string `json:"filter,omitempty"`
}

// TokenFilter is a custom token filter declared in index settings (e.g. a language stemmer).
type TokenFilter struct {
	Type     string `json:"type"`
	Language string `json:"language,omitempty"`
}

// Settings holds index analysis settings.
type Settings struct {
	Shards       int
	Replicas     int
	Analyzers    map[string]Analyzer
	TokenFilters map[string]TokenFilter
}

// IndexSpec is everything needed to create an index.
type IndexSpec struct {
	Mapping  Mapping
	Settings Settings
}

// Validate checks the mapping for unknown types and dangling analyzer references.
func (s *IndexSpec) Validate() error {
	if len(s.Mapping.Properties) == 0 {
		return errorf("mapping must have at least one field")
	}
	for _, name := range s.Mapping.Names() {
		if err := s.validateField(name, s.Mapping.Properties[name]); err != nil {
			return err
		}
	}
	for name, a := range s.Settings.Analyzers {
		if a.Tokenizer == "" {
			return errorf("analyzer %q: tokenizer is required", name)
		}
	}
	return nil
}

func (s *IndexSpec) validateField(name string, f Field) error {
	switch f.Type {
	case FieldText, FieldKeyword, FieldInteger, FieldLong, FieldFloat, FieldBoolean, FieldDate:
	default:
		return errorf("field %q: unknown type %q", name, f.Type)
	}
	if f.Analyzer != "" && f.Type != FieldText {
		return errorf("field %q: analyzer is only valid on text fields", name)
	}
	if f.Analyzer != "" && !builtinAnalyzer(f.Analyzer) {
		if _, ok := s.Settings.Analyzers[f.Analyzer]; !ok {
			return errorf("field %q: analyzer %q is not declared", name, f.Analyzer)
		}
	}
	for sub, sf := range f.Fields {
		if len(sf.Fields) > 0 {
			return errorf("field %q: sub-field %q cannot have sub-fields", name, sub)
		}
		if err := s.validateField(name+"."+sub, sf); err != nil {
			return err
		}
	}
	return nil
}

func builtinAnalyzer(name string) bool {
	switch name {
	case "standard", "simple", "whitespace", "keyword", "english":
		return true
	}
	return false
}

// Body renders the index creation request body in the engine's JSON format.
func (s *IndexSpec) Body() ([]byte, error) {
	index := map[string]any{}
	if s.Settings.Shards > 0 {
		index["number_of_shards"] = s.Settings.Shards
	}
	if s.Settings.Replicas > 0 {
		index["number_of_replicas"] = s.Settings.Replicas
	}
	if len(s.Settings.Analyzers) > 0 || len(s.Settings.TokenFilters) > 0 {
		analysis := map[string]any{}
		if len(s.Settings.Analyzers) > 0 {
			analysis["analyzer"] = s.Settings.Analyzers
		}
		if len(s.Settings.TokenFilters) > 0 {
			analysis["filter"] = s.Settings.TokenFilters
		}
		index["analysis"] = analysis
	}

	body := map[string]any{"mappings": s.Mapping}
	if len(index) > 0 {
		body["settings"] = map[string]any{"index": index}
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal index spec: %w", err)
	}
	return b, nil
}
