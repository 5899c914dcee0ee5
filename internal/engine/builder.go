package engine

import (
	"fmt"
	"sort"
	"strings"
)

// MappingBuilder is a fluent builder for index specs.
type MappingBuilder struct {
	spec IndexSpec
	errs []string
}

// FieldOption customizes a field added through the builder.
type FieldOption func(*Field)

// WithAnalyzer sets the analyzer of a text field.
func WithAnalyzer(name string) FieldOption {
	return func(f *Field) { f.Analyzer = name }
}

// WithSubfield adds a text sub-field analyzed with the given analyzer,
// e.g. WithSubfield("english", "english") produces "title.english".
func WithSubfield(name, analyzer string) FieldOption {
	return func(f *Field) {
		if f.Fields == nil {
			f.Fields = map[string]Field{}
		}
		f.Fields[name] = Field{Type: FieldText, Analyzer: analyzer}
	}
}

// WithKeywordSubfield adds an exact-match keyword sub-field.
func WithKeywordSubfield(name string) FieldOption {
	return func(f *Field) {
		if f.Fields == nil {
			f.Fields = map[string]Field{}
		}
		f.Fields[name] = Field{Type: FieldKeyword}
	}
}

// NewMapping starts building an index spec.
func NewMapping() *MappingBuilder {
	return &MappingBuilder{
		spec: IndexSpec{Mapping: Mapping{Properties: map[string]Field{}}},
	}
}

func (b *MappingBuilder) add(name string, f Field, opts []FieldOption) *MappingBuilder {
	if name == "" {
		b.errs = append(b.errs, "field name is required")
		return b
	}
	if _, dup := b.spec.Mapping.Properties[name]; dup {
		b.errs = append(b.errs, fmt.Sprintf("duplicate field %q", name))
		return b
	}
	for _, o := range opts {
		o(&f)
	}
	b.spec.Mapping.Properties[name] = f
	return b
}

// Text adds an analyzed text field.
func (b *MappingBuilder) Text(name string, opts ...FieldOption) *MappingBuilder {
	return b.add(name, Field{Type: FieldText}, opts)
}

// Keyword adds an exact-match keyword field.
func (b *MappingBuilder) Keyword(name string) *MappingBuilder {
	return b.add(name, Field{Type: FieldKeyword}, nil)
}

// Integer adds an integer field.
func (b *MappingBuilder) Integer(name string) *MappingBuilder {
	return b.add(name, Field{Type: FieldInteger}, nil)
}

// Long adds a 64-bit integer field.
func (b *MappingBuilder) Long(name string) *MappingBuilder {
	return b.add(name, Field{Type: FieldLong}, nil)
}

// Boolean adds a boolean field.
func (b *MappingBuilder) Boolean(name string) *MappingBuilder {
	return b.add(name, Field{Type: FieldBoolean}, nil)
}

// Date adds a date field with an optional engine date format.
func (b *MappingBuilder) Date(name, format string) *MappingBuilder {
	return b.add(name, Field{Type: FieldDate, Format: format}, nil)
}

// Analyzer declares a custom analyzer in the index settings.
func (b *MappingBuilder) Analyzer(name, tokenizer string, filters ...string) *MappingBuilder {
	if b.spec.Settings.Analyzers == nil {
		b.spec.Settings.Analyzers = map[string]Analyzer{}
	}
	b.spec.Settings.Analyzers[name] = Analyzer{Type: "custom", Tokenizer: tokenizer, Filters: filters}
	return b
}

// Stemmer declares a language stemmer token filter in the index settings.
func (b *MappingBuilder) Stemmer(name, language string) *MappingBuilder {
	if b.spec.Settings.TokenFilters == nil {
		b.spec.Settings.TokenFilters = map[string]TokenFilter{}
	}
	b.spec.Settings.TokenFilters[name] = TokenFilter{Type: "stemmer", Language: language}
	return b
}

// Shards sets primary shard and replica counts.
func (b *MappingBuilder) Shards(shards, replicas int) *MappingBuilder {
	b.spec.Settings.Shards = shards
	b.spec.Settings.Replicas = replicas
	return b
}

// Build validates and returns the index spec.
func (b *MappingBuilder) Build() (IndexSpec, error) {
	if len(b.errs) > 0 {
		return IndexSpec{}, errorf("%s", strings.Join(b.errs, "; "))
	}
	if err := b.spec.Validate(); err != nil {
		return IndexSpec{}, err
	}
	return b.spec, nil
}

// MustBuild calls Build and panics on error.
func (b *MappingBuilder) MustBuild() IndexSpec {
	spec, err := b.Build()
	if err != nil {
		panic(err)
	}
	return spec
}

// String returns a compact debug representation of the mapping.
func (s IndexSpec) String() string {
	parts := make([]string, 0, len(s.Mapping.Properties))
	for _, name := range s.Mapping.Names() {
		f := s.Mapping.Properties[name]
		p := name + ":" + string(f.Type)
		if f.Analyzer != "" {
			p += "(" + f.Analyzer + ")"
		}
		subs := make([]string, 0, len(f.Fields))
		for sub := range f.Fields {
			subs = append(subs, sub)
		}
		sort.Strings(subs)
		for _, sub := range subs {
			p += "+" + sub
		}
		parts = append(parts, p)
	}
	return "MAPPING " + strings.Join(parts, " ")
}
