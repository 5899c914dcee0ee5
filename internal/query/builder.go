// Package query synthesizes search requests: weighted multi-field matching,
// filter and exclusion composition, sort resolution, paging and projection.
package query

import (
	"github.com/roxby/tubesearch/internal/engine"
)

// FieldResolver reports whether a text field declares a sub-field. engine.Mapping satisfies it.
type FieldResolver interface {
	HasSubfield(field, sub string) bool
}

// SortTable maps each supported Sort to concrete sort clauses for one entity.
type SortTable map[Sort][]engine.SortClause

// Builder builds search requests for one entity. It is immutable after New and safe to share.
type Builder struct {
	defaults []engine.FieldBoost
	sorts    SortTable
	fallback Sort
	msm      string
	subfield string
	resolver FieldResolver
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithSorts sets the entity's sort table.
func WithSorts(t SortTable) BuilderOption {
	return func(b *Builder) { b.sorts = t }
}

// WithFallbackSort sets the sort used for empty or unknown input. Default: SortRecent.
func WithFallbackSort(s Sort) BuilderOption {
	return func(b *Builder) { b.fallback = s }
}

// WithMinimumShouldMatch sets the multi-field match threshold. Default: "75%".
func WithMinimumShouldMatch(msm string) BuilderOption {
	return func(b *Builder) { b.msm = msm }
}

// WithSubfield sets the language sub-field probed for every text field. Default: "english".
func WithSubfield(name string) BuilderOption {
	return func(b *Builder) { b.subfield = name }
}

// WithResolver sets the mapping used to decide which fields carry the sub-field.
func WithResolver(r FieldResolver) BuilderOption {
	return func(b *Builder) { b.resolver = r }
}

// New creates a builder with the entity's default field/boost list.
func New(defaults []engine.FieldBoost, opts ...BuilderOption) *Builder {
	b := &Builder{
		defaults: defaults,
		fallback: SortRecent,
		msm:      DefaultMinimumShouldMatch,
		subfield: DefaultSubfield,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// ForMapping returns a copy of the builder resolving sub-fields against m,
// typically the live mapping fetched from the engine.
func (b *Builder) ForMapping(m FieldResolver) *Builder {
	cp := *b
	cp.resolver = m
	return &cp
}

// Fields expands a field/boost list: every text field that declares the
// language sub-field is followed by that sub-field at the same boost.
// An empty override selects the entity defaults.
func (b *Builder) Fields(override map[string]float64) []engine.FieldBoost {
	base := b.defaults
	if len(override) > 0 {
		base = fieldBoosts(override)
	}
	out := make([]engine.FieldBoost, 0, len(base)*2)
	seen := make(map[string]bool, len(base)*2)
	add := func(f engine.FieldBoost) {
		if seen[f.Field] {
			return
		}
		seen[f.Field] = true
		out = append(out, f)
	}
	for _, f := range base {
		add(f)
		if b.resolver != nil && b.subfield != "" && b.resolver.HasSubfield(f.Field, b.subfield) {
			add(engine.FieldBoost{Field: f.Field + "." + b.subfield, Boost: f.Boost})
		}
	}
	return out
}

// Match builds the weighted multi-field clause for free text.
func (b *Builder) Match(text string, override map[string]float64) engine.Query {
	return engine.MultiMatchQuery{
		Query:              text,
		Fields:             b.Fields(override),
		MinimumShouldMatch: b.msm,
	}
}

// SortFor resolves a Sort into sort clauses. Relevance yields none.
func (b *Builder) SortFor(s Sort) []engine.SortClause {
	if !s.IsValid() {
		s = b.fallback
	}
	if s == SortRelevance {
		return nil
	}
	if clauses, ok := b.sorts[s]; ok {
		return clauses
	}
	return b.sorts[b.fallback]
}

// Build assembles the search request: the text match in must, filters in filter
// and the soft-delete exclusion in must_not. Empty text matches everything in scope.
func (b *Builder) Build(index, text string, f Filters, o Options) engine.SearchRequest {
	o = o.Resolve(b.fallback)

	return engine.SearchRequest{
		Index:  index,
		Query:  b.Scope(text, f, o.Fields),
		Sort:   b.SortFor(o.Sort),
		From:   o.From,
		Size:   o.Size,
		Source: o.Source,
	}
}

// Scope builds the query part of a request without paging or sort, e.g. for counts.
func (b *Builder) Scope(text string, f Filters, fields map[string]float64) engine.Query {
	q := engine.BoolQuery{
		Filter:  f.Clauses(),
		MustNot: []engine.Query{ExcludeDeleted()},
	}
	if text != "" {
		q.Must = []engine.Query{b.Match(text, fields)}
	}
	return q
}
