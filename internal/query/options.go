package query

import (
	"maps"
	"slices"

	"github.com/roxby/tubesearch/internal/engine"
)

// Query defaults.
const (
	DefaultFrom               = 0
	DefaultSize               = 100
	DefaultMinimumShouldMatch = "75%"
	DefaultSubfield           = "english"
)

// Options are the per-call paging, sort and projection parameters.
// Zero values select defaults; Size has no upper bound at this layer.
type Options struct {
	From int
	Size int
	Sort Sort
	// Fields overrides the entity's default field/boost list.
	Fields map[string]float64
	// Source restricts returned fields; empty means the full document.
	Source []string
}

// Resolve returns a copy with defaults applied: from<0 becomes 0, size<=0 becomes 100
// and an empty or unknown sort becomes fallback.
func (o Options) Resolve(fallback Sort) Options {
	if o.From < 0 {
		o.From = DefaultFrom
	}
	if o.Size <= 0 {
		o.Size = DefaultSize
	}
	if !o.Sort.IsValid() {
		o.Sort = fallback
	}
	return o
}

// fieldBoosts converts a caller field map into a deterministic, name-ordered list.
func fieldBoosts(m map[string]float64) []engine.FieldBoost {
	names := slices.Sorted(maps.Keys(m))
	out := make([]engine.FieldBoost, 0, len(names))
	for _, n := range names {
		out = append(out, engine.FieldBoost{Field: n, Boost: m[n]})
	}
	return out
}
