package query

import "github.com/roxby/tubesearch/internal/engine"

// Well-known document fields used by scoping and exclusion clauses.
const (
	FieldTube     = "tube"
	FieldIsHD     = "is_hd"
	FieldDuration = "duration"
	FieldPostDate = "post_date"
	FieldDeleted  = "deleted"
)

// Filters are exact, non-scoring constraints. Nil pointers and empty strings are unset.
type Filters struct {
	Tube        string
	IsHD        *bool
	MinDuration *int
	MaxDuration *int
	// PublishedOnly excludes documents whose post_date is in the future.
	PublishedOnly bool
	Extra         []engine.Query
}

// Clauses renders the filters as engine filter clauses.
func (f Filters) Clauses() []engine.Query {
	var out []engine.Query
	if f.Tube != "" {
		out = append(out, engine.Term(FieldTube, f.Tube))
	}
	if f.IsHD != nil {
		out = append(out, engine.Term(FieldIsHD, *f.IsHD))
	}
	if f.MinDuration != nil || f.MaxDuration != nil {
		r := engine.RangeQuery{Field: FieldDuration}
		if f.MinDuration != nil {
			r.GTE = *f.MinDuration
		}
		if f.MaxDuration != nil {
			r.LTE = *f.MaxDuration
		}
		out = append(out, r)
	}
	if f.PublishedOnly {
		out = append(out, engine.RangeQuery{Field: FieldPostDate, LTE: engine.Now})
	}
	return append(out, f.Extra...)
}

// ExcludeDeleted is the permanent exclusion of soft-deleted documents.
func ExcludeDeleted() engine.Query {
	return engine.Term(FieldDeleted, true)
}
