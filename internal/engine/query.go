package engine

import (
	"encoding/json"
	"strconv"
)

// Now is the engine date-math expression for the current instant, valid as a range bound.
const Now = "now"

// Query is a node of the typed query tree. Every node marshals to the engine's query DSL.
type Query interface {
	json.Marshaler
	queryNode()
}

// FieldBoost is a field name with a relevance multiplier.
type FieldBoost struct {
	Field string
	Boost float64
}

// String renders the field in "name^boost" form; a boost of 0 or 1 is omitted.
func (f FieldBoost) String() string {
	if f.Boost == 0 || f.Boost == 1 {
		return f.Field
	}
	return f.Field + "^" + strconv.FormatFloat(f.Boost, 'f', -1, 64)
}

// BoolQuery combines clauses. Filter and MustNot clauses never affect scoring.
type BoolQuery struct {
	Must               []Query
	Filter             []Query
	Should             []Query
	MustNot            []Query
	MinimumShouldMatch string
}

func (BoolQuery) queryNode() {}

// MarshalJSON implements json.Marshaler.
func (q BoolQuery) MarshalJSON() ([]byte, error) {
	body := map[string]any{}
	if len(q.Must) > 0 {
		body["must"] = q.Must
	}
	if len(q.Filter) > 0 {
		body["filter"] = q.Filter
	}
	if len(q.Should) > 0 {
		body["should"] = q.Should
	}
	if len(q.MustNot) > 0 {
		body["must_not"] = q.MustNot
	}
	if q.MinimumShouldMatch != "" {
		body["minimum_should_match"] = q.MinimumShouldMatch
	}
	return json.Marshal(map[string]any{"bool": body})
}

// MultiMatchQuery matches text against several weighted fields.
type MultiMatchQuery struct {
	Query              string
	Fields             []FieldBoost
	Type               string
	MinimumShouldMatch string
}

func (MultiMatchQuery) queryNode() {}

// MarshalJSON implements json.Marshaler.
func (q MultiMatchQuery) MarshalJSON() ([]byte, error) {
	fields := make([]string, len(q.Fields))
	for i, f := range q.Fields {
		fields[i] = f.String()
	}
	body := map[string]any{"query": q.Query, "fields": fields}
	if q.Type != "" {
		body["type"] = q.Type
	}
	if q.MinimumShouldMatch != "" {
		body["minimum_should_match"] = q.MinimumShouldMatch
	}
	return json.Marshal(map[string]any{"multi_match": body})
}

// MatchQuery is a full-text match on a single field.
type MatchQuery struct {
	Field     string
	Query     string
	Operator  string
	Fuzziness string
}

func (MatchQuery) queryNode() {}

// MarshalJSON implements json.Marshaler.
func (q MatchQuery) MarshalJSON() ([]byte, error) {
	body := map[string]any{"query": q.Query}
	if q.Operator != "" {
		body["operator"] = q.Operator
	}
	if q.Fuzziness != "" {
		body["fuzziness"] = q.Fuzziness
	}
	return json.Marshal(map[string]any{"match": map[string]any{q.Field: body}})
}

// TermQuery is an exact, unanalyzed match.
type TermQuery struct {
	Field string
	Value any
	Boost float64
}

func (TermQuery) queryNode() {}

// MarshalJSON implements json.Marshaler.
func (q TermQuery) MarshalJSON() ([]byte, error) {
	body := map[string]any{"value": q.Value}
	if q.Boost != 0 {
		body["boost"] = q.Boost
	}
	return json.Marshal(map[string]any{"term": map[string]any{q.Field: body}})
}

// RangeQuery bounds a numeric or date field. Nil bounds are open.
type RangeQuery struct {
	Field  string
	GTE    any
	LTE    any
	GT     any
	LT     any
	Format string
}

func (RangeQuery) queryNode() {}

// MarshalJSON implements json.Marshaler.
func (q RangeQuery) MarshalJSON() ([]byte, error) {
	body := map[string]any{}
	if q.GTE != nil {
		body["gte"] = q.GTE
	}
	if q.LTE != nil {
		body["lte"] = q.LTE
	}
	if q.GT != nil {
		body["gt"] = q.GT
	}
	if q.LT != nil {
		body["lt"] = q.LT
	}
	if q.Format != "" {
		body["format"] = q.Format
	}
	return json.Marshal(map[string]any{"range": map[string]any{q.Field: body}})
}

// FuzzyQuery matches terms within an edit distance.
type FuzzyQuery struct {
	Field     string
	Value     string
	Fuzziness string
}

func (FuzzyQuery) queryNode() {}

// MarshalJSON implements json.Marshaler.
func (q FuzzyQuery) MarshalJSON() ([]byte, error) {
	fuzziness := q.Fuzziness
	if fuzziness == "" {
		fuzziness = "AUTO"
	}
	return json.Marshal(map[string]any{
		"fuzzy": map[string]any{q.Field: map[string]any{"value": q.Value, "fuzziness": fuzziness}},
	})
}

// MatchAllQuery matches every document.
type MatchAllQuery struct{}

func (MatchAllQuery) queryNode() {}

// MarshalJSON implements json.Marshaler.
func (MatchAllQuery) MarshalJSON() ([]byte, error) {
	return []byte(`{"match_all":{}}`), nil
}

// Term builds an exact-match clause.
func Term(field string, value any) TermQuery {
	return TermQuery{Field: field, Value: value}
}

// Between builds an inclusive range clause; nil bounds are open.
func Between(field string, gte, lte any) RangeQuery {
	return RangeQuery{Field: field, GTE: gte, LTE: lte}
}
