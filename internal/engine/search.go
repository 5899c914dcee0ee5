package engine

import (
	"encoding/json"
	"fmt"
)

// SortOrder is the direction of a sort clause.
type SortOrder string

// Sort directions.
const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// ScoreField is the pseudo-field for relevance score sorting.
const ScoreField = "_score"

// SortClause orders hits by a field or by a computed numeric script.
type SortClause struct {
	Field  string
	Order  SortOrder
	Script *Script
}

// FieldSort orders by a document field.
func FieldSort(field string, order SortOrder) SortClause {
	return SortClause{Field: field, Order: order}
}

// ScriptSort orders by a numeric value computed per hit.
func ScriptSort(s *Script, order SortOrder) SortClause {
	return SortClause{Script: s, Order: order}
}

// MarshalJSON implements json.Marshaler.
func (c SortClause) MarshalJSON() ([]byte, error) {
	order := c.Order
	if order == "" {
		order = Asc
	}
	if c.Script != nil {
		return json.Marshal(map[string]any{
			"_script": map[string]any{"type": "number", "script": c.Script, "order": order},
		})
	}
	return json.Marshal(map[string]any{c.Field: map[string]any{"order": order}})
}

// MarshalJSON implements json.Marshaler.
func (s Script) MarshalJSON() ([]byte, error) {
	body := map[string]any{}
	switch {
	case s.Source != "":
		body["source"] = s.Source
		if s.Lang != "" {
			body["lang"] = s.Lang
		}
	case s.ID != "":
		body["id"] = s.ID
	default:
		return nil, errorf("script needs a source or an id")
	}
	if len(s.Params) > 0 {
		body["params"] = s.Params
	}
	return json.Marshal(body)
}

// SearchRequest is a paged, sorted and projected query against one index.
// An empty Source means the full document.
type SearchRequest struct {
	Index  string
	Query  Query
	Sort   []SortClause
	From   int
	Size   int
	Source []string
}

// Validate checks the request before it reaches the engine.
func (r *SearchRequest) Validate() error {
	if r.Index == "" {
		return &Error{Op: OpSearch, Err: errorf("index is required")}
	}
	if r.From < 0 || r.Size < 0 {
		return &Error{Op: OpSearch, Index: r.Index, Err: errorf("from and size must be >= 0")}
	}
	return nil
}

// Body renders the search request body in the engine's JSON format.
func (r *SearchRequest) Body() ([]byte, error) {
	body := map[string]any{
		"from":             r.From,
		"size":             r.Size,
		"track_total_hits": true,
	}
	if r.Query != nil {
		body["query"] = r.Query
	} else {
		body["query"] = MatchAllQuery{}
	}
	if len(r.Sort) > 0 {
		body["sort"] = r.Sort
	}
	if len(r.Source) > 0 {
		body["_source"] = r.Source
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}
	return b, nil
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total int64
	Hits  []Hit
}

// Hit is a single document returned by the engine.
type Hit struct {
	Index  string
	ID     string
	Score  float64
	Source Document
}

// QueryBody renders {"query": q} for count and delete-by-query requests.
func QueryBody(q Query) ([]byte, error) {
	if q == nil {
		q = MatchAllQuery{}
	}
	b, err := json.Marshal(map[string]any{"query": q})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}
	return b, nil
}
