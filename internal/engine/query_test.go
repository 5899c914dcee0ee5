package engine

import (
	"encoding/json"
	"testing"
)

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func TestQuery_DSL(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want string
	}{
		{
			name: "term",
			q:    Term("tube", "t1"),
			want: `{"term":{"tube":{"value":"t1"}}}`,
		},
		{
			name: "term with boost",
			q:    TermQuery{Field: "term.keyword", Value: "lola", Boost: 1},
			want: `{"term":{"term.keyword":{"boost":1,"value":"lola"}}}`,
		},
		{
			name: "range",
			q:    Between("duration", 60, 600),
			want: `{"range":{"duration":{"gte":60,"lte":600}}}`,
		},
		{
			name: "open range",
			q:    RangeQuery{Field: "post_date", LTE: Now},
			want: `{"range":{"post_date":{"lte":"now"}}}`,
		},
		{
			name: "fuzzy defaults to AUTO",
			q:    FuzzyQuery{Field: "term", Value: "lol"},
			want: `{"fuzzy":{"term":{"fuzziness":"AUTO","value":"lol"}}}`,
		},
		{
			name: "multi_match",
			q: MultiMatchQuery{
				Query:              "brown fox",
				Fields:             []FieldBoost{{Field: "title", Boost: 3}, {Field: "tags", Boost: 1}},
				MinimumShouldMatch: "75%",
			},
			want: `{"multi_match":{"fields":["title^3","tags"],"minimum_should_match":"75%","query":"brown fox"}}`,
		},
		{
			name: "bool",
			q: BoolQuery{
				Filter:  []Query{Term("tube", "t1")},
				MustNot: []Query{Term("deleted", true)},
			},
			want: `{"bool":{"filter":[{"term":{"tube":{"value":"t1"}}}],"must_not":[{"term":{"deleted":{"value":true}}}]}}`,
		},
		{
			name: "match_all",
			q:    MatchAllQuery{},
			want: `{"match_all":{}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustJSON(t, tt.q); got != tt.want {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestFieldBoost_String(t *testing.T) {
	tests := []struct {
		in   FieldBoost
		want string
	}{
		{FieldBoost{Field: "title", Boost: 3}, "title^3"},
		{FieldBoost{Field: "title.english", Boost: 2.5}, "title.english^2.5"},
		{FieldBoost{Field: "tags", Boost: 1}, "tags"},
		{FieldBoost{Field: "tags"}, "tags"},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("%+v: got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSortClause_JSON(t *testing.T) {
	got := mustJSON(t, FieldSort("post_date", Desc))
	if want := `{"post_date":{"order":"desc"}}`; got != want {
		t.Errorf("field sort = %s, want %s", got, want)
	}

	s := ScriptSort(&Script{Source: "doc['likes'].value", Lang: "painless"}, Desc)
	got = mustJSON(t, s)
	want := `{"_script":{"order":"desc","script":{"lang":"painless","source":"doc['likes'].value"},"type":"number"}}`
	if got != want {
		t.Errorf("script sort = %s, want %s", got, want)
	}
}

func TestScript_StoredID(t *testing.T) {
	got := mustJSON(t, Script{ID: "counter", Params: map[string]any{"n": 1}})
	if want := `{"id":"counter","params":{"n":1}}`; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	if _, err := json.Marshal(Script{}); err == nil {
		t.Error("expected error for script without source or id")
	}
}

func TestSearchRequest_Body(t *testing.T) {
	req := SearchRequest{
		Index:  "videos",
		Query:  Term("tube", "t1"),
		Sort:   []SortClause{FieldSort("post_date", Desc)},
		From:   10,
		Size:   5,
		Source: []string{"title"},
	}
	body, err := req.Body()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"_source":["title"],"from":10,"query":{"term":{"tube":{"value":"t1"}}},"size":5,` +
		`"sort":[{"post_date":{"order":"desc"}}],"track_total_hits":true}`
	if string(body) != want {
		t.Errorf("got  %s\nwant %s", body, want)
	}
}

func TestSearchRequest_NilQueryIsMatchAll(t *testing.T) {
	req := SearchRequest{Index: "videos", Size: 1}
	body, err := req.Body()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(decoded["query"]) != `{"match_all":{}}` {
		t.Errorf("query = %s", decoded["query"])
	}
	if _, ok := decoded["_source"]; ok {
		t.Error("empty projection must not send _source")
	}
}

func TestBulkAction_Validate(t *testing.T) {
	tests := []struct {
		name    string
		action  BulkAction
		wantErr bool
	}{
		{"index without id", BulkAction{Op: BulkIndex, Index: "v", Doc: Document{"a": 1}}, false},
		{"index without doc", BulkAction{Op: BulkIndex, Index: "v"}, true},
		{"update without id", BulkAction{Op: BulkUpdate, Index: "v", Doc: Document{"a": 1}}, true},
		{"update without body", BulkAction{Op: BulkUpdate, Index: "v", ID: "1"}, true},
		{"update with doc", BulkAction{Op: BulkUpdate, Index: "v", ID: "1", Doc: Document{"a": 1}}, false},
		{"delete without id", BulkAction{Op: BulkDelete, Index: "v"}, true},
		{"delete", BulkAction{Op: BulkDelete, Index: "v", ID: "1"}, false},
		{"no index", BulkAction{Op: BulkDelete, ID: "1"}, true},
		{"unknown op", BulkAction{Op: "upsert", Index: "v", ID: "1"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.action.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateRequest_Validate(t *testing.T) {
	ok := UpdateRequest{Index: "s", ID: "1", Script: &Script{Source: "x"}}
	if err := ok.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	both := UpdateRequest{Index: "s", ID: "1", Script: &Script{Source: "x"}, Doc: Document{}}
	if err := both.Validate(); err == nil {
		t.Error("expected error for doc+script")
	}
	noID := UpdateRequest{Index: "s", Doc: Document{}}
	if err := noID.Validate(); err == nil {
		t.Error("expected error for missing id")
	}
}
