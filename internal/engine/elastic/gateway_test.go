package elastic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/roxby/tubesearch/internal/engine"
	"github.com/roxby/tubesearch/internal/upsert"
)

func TestNew_RequiresAddresses(t *testing.T) {
	if _, err := New(Config{}, nil); err == nil {
		t.Fatal("expected error for empty addresses")
	}
}

func TestIndexExists(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		want    bool
		wantErr bool
	}{
		{"exists", http.StatusOK, true, false},
		{"missing", http.StatusNotFound, false, false},
		{"bad request", http.StatusBadRequest, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := newTestGateway(t, always(tt.status, `{}`))
			got, err := g.IndexExists(context.Background(), "videos")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("exists = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCreateIndex(t *testing.T) {
	spec := engine.NewMapping().Keyword("tube").Text("title", engine.WithSubfield("english", "english")).MustBuild()

	g, ft := newTestGateway(t, always(http.StatusOK, `{"acknowledged":true}`))
	if err := g.CreateIndex(context.Background(), "videos", spec); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	req := ft.last()
	if req.method != http.MethodPut || req.path != "/videos" {
		t.Errorf("request = %s %s, want PUT /videos", req.method, req.path)
	}
	if !strings.Contains(req.body, `"english"`) || !strings.Contains(req.body, `"mappings"`) {
		t.Errorf("body does not carry the mapping: %s", req.body)
	}

	g, _ = newTestGateway(t, always(http.StatusBadRequest,
		`{"error":{"type":"resource_already_exists_exception","reason":"index [videos] already exists"},"status":400}`))
	err := g.CreateIndex(context.Background(), "videos", spec)
	if !errors.Is(err, engine.ErrIndexExists) {
		t.Errorf("err = %v, want ErrIndexExists", err)
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"found", http.StatusOK, `{"_index":"videos","_id":"a","found":true,"_source":{"title":"brown fox"}}`, nil},
		{"missing document", http.StatusNotFound, `{"_index":"videos","_id":"a","found":false}`, engine.ErrNotFound},
		{"missing index", http.StatusNotFound,
			`{"error":{"type":"index_not_found_exception","reason":"no such index [videos]"},"status":404}`, engine.ErrIndexNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := newTestGateway(t, always(tt.status, tt.body))
			hit, err := g.Get(context.Background(), "videos", "a")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if hit.ID != "a" || hit.Source["title"] != "brown fox" {
				t.Errorf("hit = %+v", hit)
			}
		})
	}
}

func TestIndex_CreateConflict(t *testing.T) {
	g, ft := newTestGateway(t, always(http.StatusConflict,
		`{"error":{"type":"version_conflict_engine_exception","reason":"document already exists"},"status":409}`))
	_, err := g.Index(context.Background(), engine.IndexRequest{
		Index:  "videos",
		ID:     "a",
		Body:   engine.Document{"title": "x"},
		OpType: engine.OpTypeCreate,
	})
	if !errors.Is(err, engine.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
	if !strings.Contains(ft.last().query, "op_type=create") {
		t.Errorf("query %q lacks op_type=create", ft.last().query)
	}
}

func TestUpdate_CounterScript(t *testing.T) {
	g, ft := newTestGateway(t, always(http.StatusOK, `{"_id":"q1","result":"updated","_version":4}`))
	c := upsert.New(g, nil)

	r := c.Upsert(context.Background(), upsert.Spec{
		Index:          "searches",
		ID:             "q1",
		IncrementField: "count",
		Fill:           map[string]any{"tube": "t1"},
		Increment:      true,
	})
	if n, ok := r.Value(); !ok || n != 1 {
		t.Fatalf("Upsert = %+v, want 1", r)
	}

	req := ft.last()
	if req.path != "/searches/_update/q1" {
		t.Errorf("path = %s", req.path)
	}
	if !strings.Contains(req.query, "retry_on_conflict=3") {
		t.Errorf("query %q lacks retry_on_conflict=3", req.query)
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(req.body), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	script, _ := body["script"].(map[string]any)
	if script["source"] != upsert.ScriptSource || script["lang"] != "painless" {
		t.Errorf("script = %v", script)
	}
	up, _ := body["upsert"].(map[string]any)
	if up["count"] != float64(1) || up["tube"] != "t1" {
		t.Errorf("upsert document = %v", up)
	}
}

func TestDelete_NotFound(t *testing.T) {
	g, _ := newTestGateway(t, always(http.StatusNotFound, `{"_index":"videos","_id":"a","result":"not_found"}`))
	res, err := g.Delete(context.Background(), "videos", "a")
	if !errors.Is(err, engine.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if res.Result != engine.ResultNotFound {
		t.Errorf("result = %q, want not_found", res.Result)
	}
}

func TestBulk(t *testing.T) {
	replyBody := `{"took":3,"errors":true,"items":[
		{"index":{"_index":"videos","_id":"a","status":201,"result":"created"}},
		{"update":{"_index":"videos","_id":"b","status":404,
			"error":{"type":"document_missing_exception","reason":"[b]: document missing"}}},
		{"delete":{"_index":"videos","_id":"c","status":200,"result":"deleted"}}
	]}`
	g, ft := newTestGateway(t, always(http.StatusOK, replyBody))

	reply, err := g.Bulk(context.Background(), []engine.BulkAction{
		{Op: engine.BulkIndex, Index: "videos", ID: "a", Doc: engine.Document{"title": "a"}},
		{Op: engine.BulkUpdate, Index: "videos", ID: "b", Doc: engine.Document{"deleted": true}, RetryOnConflict: 3},
		{Op: engine.BulkDelete, Index: "videos", ID: "c"},
	})
	if err != nil {
		t.Fatalf("Bulk: %v", err)
	}

	req := ft.last()
	if req.path != "/_bulk" {
		t.Errorf("path = %s, want /_bulk", req.path)
	}
	lines := strings.Split(strings.TrimSuffix(req.body, "\n"), "\n")
	wantLines := []string{
		`{"index":{"_index":"videos","_id":"a"}}`,
		`{"title":"a"}`,
		`{"update":{"_index":"videos","_id":"b","retry_on_conflict":3}}`,
		`{"doc":{"deleted":true}}`,
		`{"delete":{"_index":"videos","_id":"c"}}`,
	}
	if len(lines) != len(wantLines) {
		t.Fatalf("got %d NDJSON lines, want %d:\n%s", len(lines), len(wantLines), req.body)
	}
	for i := range wantLines {
		if lines[i] != wantLines[i] {
			t.Errorf("line %d = %s, want %s", i, lines[i], wantLines[i])
		}
	}

	if !reply.Errors || len(reply.Items) != 3 {
		t.Fatalf("reply = %+v", reply)
	}
	if it := reply.Items[0]; it.Op != engine.BulkIndex || it.Result != engine.ResultCreated || it.Failed() {
		t.Errorf("item 0 = %+v", it)
	}
	if it := reply.Items[1]; !it.Failed() || it.Error.Type != "document_missing_exception" {
		t.Errorf("item 1 = %+v", it)
	}
	if it := reply.Items[2]; it.Op != engine.BulkDelete || it.Result != engine.ResultDeleted {
		t.Errorf("item 2 = %+v", it)
	}
}

func TestBulk_InvalidActionNeverSent(t *testing.T) {
	g, ft := newTestGateway(t, nil)
	_, err := g.Bulk(context.Background(), []engine.BulkAction{{Op: engine.BulkDelete, Index: "videos"}})
	if !errors.Is(err, engine.ErrInvalidRequest) {
		t.Errorf("err = %v, want ErrInvalidRequest", err)
	}
	if len(ft.requests) != 0 {
		t.Errorf("sent %d requests, want 0", len(ft.requests))
	}
}

func TestSearch(t *testing.T) {
	replyBody := `{"hits":{"total":{"value":5,"relation":"eq"},"hits":[
		{"_index":"videos","_id":"a","_score":1.5,"_source":{"title":"brown fox"}},
		{"_index":"videos","_id":"b","_score":null,"_source":{"title":"red fox"}}
	]}}`
	g, ft := newTestGateway(t, always(http.StatusOK, replyBody))

	res, err := g.Search(context.Background(), engine.SearchRequest{
		Index: "videos",
		Query: engine.Term("tube", "t1"),
		Size:  2,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 5 || len(res.Hits) != 2 {
		t.Fatalf("total=%d hits=%d", res.Total, len(res.Hits))
	}
	if res.Hits[0].Score != 1.5 || res.Hits[1].Score != 0 {
		t.Errorf("scores = %v, %v", res.Hits[0].Score, res.Hits[1].Score)
	}
	req := ft.last()
	if req.path != "/videos/_search" {
		t.Errorf("path = %s", req.path)
	}
	if !strings.Contains(req.body, `"track_total_hits":true`) {
		t.Errorf("body lacks track_total_hits: %s", req.body)
	}
}

func TestCountAndDeleteByQuery(t *testing.T) {
	g, ft := newTestGateway(t, func(_, path string) reply {
		if strings.HasSuffix(path, "/_count") {
			return reply{status: http.StatusOK, body: `{"count":7}`}
		}
		return reply{status: http.StatusOK, body: `{"deleted":4,"failures":[]}`}
	})
	ctx := context.Background()

	n, err := g.Count(ctx, "searches", engine.Term("tube", "t1"))
	if err != nil || n != 7 {
		t.Fatalf("Count = %d, %v", n, err)
	}
	n, err = g.DeleteByQuery(ctx, "searches", engine.Term("alias", "lazy_dog"))
	if err != nil || n != 4 {
		t.Fatalf("DeleteByQuery = %d, %v", n, err)
	}
	req := ft.last()
	if req.path != "/searches/_delete_by_query" || !strings.Contains(req.query, "conflicts=proceed") {
		t.Errorf("request = %s?%s", req.path, req.query)
	}
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	g, ft := newTestGateway(t, nil)
	ft.err = errDial

	err := g.Ping(context.Background())
	if !errors.Is(err, engine.ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestSentinelFor(t *testing.T) {
	tests := []struct {
		status  int
		errType string
		want    error
	}{
		{404, "index_not_found_exception", engine.ErrIndexNotFound},
		{404, "", engine.ErrNotFound},
		{400, "resource_already_exists_exception", engine.ErrIndexExists},
		{409, "", engine.ErrConflict},
		{429, "", engine.ErrUnavailable},
		{503, "", engine.ErrUnavailable},
		{400, "parsing_exception", engine.ErrInvalidRequest},
	}
	for _, tt := range tests {
		if got := sentinelFor(tt.status, tt.errType); !errors.Is(got, tt.want) {
			t.Errorf("sentinelFor(%d, %q) = %v, want %v", tt.status, tt.errType, got, tt.want)
		}
	}
}
