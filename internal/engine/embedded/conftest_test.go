package embedded

import (
	"context"
	"testing"

	"github.com/roxby/tubesearch/internal/engine"
)

const testIndex = "clips"

func clipSpec() engine.IndexSpec {
	return engine.NewMapping().
		Analyzer("clip_analyzer", "standard", "lowercase", "porter_stem").
		Keyword("tube").
		Integer("video_id").
		Text("title", engine.WithAnalyzer("clip_analyzer"), engine.WithSubfield("english", "english")).
		Text("term", engine.WithKeywordSubfield("keyword")).
		Integer("views").
		Integer("likes").
		Integer("dislikes").
		Boolean("deleted").
		Date("post_date", "yyyy-MM-dd HH:mm:ss").
		MustBuild()
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := Open(opts...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	if err := e.CreateIndex(context.Background(), testIndex, clipSpec()); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	return e
}

func put(t *testing.T, e *Engine, id string, doc engine.Document) {
	t.Helper()
	if _, err := e.Index(context.Background(), engine.IndexRequest{Index: testIndex, ID: id, Body: doc}); err != nil {
		t.Fatalf("Index %s: %v", id, err)
	}
}

func mustSearch(t *testing.T, e *Engine, req engine.SearchRequest) *engine.SearchResult {
	t.Helper()
	if req.Index == "" {
		req.Index = testIndex
	}
	if req.Size == 0 {
		req.Size = 10
	}
	res, err := e.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	return res
}

func ids(res *engine.SearchResult) []string {
	out := make([]string, len(res.Hits))
	for i, h := range res.Hits {
		out[i] = h.ID
	}
	return out
}
