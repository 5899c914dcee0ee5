package index

import (
	"context"
	"slices"
	"testing"

	"github.com/roxby/tubesearch/internal/engine"
	"github.com/roxby/tubesearch/internal/engine/embedded"
)

type note struct {
	Tube  string `json:"tube"`
	Title string `json:"title"`
	Views int    `json:"views"`
}

func noteDefinition() Definition {
	return Definition{
		Name: "notes",
		Spec: engine.NewMapping().
			Keyword("tube").
			Text("title").
			Integer("views").
			MustBuild(),
	}
}

func newTestCore(t *testing.T, opts ...Option) *Core {
	t.Helper()
	e, err := embedded.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	c := NewCore(e, noteDefinition(), opts...)
	if r := c.Ensure(context.Background()); !r.Success {
		t.Fatalf("Ensure: %s", r.Error)
	}
	return c
}

func mustDoc(t *testing.T, v any) engine.Document {
	t.Helper()
	doc, err := Encode(v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return doc
}

func TestEnsure_Idempotent(t *testing.T) {
	c := newTestCore(t)
	r := c.Ensure(context.Background())
	if created, ok := r.Value(); !ok || created {
		t.Errorf("second Ensure = %+v, want OK(false)", r)
	}
	if ok, _ := c.Exists(context.Background()).Value(); !ok {
		t.Error("index should exist")
	}
}

func TestDrop(t *testing.T) {
	c := newTestCore(t)
	ctx := context.Background()
	if dropped, _ := c.Drop(ctx).Value(); !dropped {
		t.Error("first Drop should report true")
	}
	if dropped, ok := c.Drop(ctx).Value(); !ok || dropped {
		t.Error("second Drop should report OK(false)")
	}
	if exists, _ := c.Exists(ctx).Value(); exists {
		t.Error("index should be gone")
	}
}

func TestWithName(t *testing.T) {
	c := newTestCore(t, WithName("dev_notes"))
	if c.Name() != "dev_notes" {
		t.Errorf("Name() = %q", c.Name())
	}
}

func TestPutGetRemove(t *testing.T) {
	c := newTestCore(t)
	ctx := context.Background()

	if n, _ := c.Put(ctx, "n1", mustDoc(t, note{Tube: "t1", Title: "hello"})).Value(); n != 1 {
		t.Errorf("first Put = %d, want 1", n)
	}
	if n, _ := c.Put(ctx, "n1", mustDoc(t, note{Tube: "t1", Title: "hello again"})).Value(); n != 0 {
		t.Errorf("replacing Put = %d, want 0", n)
	}

	got := Get[note](ctx, c, "n1")
	item, ok := got.Value()
	if !ok {
		t.Fatalf("Get = %+v", got)
	}
	if item.ID != "n1" || item.Doc.Title != "hello again" {
		t.Errorf("item = %+v", item)
	}

	if n, _ := c.Remove(ctx, "n1").Value(); n != 1 {
		t.Errorf("Remove = %d, want 1", n)
	}
	if n, ok := c.Remove(ctx, "n1").Value(); !ok || n != 0 {
		t.Errorf("second Remove = %d, %v; want OK(0)", n, ok)
	}

	missing := Get[note](ctx, c, "n1")
	if !missing.Success {
		t.Fatalf("missing Get failed: %s", missing.Error)
	}
	if _, ok := missing.Value(); ok {
		t.Error("missing document must yield an empty envelope")
	}
}

func TestCreate_TakenID(t *testing.T) {
	c := newTestCore(t)
	ctx := context.Background()
	if n, _ := c.Create(ctx, "n1", mustDoc(t, note{Title: "a"})).Value(); n != 1 {
		t.Errorf("Create = %d, want 1", n)
	}
	if n, ok := c.Create(ctx, "n1", mustDoc(t, note{Title: "b"})).Value(); !ok || n != 0 {
		t.Errorf("Create on taken id = %d, %v; want OK(0)", n, ok)
	}
	item, _ := Get[note](ctx, c, "n1").Value()
	if item.Doc.Title != "a" {
		t.Errorf("title = %q, the original must survive", item.Doc.Title)
	}
}

func TestPatch(t *testing.T) {
	c := newTestCore(t)
	ctx := context.Background()
	c.Put(ctx, "n1", mustDoc(t, note{Tube: "t1", Title: "a", Views: 1}))

	tests := []struct {
		name    string
		id      string
		partial engine.Document
		want    int
		wantErr bool
	}{
		{"update", "n1", engine.Document{"views": 5}, 1, false},
		{"noop", "n1", engine.Document{"views": 5}, 1, false},
		{"missing", "n9", engine.Document{"views": 5}, 0, false},
		{"empty", "n1", engine.Document{}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := c.Patch(ctx, tt.id, tt.partial)
			if tt.wantErr {
				if r.Success {
					t.Fatal("expected failure")
				}
				return
			}
			if n, ok := r.Value(); !ok || n != tt.want {
				t.Errorf("Patch = %+v, want %d", r, tt.want)
			}
		})
	}

	item, _ := Get[note](ctx, c, "n1").Value()
	if item.Doc.Views != 5 || item.Doc.Title != "a" {
		t.Errorf("doc = %+v", item.Doc)
	}
}

func TestFind(t *testing.T) {
	c := newTestCore(t)
	ctx := context.Background()
	for i, title := range []string{"red fox", "blue fox", "red car"} {
		c.Put(ctx, string(rune('a'+i)), mustDoc(t, note{Tube: "t1", Title: title, Views: i}))
	}

	r := Find[note](ctx, c, engine.SearchRequest{
		Query: engine.MatchQuery{Field: "title", Query: "fox"},
		Sort:  []engine.SortClause{engine.FieldSort("views", engine.Desc)},
		Size:  10,
	})
	page, ok := r.Value()
	if !ok {
		t.Fatalf("Find = %+v", r)
	}
	if page.Total != 2 {
		t.Errorf("total = %d, want 2", page.Total)
	}
	var titles []string
	for _, it := range page.Items {
		titles = append(titles, it.Doc.Title)
	}
	if !slices.Equal(titles, []string{"blue fox", "red fox"}) {
		t.Errorf("titles = %v", titles)
	}

	if n, _ := c.Count(ctx, engine.Term("tube", "t1")).Value(); n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
	if n, _ := c.DeleteMatching(ctx, engine.MatchQuery{Field: "title", Query: "red"}).Value(); n != 2 {
		t.Errorf("DeleteMatching = %d, want 2", n)
	}
	if n, _ := c.Count(ctx, nil).Value(); n != 1 {
		t.Errorf("Count after delete = %d, want 1", n)
	}
}

func TestMapping_LiveAndFallback(t *testing.T) {
	c := newTestCore(t)
	ctx := context.Background()
	if _, ok := c.Mapping(ctx).Field("views"); !ok {
		t.Error("live mapping should carry views")
	}
	c.Drop(ctx)
	if _, ok := c.Mapping(ctx).Field("title"); !ok {
		t.Error("declared mapping should be the fallback")
	}
}

func TestEnsureAll(t *testing.T) {
	e, err := embedded.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	ctx := context.Background()

	a := NewCore(e, noteDefinition(), WithName("a"))
	b := NewCore(e, noteDefinition(), WithName("b"))
	a.Ensure(ctx)

	created, err := EnsureAll(ctx, a, b)
	if err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	if !slices.Equal(created, []string{"b"}) {
		t.Errorf("created = %v, want [b]", created)
	}
}

func TestEnsureAll_Failure(t *testing.T) {
	e, err := embedded.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	ok := NewCore(e, noteDefinition(), WithName("ok"))
	bad := NewCore(e, Definition{Name: "bad"})
	if _, err := EnsureAll(context.Background(), ok, bad); err == nil {
		t.Error("an invalid definition must fail EnsureAll")
	}
}

func TestDecode(t *testing.T) {
	n, err := Decode[note](engine.Document{"title": "x", "views": float64(3)})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n.Title != "x" || n.Views != 3 {
		t.Errorf("note = %+v", n)
	}
	if _, err := Decode[note](engine.Document{"views": "many"}); err == nil {
		t.Error("type mismatch must fail")
	}
}
