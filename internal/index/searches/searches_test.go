package searches

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/roxby/tubesearch/internal/engine/embedded"
	"github.com/roxby/tubesearch/internal/index"
	"github.com/roxby/tubesearch/internal/query"
	"github.com/roxby/tubesearch/internal/upsert"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestIndex(t *testing.T) (*Index, *clock) {
	t.Helper()
	e, err := embedded.Open(embedded.WithScript(upsert.ScriptID, upsert.Apply))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	clk := &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	ix := New(e, index.WithClock(clk.Now))
	if r := ix.Ensure(context.Background()); !r.Success {
		t.Fatalf("Ensure: %s", r.Error)
	}
	return ix, clk
}

func record(t *testing.T, ix *Index, tube, q string) Search {
	t.Helper()
	item, ok := ix.GetByID(context.Background(), tube, q).Value()
	if !ok {
		t.Fatalf("no record for %s/%q", tube, q)
	}
	return item.Doc
}

func TestUpsert_CreatesThenIncrements(t *testing.T) {
	ix, clk := newTestIndex(t)
	ctx := context.Background()

	for i := range 3 {
		if n, ok := ix.Upsert(ctx, "t1", "Big Cats", true).Value(); !ok || n != 1 {
			t.Fatalf("Upsert #%d = %d, %v", i, n, ok)
		}
		clk.Advance(time.Minute)
	}

	got := record(t, ix, "t1", "Big Cats")
	want := Search{Tube: "t1", Query: "Big Cats", Alias: "big_cats", Count: 3, LastUpdated: "2024-05-01 12:02:00"}
	if got != want {
		t.Errorf("record = %+v, want %+v", got, want)
	}
}

func TestUpsert_WithoutIncrementRefreshesTimestamp(t *testing.T) {
	ix, clk := newTestIndex(t)
	ctx := context.Background()

	ix.Upsert(ctx, "t1", "cats", true)
	clk.Advance(time.Hour)
	ix.Upsert(ctx, "t1", "cats", false)

	got := record(t, ix, "t1", "cats")
	if got.Count != 1 || got.LastUpdated != "2024-05-01 13:00:00" {
		t.Errorf("record = %+v", got)
	}
}

func TestUpsert_SameQueryConverges(t *testing.T) {
	ix, _ := newTestIndex(t)
	ctx := context.Background()
	ix.Upsert(ctx, "t1", "big cats", true)
	ix.Upsert(ctx, "t1", "  BIG   cats ", true)

	if n, _ := ix.Total(ctx, "t1").Value(); n != 1 {
		t.Errorf("Total = %d, want 1", n)
	}
	if got := record(t, ix, "t1", "big cats"); got.Count != 2 {
		t.Errorf("count = %d, want 2", got.Count)
	}
}

func TestUpsert_Concurrent(t *testing.T) {
	ix, _ := newTestIndex(t)
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	for range workers {
		wg.Go(func() {
			ix.Upsert(ctx, "t1", "fox", true)
		})
	}
	wg.Wait()

	if got := record(t, ix, "t1", "fox"); got.Count != workers {
		t.Errorf("count = %d, want %d", got.Count, workers)
	}
}

func TestUpsert_Invalid(t *testing.T) {
	ix, _ := newTestIndex(t)
	for _, tt := range []struct{ tube, q string }{{"", "fox"}, {"t1", "  "}, {"t1", "?!"}} {
		if r := ix.Upsert(context.Background(), tt.tube, tt.q, true); r.Success {
			t.Errorf("Upsert(%q, %q) succeeded", tt.tube, tt.q)
		}
	}
}

func TestGetByID_Missing(t *testing.T) {
	ix, _ := newTestIndex(t)
	r := ix.GetByID(context.Background(), "t1", "never")
	if !r.Success {
		t.Fatalf("GetByID failed: %s", r.Error)
	}
	if _, ok := r.Value(); ok {
		t.Error("missing record must yield an empty envelope")
	}
}

func TestGetMany(t *testing.T) {
	ix, clk := newTestIndex(t)
	ctx := context.Background()
	for _, q := range []string{"red fox", "blue fox", "red car"} {
		ix.Upsert(ctx, "t1", q, true)
		clk.Advance(time.Minute)
	}
	ix.Upsert(ctx, "t2", "red fox", true)
	ix.Upsert(ctx, "t1", "blue fox", true)

	tests := []struct {
		name string
		tube string
		q    string
		opts query.Options
		want []string
	}{
		{"match within tube, recent first", "t1", "fox", query.Options{}, []string{"blue fox", "red fox"}},
		{"all of tube", "t1", "", query.Options{}, []string{"blue fox", "red car", "red fox"}},
		{"most run first", "t1", "", query.Options{Sort: query.SortViews}, []string{"blue fox", "red car", "red fox"}},
		{"paged", "t1", "", query.Options{From: 1, Size: 1}, []string{"red car"}},
		{"other tube", "t2", "fox", query.Options{}, []string{"red fox"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, ok := ix.GetMany(ctx, tt.tube, tt.q, tt.opts).Value()
			if !ok {
				t.Fatal("GetMany failed")
			}
			var got []string
			for _, it := range page.Items {
				got = append(got, it.Doc.Query)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("queries = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeleteMatching(t *testing.T) {
	ix, _ := newTestIndex(t)
	ctx := context.Background()
	ix.Upsert(ctx, "t1", "red fox", true)
	ix.Upsert(ctx, "t1", "blue fox", true)
	ix.Upsert(ctx, "t2", "red fox", true)

	if n, _ := ix.DeleteMatching(ctx, "t1", "Red Fox").Value(); n != 1 {
		t.Errorf("DeleteMatching = %d, want 1", n)
	}
	if n, _ := ix.Total(ctx, "t1").Value(); n != 1 {
		t.Errorf("t1 total = %d, want 1", n)
	}
	if n, _ := ix.Total(ctx, "").Value(); n != 2 {
		t.Errorf("total = %d, want 2", n)
	}
	if r := ix.DeleteMatching(ctx, "t1", " "); r.Success {
		t.Error("empty query must be rejected")
	}
}

func TestDelete(t *testing.T) {
	ix, _ := newTestIndex(t)
	ctx := context.Background()
	ix.Upsert(ctx, "t1", "fox", true)

	if n, _ := ix.Delete(ctx, "t1", "fox").Value(); n != 1 {
		t.Errorf("Delete = %d, want 1", n)
	}
	if n, ok := ix.Delete(ctx, "t1", "fox").Value(); !ok || n != 0 {
		t.Errorf("second Delete = %d, %v; want OK(0)", n, ok)
	}
}

func TestAlias(t *testing.T) {
	tests := map[string]string{
		"big cats":     "big_cats",
		"  Big  Cats ": "big_cats",
		"rock'n roll":  "rockn_roll",
	}
	for in, want := range tests {
		if got := Alias(in); got != want {
			t.Errorf("Alias(%q) = %q, want %q", in, got, want)
		}
	}
}
