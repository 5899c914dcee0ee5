// Package searches keeps per-tube search analytics: how often each query was
// run and when it was last seen.
package searches

import (
	"context"
	"fmt"
	"strings"

	"github.com/roxby/tubesearch/internal/docid"
	"github.com/roxby/tubesearch/internal/engine"
	"github.com/roxby/tubesearch/internal/index"
	"github.com/roxby/tubesearch/internal/query"
	"github.com/roxby/tubesearch/internal/response"
	"github.com/roxby/tubesearch/internal/upsert"
)

// Index and field names.
const (
	IndexName        = "searches"
	FieldQuery       = "query"
	FieldAlias       = "alias"
	FieldTube        = "tube"
	FieldCount       = "count"
	FieldLastUpdated = "last_updated"
)

// Search is one recorded query.
type Search struct {
	Tube        string `json:"tube"`
	Query       string `json:"query"`
	Alias       string `json:"alias"`
	Count       int64  `json:"count"`
	LastUpdated string `json:"last_updated"`
}

// Definition declares the searches index.
func Definition() index.Definition {
	return index.Definition{
		Name: IndexName,
		Spec: engine.NewMapping().
			Text(FieldQuery, engine.WithSubfield("english", "english")).
			Keyword(FieldAlias).
			Keyword(FieldTube).
			Integer(FieldCount).
			Date(FieldLastUpdated, "yyyy-MM-dd HH:mm:ss").
			MustBuild(),
	}
}

var sorts = query.SortTable{
	query.SortRecent: {engine.FieldSort(FieldLastUpdated, engine.Desc)},
	query.SortViews:  {engine.FieldSort(FieldCount, engine.Desc), engine.FieldSort(FieldLastUpdated, engine.Desc)},
}

// Index is the searches entity.
type Index struct {
	*index.Core
	counter *upsert.Counter
	builder *query.Builder
}

// New creates the searches entity on gw.
func New(gw engine.Gateway, opts ...index.Option) *Index {
	core := index.NewCore(gw, Definition(), opts...)
	return &Index{
		Core: core,
		counter: upsert.New(gw, core.Logger()).
			WithRetryOnConflict(core.RetryOnConflict()).
			WithClock(core.Now),
		builder: query.New(
			[]engine.FieldBoost{{Field: FieldQuery, Boost: 1}},
			query.WithSorts(sorts),
			query.WithResolver(Definition().Spec.Mapping),
		),
	}
}

// Alias is the normalized form of a query: case folded, punctuation dropped
// and whitespace runs replaced by "_".
func Alias(q string) string {
	return docid.Normalize(q)
}

// ID is the document id of a query within a tube.
func ID(tube, q string) string {
	return docid.Derive(tube, q)
}

// Upsert records one run of q on tube. A first run stores the query with
// count 1; later runs add 1 when increment is set and always refresh
// last_updated. Concurrent calls for the same query never lose an increment.
func (ix *Index) Upsert(ctx context.Context, tube, q string, increment bool) response.Response[int] {
	text := strings.TrimSpace(q)
	if tube == "" || Alias(text) == "" {
		return response.Fail[int](fmt.Errorf("record search: tube and query are required: %w", index.ErrInvalidInput))
	}
	return ix.counter.Upsert(ctx, upsert.Spec{
		Index:          ix.Name(),
		ID:             ID(tube, text),
		IncrementField: FieldCount,
		TimestampField: FieldLastUpdated,
		Fill: map[string]any{
			FieldTube:  tube,
			FieldQuery: text,
			FieldAlias: Alias(text),
		},
		Increment: increment,
	})
}

// GetByID returns the record of q on tube, or an empty envelope when it was never run.
func (ix *Index) GetByID(ctx context.Context, tube, q string) response.Response[index.Item[Search]] {
	return index.Get[Search](ctx, ix.Core, ID(tube, strings.TrimSpace(q)))
}

// GetMany lists recorded queries of tube matching q, most recently run first
// unless opts asks otherwise. An empty q lists every recorded query of the tube.
func (ix *Index) GetMany(
	ctx context.Context, tube, q string, opts query.Options,
) response.Response[index.Page[index.Item[Search]]] {
	b := ix.builder.ForMapping(ix.Mapping(ctx))
	return index.Find[Search](ctx, ix.Core, b.Build(ix.Name(), strings.TrimSpace(q), query.Filters{Tube: tube}, opts))
}

// Delete removes the record of q on tube. The result is 0 when there was none.
func (ix *Index) Delete(ctx context.Context, tube, q string) response.Response[int] {
	return ix.Remove(ctx, ID(tube, strings.TrimSpace(q)))
}

// DeleteMatching removes every record of tube whose alias equals the alias of q
// and returns how many were deleted.
func (ix *Index) DeleteMatching(ctx context.Context, tube, q string) response.Response[int64] {
	alias := Alias(q)
	if alias == "" {
		return response.Fail[int64](fmt.Errorf("delete searches: empty query: %w", index.ErrInvalidInput))
	}
	scope := engine.BoolQuery{Must: []engine.Query{engine.Term(FieldAlias, alias)}}
	if tube != "" {
		scope.Filter = []engine.Query{engine.Term(FieldTube, tube)}
	}
	return ix.Core.DeleteMatching(ctx, scope)
}

// Total returns the number of recorded queries of tube; an empty tube counts all tubes.
func (ix *Index) Total(ctx context.Context, tube string) response.Response[int64] {
	if tube == "" {
		return ix.Count(ctx, nil)
	}
	return ix.Count(ctx, engine.Term(FieldTube, tube))
}
