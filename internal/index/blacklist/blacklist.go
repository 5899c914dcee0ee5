// Package blacklist stores banned search terms and answers exact and near-duplicate probes.
package blacklist

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roxby/tubesearch/internal/bulk"
	"github.com/roxby/tubesearch/internal/dedup"
	"github.com/roxby/tubesearch/internal/docid"
	"github.com/roxby/tubesearch/internal/engine"
	"github.com/roxby/tubesearch/internal/index"
	"github.com/roxby/tubesearch/internal/query"
	"github.com/roxby/tubesearch/internal/response"
	"github.com/roxby/tubesearch/internal/upsert"
)

// Index and field names.
const (
	IndexName      = "blacklist"
	AnalyzerName   = "sb_analyzer"
	FieldTerm      = "term"
	FieldTermExact = "term.keyword"
	FieldCreatedAt = "created_at"
)

// Entry is one stored term.
type Entry struct {
	Term      string `json:"term"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Definition declares the blacklist index: whitespace tokens, lowercased and
// stemmed, with an unanalyzed keyword variant for exact probes.
func Definition() index.Definition {
	return index.Definition{
		Name: IndexName,
		Spec: engine.NewMapping().
			Stemmer("english_stemmer", "english").
			Analyzer(AnalyzerName, "whitespace", "lowercase", "english_stemmer").
			Text(FieldTerm, engine.WithAnalyzer(AnalyzerName), engine.WithKeywordSubfield("keyword")).
			Date(FieldCreatedAt, "yyyy-MM-dd HH:mm:ss").
			MustBuild(),
	}
}

var sorts = query.SortTable{
	query.SortRecent: {engine.FieldSort(FieldCreatedAt, engine.Desc)},
	query.SortIDAsc:  {engine.FieldSort(FieldTermExact, engine.Asc)},
	query.SortIDDesc: {engine.FieldSort(FieldTermExact, engine.Desc)},
}

// Index is the blacklist entity.
type Index struct {
	*index.Core
	guard   *dedup.Guard
	builder *query.Builder
}

// New creates the blacklist entity on gw.
func New(gw engine.Gateway, opts ...index.Option) *Index {
	core := index.NewCore(gw, Definition(), opts...)
	return &Index{
		Core:    core,
		guard:   dedup.New(gw, core.Name(), FieldTerm, FieldTermExact),
		builder: query.New(nil, query.WithSorts(sorts), query.WithFallbackSort(query.SortRelevance)),
	}
}

// ID is the document id of term.
func ID(term string) string {
	return docid.Derive(dedup.Canonical(term))
}

// ExistsExact reports whether term itself is stored.
func (ix *Index) ExistsExact(ctx context.Context, term string) response.Response[bool] {
	return ix.guard.ExistsExact(ctx, term)
}

// ExistsSimilar reports whether a term within a small edit distance is stored.
func (ix *Index) ExistsSimilar(ctx context.Context, term string) response.Response[bool] {
	return ix.guard.ExistsSimilar(ctx, term)
}

// AddOne stores term. The result is 1 when inserted and 0 when it was already present.
func (ix *Index) AddOne(ctx context.Context, term string) response.Response[int] {
	t := dedup.Canonical(term)
	if t == "" {
		return response.Fail[int](fmt.Errorf("add term: empty term: %w", index.ErrInvalidInput))
	}
	exists := ix.guard.ExistsExact(ctx, t)
	if !exists.Success {
		return response.Fail[int](exists.Err())
	}
	if found, _ := exists.Value(); found {
		return response.OK(0)
	}
	return ix.Create(ctx, ID(t), ix.entry(t))
}

// AddMany stores every term not yet present and returns how many were inserted.
// Duplicates within terms and terms already stored are skipped. Blank terms are ignored.
func (ix *Index) AddMany(ctx context.Context, terms []string) response.Response[int] {
	seen := make(map[string]bool, len(terms))
	actions := make([]engine.BulkAction, 0, len(terms))
	for _, term := range terms {
		t := dedup.Canonical(term)
		id := ID(t)
		if t == "" || seen[id] {
			continue
		}
		seen[id] = true

		exists := ix.guard.ExistsExact(ctx, t)
		if !exists.Success {
			return response.Fail[int](exists.Err())
		}
		if found, _ := exists.Value(); found {
			continue
		}
		actions = append(actions, engine.BulkAction{
			Op:    engine.BulkCreate,
			Index: ix.Name(),
			ID:    id,
			Doc:   ix.entry(t),
		})
	}
	ix.Logger().Debug("Adding terms", zap.Int("requested", len(terms)), zap.Int("new", len(actions)))
	return ix.Bulk(ctx, bulk.KindIndex, actions)
}

// GetMany lists stored terms. With exact set only term itself can match;
// otherwise terms within the fuzzy edit distance match. An empty term lists everything.
func (ix *Index) GetMany(
	ctx context.Context, term string, exact bool, opts query.Options,
) response.Response[index.Page[index.Item[Entry]]] {
	o := opts.Resolve(query.SortRelevance)
	var q engine.Query = engine.MatchAllQuery{}
	switch {
	case dedup.Canonical(term) == "":
	case exact:
		q = ix.guard.ExactQuery(term)
	default:
		q = ix.guard.SimilarQuery(term)
	}
	return index.Find[Entry](ctx, ix.Core, engine.SearchRequest{
		Query:  q,
		Sort:   ix.builder.SortFor(o.Sort),
		From:   o.From,
		Size:   o.Size,
		Source: o.Source,
	})
}

// UpdateOne renames term to newTerm. Ids derive from the term, so the document
// moves: newTerm is created when absent and term is removed. The result is 1
// when term was stored and 0 otherwise.
func (ix *Index) UpdateOne(ctx context.Context, term, newTerm string) response.Response[int] {
	from, to := dedup.Canonical(term), dedup.Canonical(newTerm)
	if from == "" || to == "" {
		return response.Fail[int](fmt.Errorf("update term: empty term: %w", index.ErrInvalidInput))
	}
	if ID(from) == ID(to) {
		return ix.Patch(ctx, ID(from), engine.Document{FieldTerm: to})
	}

	current := index.Get[Entry](ctx, ix.Core, ID(from))
	if !current.Success {
		return response.Fail[int](current.Err())
	}
	old, ok := current.Value()
	if !ok {
		return response.OK(0)
	}

	moved := ix.entry(to)
	if old.Doc.CreatedAt != "" {
		moved[FieldCreatedAt] = old.Doc.CreatedAt
	}
	if r := ix.Create(ctx, ID(to), moved); !r.Success {
		return r
	}
	return ix.Remove(ctx, ID(from))
}

// DeleteOne removes term. The result is 0 when it was not stored.
func (ix *Index) DeleteOne(ctx context.Context, term string) response.Response[int] {
	return ix.Remove(ctx, ID(term))
}

// Total returns the number of stored terms.
func (ix *Index) Total(ctx context.Context) response.Response[int64] {
	return ix.Count(ctx, nil)
}

func (ix *Index) entry(term string) engine.Document {
	return engine.Document{
		FieldTerm:      term,
		FieldCreatedAt: ix.Now().UTC().Format(upsert.TimestampLayout),
	}
}
