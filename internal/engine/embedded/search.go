package embedded

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/roxby/tubesearch/internal/engine"
)

const idField = "_id"

// Search implements engine.Searcher.
func (e *Engine) Search(ctx context.Context, req engine.SearchRequest) (*engine.SearchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	mi, err := e.index(engine.OpSearch, req.Index)
	if err != nil {
		return nil, err
	}
	q, err := mi.tr.translate(req.Query)
	if err != nil {
		return nil, &engine.Error{Op: engine.OpSearch, Index: req.Index, Err: err}
	}

	if hasScriptSort(req.Sort) {
		res, err := e.searchScripted(ctx, mi, q, req)
		if err != nil {
			return nil, &engine.Error{Op: engine.OpSearch, Index: req.Index, Err: err}
		}
		return res, nil
	}

	sr := bleve.NewSearchRequestOptions(q, req.Size, req.From, false)
	if len(req.Sort) > 0 {
		sr.SortByCustom(sortOrder(req.Sort))
	}
	out, err := mi.idx.SearchInContext(ctx, sr)
	if err != nil {
		return nil, &engine.Error{Op: engine.OpSearch, Index: req.Index, Err: fmt.Errorf("bleve search: %w", err)}
	}

	res := &engine.SearchResult{Total: int64(out.Total), Hits: make([]engine.Hit, 0, len(out.Hits))}
	for _, h := range out.Hits {
		doc, ok := mi.docs[h.ID]
		if !ok {
			continue
		}
		res.Hits = append(res.Hits, engine.Hit{Index: mi.name, ID: h.ID, Score: h.Score, Source: project(doc, req.Source)})
	}
	return res, nil
}

// Count implements engine.Searcher.
func (e *Engine) Count(ctx context.Context, index string, q engine.Query) (int64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	mi, err := e.index(engine.OpCount, index)
	if err != nil {
		return 0, err
	}
	bq, err := mi.tr.translate(q)
	if err != nil {
		return 0, &engine.Error{Op: engine.OpCount, Index: index, Err: err}
	}
	out, err := mi.idx.SearchInContext(ctx, bleve.NewSearchRequestOptions(bq, 0, 0, false))
	if err != nil {
		return 0, &engine.Error{Op: engine.OpCount, Index: index, Err: fmt.Errorf("bleve search: %w", err)}
	}
	return int64(out.Total), nil
}

// DeleteByQuery implements engine.Searcher.
func (e *Engine) DeleteByQuery(ctx context.Context, index string, q engine.Query) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	mi, err := e.index(engine.OpDeleteByQuery, index)
	if err != nil {
		return 0, err
	}
	bq, err := mi.tr.translate(q)
	if err != nil {
		return 0, &engine.Error{Op: engine.OpDeleteByQuery, Index: index, Err: err}
	}
	ids, err := matchingIDs(ctx, mi, bq)
	if err != nil {
		return 0, &engine.Error{Op: engine.OpDeleteByQuery, Index: index, Err: err}
	}

	var deleted int64
	for _, id := range ids {
		if _, err := e.deleteDoc(mi, id); err != nil {
			return deleted, &engine.Error{Op: engine.OpDeleteByQuery, Index: index, Err: err}
		}
		deleted++
	}
	return deleted, nil
}

func matchingIDs(ctx context.Context, mi *memIndex, q query.Query) ([]string, error) {
	if len(mi.docs) == 0 {
		return nil, nil
	}
	out, err := mi.idx.SearchInContext(ctx, bleve.NewSearchRequestOptions(q, len(mi.docs), 0, false))
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}
	ids := make([]string, 0, len(out.Hits))
	for _, h := range out.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

func hasScriptSort(clauses []engine.SortClause) bool {
	for _, c := range clauses {
		if c.Script != nil {
			return true
		}
	}
	return false
}

func sortOrder(clauses []engine.SortClause) search.SortOrder {
	order := make(search.SortOrder, 0, len(clauses))
	for _, c := range clauses {
		switch c.Field {
		case engine.ScoreField:
			order = append(order, &search.SortScore{Desc: c.Order != engine.Asc})
		case idField:
			order = append(order, &search.SortDocID{Desc: c.Order == engine.Desc})
		default:
			order = append(order, &search.SortField{Field: c.Field, Desc: c.Order == engine.Desc})
		}
	}
	return order
}

// searchScripted collects every match and orders it in process, since script
// sorts are evaluated by registered Go functions rather than inside bleve.
func (e *Engine) searchScripted(
	ctx context.Context, mi *memIndex, q query.Query, req engine.SearchRequest,
) (*engine.SearchResult, error) {
	for _, c := range req.Sort {
		if c.Script == nil {
			continue
		}
		if _, ok := e.sorts[c.Script.ID]; !ok {
			return nil, fmt.Errorf("sort script %q is not registered: %w", c.Script.ID, engine.ErrUnsupported)
		}
	}

	size := max(len(mi.docs), 1)
	out, err := mi.idx.SearchInContext(ctx, bleve.NewSearchRequestOptions(q, size, 0, false))
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}
	hits := make([]engine.Hit, 0, len(out.Hits))
	for _, h := range out.Hits {
		if doc, ok := mi.docs[h.ID]; ok {
			hits = append(hits, engine.Hit{Index: mi.name, ID: h.ID, Score: h.Score, Source: doc})
		}
	}

	slices.SortStableFunc(hits, func(a, b engine.Hit) int {
		for _, c := range req.Sort {
			if r := e.compare(c, a, b); r != 0 {
				return r
			}
		}
		return 0
	})

	res := &engine.SearchResult{Total: int64(out.Total)}
	lo := min(req.From, len(hits))
	hi := min(lo+req.Size, len(hits))
	for _, h := range hits[lo:hi] {
		h.Source = project(h.Source, req.Source)
		res.Hits = append(res.Hits, h)
	}
	return res, nil
}

// compare orders two hits by one clause; missing values sort last in either direction.
func (e *Engine) compare(c engine.SortClause, a, b engine.Hit) int {
	var r int
	switch {
	case c.Script != nil:
		fn := e.sorts[c.Script.ID]
		r = cmp.Compare(fn(a.Source, c.Script.Params), fn(b.Source, c.Script.Params))
	case c.Field == engine.ScoreField:
		r = cmp.Compare(a.Score, b.Score)
		if c.Order != engine.Asc {
			return -r
		}
		return r
	case c.Field == idField:
		r = cmp.Compare(a.ID, b.ID)
	default:
		av, aok := sortValue(a.Source[c.Field])
		bv, bok := sortValue(b.Source[c.Field])
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return 1
		case !bok:
			return -1
		}
		r = av.compare(bv)
	}
	if c.Order == engine.Desc {
		return -r
	}
	return r
}

type sortKey struct {
	num   float64
	str   string
	isNum bool
}

func (k sortKey) compare(o sortKey) int {
	if k.isNum && o.isNum {
		return cmp.Compare(k.num, o.num)
	}
	return cmp.Compare(k.str, o.str)
}

func sortValue(v any) (sortKey, bool) {
	if v == nil {
		return sortKey{}, false
	}
	if n, ok := toFloat(v); ok {
		return sortKey{num: n, isNum: true}, true
	}
	if s, ok := v.(string); ok {
		if ts, ok := toTime(s); ok {
			return sortKey{num: float64(ts.Unix()), isNum: true}, true
		}
		return sortKey{str: s}, true
	}
	return sortKey{str: fmt.Sprint(v)}, true
}

// project copies a source restricted to the requested fields; no fields means the whole document.
func project(doc engine.Document, fields []string) engine.Document {
	if len(fields) == 0 {
		return clone(doc)
	}
	full := clone(doc)
	out := make(engine.Document, len(fields))
	for _, f := range fields {
		if v, ok := full[f]; ok {
			out[f] = v
		}
	}
	return out
}
