package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roxby/tubesearch/internal/engine"
	"github.com/roxby/tubesearch/internal/response"
)

// Page is one page of typed search results. Total counts every match, not just this page.
type Page[T any] struct {
	Total int64 `json:"total"`
	Items []T   `json:"items"`
}

// Item is a stored document decoded into T, along with its id and score.
type Item[T any] struct {
	ID    string  `json:"id"`
	Score float64 `json:"score,omitempty"`
	Doc   T       `json:"doc"`
}

// Encode converts a typed value into an engine document through its JSON tags.
func Encode(v any) (engine.Document, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var doc engine.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return doc, nil
}

// Decode converts an engine document into T through its JSON tags.
func Decode[T any](doc engine.Document) (T, error) {
	var out T
	b, err := json.Marshal(doc)
	if err != nil {
		return out, fmt.Errorf("decode document: %w", err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}

// Get fetches one document by id. A missing document yields an empty success envelope.
func Get[T any](ctx context.Context, c *Core, id string) response.Response[Item[T]] {
	hit, err := c.gw.Get(ctx, c.def.Name, id)
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return response.Empty[Item[T]]()
	case err != nil:
		return response.Fail[Item[T]](fmt.Errorf("get %s: %w", id, err))
	}
	doc, err := Decode[T](hit.Source)
	if err != nil {
		return response.Fail[Item[T]](fmt.Errorf("get %s: %w", id, err))
	}
	return response.OK(Item[T]{ID: hit.ID, Score: hit.Score, Doc: doc})
}

// Find runs req against this index and decodes every hit into T.
// The request's Index is always overwritten with the Core's index.
func Find[T any](ctx context.Context, c *Core, req engine.SearchRequest) response.Response[Page[Item[T]]] {
	req.Index = c.def.Name
	res, err := c.gw.Search(ctx, req)
	if err != nil {
		return response.Fail[Page[Item[T]]](fmt.Errorf("search %s: %w", c.def.Name, err))
	}
	page := Page[Item[T]]{Total: res.Total, Items: make([]Item[T], 0, len(res.Hits))}
	for _, h := range res.Hits {
		doc, err := Decode[T](h.Source)
		if err != nil {
			return response.Fail[Page[Item[T]]](fmt.Errorf("search %s: hit %s: %w", c.def.Name, h.ID, err))
		}
		page.Items = append(page.Items, Item[T]{ID: h.ID, Score: h.Score, Doc: doc})
	}
	return response.OK(page)
}
