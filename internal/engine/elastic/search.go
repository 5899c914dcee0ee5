package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/roxby/tubesearch/internal/engine"
)

type searchReply struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Index  string          `json:"_index"`
			ID     string          `json:"_id"`
			Score  *float64        `json:"_score"`
			Source engine.Document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search implements engine.Searcher.
func (g *Gateway) Search(ctx context.Context, req engine.SearchRequest) (*engine.SearchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	body, err := req.Body()
	if err != nil {
		return nil, &engine.Error{Op: engine.OpSearch, Index: req.Index, Err: fmt.Errorf("%w: %w", engine.ErrInvalidRequest, err)}
	}

	res, err := g.es.Search(
		g.es.Search.WithIndex(req.Index),
		g.es.Search.WithBody(bytes.NewReader(body)),
		g.es.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, transportError(engine.OpSearch, req.Index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, decodeError(engine.OpSearch, req.Index, res)
	}

	var reply searchReply
	if err := json.NewDecoder(res.Body).Decode(&reply); err != nil {
		return nil, &engine.Error{Op: engine.OpSearch, Index: req.Index, Err: fmt.Errorf("decode reply: %w", err)}
	}

	out := &engine.SearchResult{Total: reply.Hits.Total.Value, Hits: make([]engine.Hit, 0, len(reply.Hits.Hits))}
	for _, h := range reply.Hits.Hits {
		hit := engine.Hit{Index: h.Index, ID: h.ID, Source: h.Source}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		out.Hits = append(out.Hits, hit)
	}
	return out, nil
}

// Count implements engine.Searcher.
func (g *Gateway) Count(ctx context.Context, index string, q engine.Query) (int64, error) {
	body, err := engine.QueryBody(q)
	if err != nil {
		return 0, &engine.Error{Op: engine.OpCount, Index: index, Err: fmt.Errorf("%w: %w", engine.ErrInvalidRequest, err)}
	}
	res, err := g.es.Count(
		g.es.Count.WithIndex(index),
		g.es.Count.WithBody(bytes.NewReader(body)),
		g.es.Count.WithContext(ctx),
	)
	if err != nil {
		return 0, transportError(engine.OpCount, index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, decodeError(engine.OpCount, index, res)
	}

	var reply struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&reply); err != nil {
		return 0, &engine.Error{Op: engine.OpCount, Index: index, Err: fmt.Errorf("decode reply: %w", err)}
	}
	return reply.Count, nil
}

// DeleteByQuery implements engine.Searcher. Version conflicts with concurrent
// writers are skipped rather than aborting the whole operation.
func (g *Gateway) DeleteByQuery(ctx context.Context, index string, q engine.Query) (int64, error) {
	body, err := engine.QueryBody(q)
	if err != nil {
		return 0, &engine.Error{Op: engine.OpDeleteByQuery, Index: index, Err: fmt.Errorf("%w: %w", engine.ErrInvalidRequest, err)}
	}
	res, err := g.es.DeleteByQuery([]string{index}, bytes.NewReader(body),
		g.es.DeleteByQuery.WithConflicts("proceed"),
		g.es.DeleteByQuery.WithRefresh(true),
		g.es.DeleteByQuery.WithContext(ctx),
	)
	if err != nil {
		return 0, transportError(engine.OpDeleteByQuery, index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, decodeError(engine.OpDeleteByQuery, index, res)
	}

	var reply struct {
		Deleted int64 `json:"deleted"`
	}
	if err := json.NewDecoder(res.Body).Decode(&reply); err != nil {
		return 0, &engine.Error{Op: engine.OpDeleteByQuery, Index: index, Err: fmt.Errorf("decode reply: %w", err)}
	}
	return reply.Deleted, nil
}
