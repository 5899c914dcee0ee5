package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/roxby/tubesearch/internal/engine"
)

type writeReply struct {
	ID      string `json:"_id"`
	Result  string `json:"result"`
	Version int64  `json:"_version"`
}

func (r writeReply) result() engine.WriteResult {
	return engine.WriteResult{ID: r.ID, Result: r.Result, Version: r.Version}
}

type getReply struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Found  bool            `json:"found"`
	Source engine.Document `json:"_source"`
}

// Get implements engine.DocumentStore.
func (g *Gateway) Get(ctx context.Context, index, id string) (*engine.Hit, error) {
	res, err := g.es.Get(index, id, g.es.Get.WithContext(ctx))
	if err != nil {
		return nil, transportError(engine.OpGet, index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, decodeError(engine.OpGet, index, res)
	}

	var reply getReply
	if err := json.NewDecoder(res.Body).Decode(&reply); err != nil {
		return nil, &engine.Error{Op: engine.OpGet, Index: index, Err: fmt.Errorf("decode reply: %w", err)}
	}
	if !reply.Found {
		return nil, &engine.Error{Op: engine.OpGet, Index: index, Err: engine.ErrNotFound}
	}
	return &engine.Hit{Index: reply.Index, ID: reply.ID, Source: reply.Source}, nil
}

// Index implements engine.DocumentStore.
func (g *Gateway) Index(ctx context.Context, req engine.IndexRequest) (engine.WriteResult, error) {
	if req.Body == nil {
		return engine.WriteResult{}, &engine.Error{Op: engine.OpIndex, Index: req.Index,
			Err: fmt.Errorf("document is required: %w", engine.ErrInvalidRequest)}
	}
	body, err := json.Marshal(req.Body)
	if err != nil {
		return engine.WriteResult{}, &engine.Error{Op: engine.OpIndex, Index: req.Index,
			Err: fmt.Errorf("encode document: %w: %w", engine.ErrInvalidRequest, err)}
	}

	opts := []func(*esapi.IndexRequest){
		g.es.Index.WithContext(ctx),
		g.es.Index.WithRefresh(g.refreshParam(req.Refresh)),
	}
	if req.ID != "" {
		opts = append(opts, g.es.Index.WithDocumentID(req.ID))
	}
	if req.OpType != "" {
		opts = append(opts, g.es.Index.WithOpType(string(req.OpType)))
	}

	res, err := g.es.Index(req.Index, bytes.NewReader(body), opts...)
	if err != nil {
		return engine.WriteResult{}, transportError(engine.OpIndex, req.Index, err)
	}
	return decodeWrite(engine.OpIndex, req.Index, res)
}

// Update implements engine.DocumentStore.
func (g *Gateway) Update(ctx context.Context, req engine.UpdateRequest) (engine.WriteResult, error) {
	if err := req.Validate(); err != nil {
		return engine.WriteResult{}, err
	}
	body, err := json.Marshal(updateBody(req.Doc, req.Script, req.Upsert, req.DocAsUpsert))
	if err != nil {
		return engine.WriteResult{}, &engine.Error{Op: engine.OpUpdate, Index: req.Index,
			Err: fmt.Errorf("encode update: %w: %w", engine.ErrInvalidRequest, err)}
	}

	opts := []func(*esapi.UpdateRequest){
		g.es.Update.WithContext(ctx),
		g.es.Update.WithRefresh(g.refreshParam(req.Refresh)),
	}
	if req.RetryOnConflict > 0 {
		opts = append(opts, g.es.Update.WithRetryOnConflict(req.RetryOnConflict))
	}

	res, err := g.es.Update(req.Index, req.ID, bytes.NewReader(body), opts...)
	if err != nil {
		return engine.WriteResult{}, transportError(engine.OpUpdate, req.Index, err)
	}
	return decodeWrite(engine.OpUpdate, req.Index, res)
}

// Delete implements engine.DocumentStore. A missing document yields ErrNotFound
// together with a not_found result.
func (g *Gateway) Delete(ctx context.Context, index, id string) (engine.WriteResult, error) {
	res, err := g.es.Delete(index, id,
		g.es.Delete.WithContext(ctx),
		g.es.Delete.WithRefresh(g.refreshParam(false)),
	)
	if err != nil {
		return engine.WriteResult{}, transportError(engine.OpDelete, index, err)
	}
	out, err := decodeWrite(engine.OpDelete, index, res)
	if err != nil && out.Result == "" {
		out = engine.WriteResult{ID: id, Result: engine.ResultNotFound}
	}
	return out, err
}

// updateBody renders the update API body; the same shape is the bulk update source line.
func updateBody(doc engine.Document, script *engine.Script, upsert engine.Document, docAsUpsert bool) map[string]any {
	body := map[string]any{}
	if doc != nil {
		body["doc"] = doc
		if docAsUpsert {
			body["doc_as_upsert"] = true
		}
	}
	if script != nil {
		body["script"] = script
	}
	if upsert != nil {
		body["upsert"] = upsert
	}
	return body
}

func decodeWrite(op, index string, res *esapi.Response) (engine.WriteResult, error) {
	defer res.Body.Close()
	if res.IsError() {
		if res.StatusCode == http.StatusNotFound && op == engine.OpDelete {
			var reply writeReply
			if json.NewDecoder(res.Body).Decode(&reply) == nil && reply.Result == engine.ResultNotFound {
				return reply.result(), &engine.Error{Op: op, Index: index, Err: engine.ErrNotFound}
			}
			return engine.WriteResult{}, &engine.Error{Op: op, Index: index, Err: engine.ErrIndexNotFound}
		}
		return engine.WriteResult{}, decodeError(op, index, res)
	}
	var reply writeReply
	if err := json.NewDecoder(res.Body).Decode(&reply); err != nil {
		return engine.WriteResult{}, &engine.Error{Op: op, Index: index, Err: fmt.Errorf("decode reply: %w", err)}
	}
	return reply.result(), nil
}
