package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/roxby/tubesearch/internal/engine"
)

type bulkMeta struct {
	Index           string `json:"_index"`
	ID              string `json:"_id,omitempty"`
	RetryOnConflict int    `json:"retry_on_conflict,omitempty"`
}

type bulkReplyItem struct {
	Index  string            `json:"_index"`
	ID     string            `json:"_id"`
	Status int               `json:"status"`
	Result string            `json:"result"`
	Error  *engine.ItemError `json:"error"`
}

type bulkReply struct {
	Took   int64                             `json:"took"`
	Errors bool                              `json:"errors"`
	Items  []map[engine.BulkOp]bulkReplyItem `json:"items"`
}

// Bulk implements engine.BulkWriter. Item failures are reported in the reply,
// never as an error.
func (g *Gateway) Bulk(ctx context.Context, actions []engine.BulkAction) (engine.BulkReply, error) {
	if len(actions) == 0 {
		return engine.BulkReply{}, nil
	}
	body, err := encodeBulk(actions)
	if err != nil {
		return engine.BulkReply{}, &engine.Error{Op: engine.OpBulk, Index: actions[0].Index, Err: err}
	}

	res, err := g.es.Bulk(bytes.NewReader(body),
		g.es.Bulk.WithContext(ctx),
		g.es.Bulk.WithRefresh(g.refreshParam(false)),
	)
	if err != nil {
		return engine.BulkReply{}, transportError(engine.OpBulk, actions[0].Index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return engine.BulkReply{}, decodeError(engine.OpBulk, actions[0].Index, res)
	}

	var raw bulkReply
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return engine.BulkReply{}, &engine.Error{Op: engine.OpBulk, Index: actions[0].Index, Err: fmt.Errorf("decode reply: %w", err)}
	}

	reply := engine.BulkReply{Took: raw.Took, Errors: raw.Errors, Items: make([]engine.BulkItem, 0, len(raw.Items))}
	for _, entry := range raw.Items {
		for op, it := range entry {
			reply.Items = append(reply.Items, engine.BulkItem{
				Op:     op,
				Index:  it.Index,
				ID:     it.ID,
				Status: it.Status,
				Result: it.Result,
				Error:  it.Error,
			})
		}
	}
	return reply, nil
}

// encodeBulk renders actions as NDJSON: an action line, then a source line for everything but delete.
func encodeBulk(actions []engine.BulkAction) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range actions {
		a := &actions[i]
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		meta := bulkMeta{Index: a.Index, ID: a.ID}
		if a.Op == engine.BulkUpdate {
			meta.RetryOnConflict = a.RetryOnConflict
		}
		if err := enc.Encode(map[engine.BulkOp]bulkMeta{a.Op: meta}); err != nil {
			return nil, fmt.Errorf("action %d: encode metadata: %w", i, err)
		}

		var source any
		switch a.Op {
		case engine.BulkIndex, engine.BulkCreate:
			source = a.Doc
		case engine.BulkUpdate:
			source = updateBody(a.Doc, a.Script, a.Upsert, a.DocAsUpsert)
		case engine.BulkDelete:
			continue
		}
		if err := enc.Encode(source); err != nil {
			return nil, fmt.Errorf("action %d: encode source: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
