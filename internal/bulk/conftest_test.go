package bulk

import (
	"context"

	"github.com/roxby/tubesearch/internal/engine"
)

// mockWriter records calls and replies through bulkFn, or with a default reply built by resultFor.
type mockWriter struct {
	calls  [][]engine.BulkAction
	bulkFn func(ctx context.Context, actions []engine.BulkAction) (engine.BulkReply, error)
}

func (m *mockWriter) Bulk(ctx context.Context, actions []engine.BulkAction) (engine.BulkReply, error) {
	m.calls = append(m.calls, actions)
	if m.bulkFn != nil {
		return m.bulkFn(ctx, actions)
	}
	return replyAll(actions, engine.ResultCreated), nil
}

func replyAll(actions []engine.BulkAction, result string) engine.BulkReply {
	items := make([]engine.BulkItem, len(actions))
	for i, a := range actions {
		items[i] = engine.BulkItem{Op: a.Op, Index: a.Index, ID: a.ID, Status: 200, Result: result}
	}
	return engine.BulkReply{Items: items}
}

func failedItem(a engine.BulkAction) engine.BulkItem {
	return engine.BulkItem{
		Op: a.Op, Index: a.Index, ID: a.ID, Status: 400,
		Error: &engine.ItemError{Type: "mapper_parsing_exception", Reason: "failed to parse field [duration]"},
	}
}

func indexActions(ids ...string) []engine.BulkAction {
	out := make([]engine.BulkAction, len(ids))
	for i, id := range ids {
		out[i] = engine.BulkAction{Op: engine.BulkIndex, Index: "videos", ID: id, Doc: engine.Document{"n": i}}
	}
	return out
}
