package upsert

import (
	"context"
	"sync"

	"github.com/roxby/tubesearch/internal/engine"
)

// memUpdater applies update requests to an in-memory document map the way the engine does:
// upsert document when absent, script when present.
type memUpdater struct {
	mu    sync.Mutex
	docs  map[string]engine.Document
	calls []engine.UpdateRequest
	err   error
}

func newMemUpdater() *memUpdater {
	return &memUpdater{docs: map[string]engine.Document{}}
}

func (m *memUpdater) Update(_ context.Context, req engine.UpdateRequest) (engine.WriteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if m.err != nil {
		return engine.WriteResult{}, m.err
	}

	cur, ok := m.docs[req.ID]
	if !ok {
		doc := engine.Document{}
		for k, v := range req.Upsert {
			doc[k] = v
		}
		m.docs[req.ID] = doc
		return engine.WriteResult{ID: req.ID, Result: engine.ResultCreated}, nil
	}
	next, err := Apply(cur, req.Script.Params)
	if err != nil {
		return engine.WriteResult{}, err
	}
	m.docs[req.ID] = next
	return engine.WriteResult{ID: req.ID, Result: engine.ResultUpdated}, nil
}
