package embedded

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/google/uuid"

	"github.com/roxby/tubesearch/internal/engine"
)

// Get implements engine.DocumentStore.
func (e *Engine) Get(_ context.Context, index, id string) (*engine.Hit, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	mi, err := e.index(engine.OpGet, index)
	if err != nil {
		return nil, err
	}
	doc, ok := mi.docs[id]
	if !ok {
		return nil, &engine.Error{Op: engine.OpGet, Index: index, Err: engine.ErrNotFound}
	}
	return &engine.Hit{Index: index, ID: id, Source: clone(doc)}, nil
}

// Index implements engine.DocumentStore.
func (e *Engine) Index(_ context.Context, req engine.IndexRequest) (engine.WriteResult, error) {
	if req.Body == nil {
		return engine.WriteResult{}, &engine.Error{Op: engine.OpIndex, Index: req.Index,
			Err: fmt.Errorf("document is required: %w", engine.ErrInvalidRequest)}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	mi, err := e.index(engine.OpIndex, req.Index)
	if err != nil {
		return engine.WriteResult{}, err
	}
	res, err := e.indexDoc(mi, req.ID, req.Body, req.OpType)
	if err != nil {
		return res, &engine.Error{Op: engine.OpIndex, Index: req.Index, Err: err}
	}
	return res, nil
}

// Update implements engine.DocumentStore.
func (e *Engine) Update(_ context.Context, req engine.UpdateRequest) (engine.WriteResult, error) {
	if err := req.Validate(); err != nil {
		return engine.WriteResult{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	mi, err := e.index(engine.OpUpdate, req.Index)
	if err != nil {
		return engine.WriteResult{}, err
	}
	res, err := e.updateDoc(mi, req.ID, req.Doc, req.Script, req.Upsert, req.DocAsUpsert)
	if err != nil {
		return res, &engine.Error{Op: engine.OpUpdate, Index: req.Index, Err: err}
	}
	return res, nil
}

// Delete implements engine.DocumentStore.
func (e *Engine) Delete(_ context.Context, index, id string) (engine.WriteResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	mi, err := e.index(engine.OpDelete, index)
	if err != nil {
		return engine.WriteResult{}, err
	}
	res, err := e.deleteDoc(mi, id)
	if err != nil {
		return res, &engine.Error{Op: engine.OpDelete, Index: index, Err: err}
	}
	return res, nil
}

// Bulk implements engine.BulkWriter. Items are applied in order; a failed item
// never stops the rest, matching the partial-application model of a cluster.
func (e *Engine) Bulk(_ context.Context, actions []engine.BulkAction) (engine.BulkReply, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return engine.BulkReply{}, &engine.Error{Op: engine.OpBulk, Err: engine.ErrUnavailable}
	}

	reply := engine.BulkReply{Items: make([]engine.BulkItem, 0, len(actions))}
	for i := range actions {
		a := &actions[i]
		item := engine.BulkItem{Op: a.Op, Index: a.Index, ID: a.ID}

		var (
			res engine.WriteResult
			err error
		)
		if err = a.Validate(); err == nil {
			var mi *memIndex
			if mi, err = e.index(engine.OpBulk, a.Index); err == nil {
				switch a.Op {
				case engine.BulkIndex:
					res, err = e.indexDoc(mi, a.ID, a.Doc, engine.OpTypeIndex)
				case engine.BulkCreate:
					res, err = e.indexDoc(mi, a.ID, a.Doc, engine.OpTypeCreate)
				case engine.BulkUpdate:
					res, err = e.updateDoc(mi, a.ID, a.Doc, a.Script, a.Upsert, a.DocAsUpsert)
				case engine.BulkDelete:
					res, err = e.deleteDoc(mi, a.ID)
				}
			}
		}

		if res.ID != "" {
			item.ID = res.ID
		}
		item.Result = res.Result
		item.Status, item.Error = itemStatus(a.Op, res, err)
		if item.Failed() && item.Error != nil {
			reply.Errors = true
		}
		reply.Items = append(reply.Items, item)
	}
	return reply, nil
}

// itemStatus renders an item outcome the way the remote engine reports it.
func itemStatus(op engine.BulkOp, res engine.WriteResult, err error) (int, *engine.ItemError) {
	switch {
	case err == nil && res.Result == engine.ResultCreated:
		return http.StatusCreated, nil
	case err == nil:
		return http.StatusOK, nil
	case errors.Is(err, engine.ErrNotFound) && op == engine.BulkDelete:
		// not_found deletes carry no error object
		return http.StatusNotFound, nil
	case errors.Is(err, engine.ErrNotFound):
		return http.StatusNotFound, &engine.ItemError{Type: "document_missing_exception", Reason: err.Error()}
	case errors.Is(err, engine.ErrIndexNotFound):
		return http.StatusNotFound, &engine.ItemError{Type: "index_not_found_exception", Reason: err.Error()}
	case errors.Is(err, engine.ErrConflict):
		return http.StatusConflict, &engine.ItemError{Type: "version_conflict_engine_exception", Reason: err.Error()}
	case errors.Is(err, engine.ErrInvalidRequest):
		return http.StatusBadRequest, &engine.ItemError{Type: "action_request_validation_exception", Reason: err.Error()}
	case errors.Is(err, engine.ErrUnsupported):
		return http.StatusBadRequest, &engine.ItemError{Type: "illegal_argument_exception", Reason: err.Error()}
	default:
		return http.StatusInternalServerError, &engine.ItemError{Type: "exception", Reason: err.Error()}
	}
}

// indexDoc stores a whole document; the caller holds the write lock.
func (e *Engine) indexDoc(mi *memIndex, id string, body engine.Document, opType engine.OpType) (engine.WriteResult, error) {
	if id == "" {
		id = uuid.NewString()
	}
	_, exists := mi.docs[id]
	if exists && opType == engine.OpTypeCreate {
		return engine.WriteResult{ID: id}, fmt.Errorf("document %s already exists: %w", id, engine.ErrConflict)
	}
	result := engine.ResultCreated
	if exists {
		result = engine.ResultUpdated
	}
	return e.put(mi, id, body, result)
}

// updateDoc merges Doc or runs Script against an existing document, falling back to the upsert document.
func (e *Engine) updateDoc(
	mi *memIndex, id string, doc engine.Document, script *engine.Script, upsert engine.Document, docAsUpsert bool,
) (engine.WriteResult, error) {
	current, exists := mi.docs[id]
	if !exists {
		switch {
		case docAsUpsert && doc != nil:
			return e.put(mi, id, doc, engine.ResultCreated)
		case upsert != nil:
			return e.put(mi, id, upsert, engine.ResultCreated)
		}
		return engine.WriteResult{ID: id, Result: engine.ResultNotFound},
			fmt.Errorf("document %s: %w", id, engine.ErrNotFound)
	}

	var next engine.Document
	if script != nil {
		fn, ok := e.scripts[script.ID]
		if !ok {
			return engine.WriteResult{ID: id}, fmt.Errorf("script %q is not registered: %w", script.ID, engine.ErrUnsupported)
		}
		out, err := fn(clone(current), script.Params)
		if err != nil {
			return engine.WriteResult{ID: id}, fmt.Errorf("script %q: %w: %w", script.ID, engine.ErrInvalidRequest, err)
		}
		next = out
	} else {
		next = clone(current)
		for k, v := range doc {
			next[k] = v
		}
	}

	normalized, err := normalize(next)
	if err != nil {
		return engine.WriteResult{ID: id}, err
	}
	if reflect.DeepEqual(normalized, current) {
		return engine.WriteResult{ID: id, Result: engine.ResultNoop, Version: mi.versions[id]}, nil
	}
	return e.put(mi, id, normalized, engine.ResultUpdated)
}

func (e *Engine) deleteDoc(mi *memIndex, id string) (engine.WriteResult, error) {
	if _, ok := mi.docs[id]; !ok {
		return engine.WriteResult{ID: id, Result: engine.ResultNotFound},
			fmt.Errorf("document %s: %w", id, engine.ErrNotFound)
	}
	en := entry{Op: entryDelete, Index: mi.name, ID: id}
	if err := e.apply(en); err != nil {
		return engine.WriteResult{ID: id}, err
	}
	if err := e.record(engine.OpDelete, en); err != nil {
		return engine.WriteResult{ID: id}, err
	}
	return engine.WriteResult{ID: id, Result: engine.ResultDeleted, Version: mi.versions[id]}, nil
}

func (e *Engine) put(mi *memIndex, id string, body engine.Document, result string) (engine.WriteResult, error) {
	doc, err := normalize(body)
	if err != nil {
		return engine.WriteResult{ID: id}, err
	}
	en := entry{Op: entryPut, Index: mi.name, ID: id, Doc: doc}
	if err := e.apply(en); err != nil {
		return engine.WriteResult{ID: id}, err
	}
	if err := e.record(engine.OpIndex, en); err != nil {
		return engine.WriteResult{ID: id}, err
	}
	return engine.WriteResult{ID: id, Result: result, Version: mi.versions[id]}, nil
}
