// Package engine defines the boundary to the external full-text search engine:
// the gateway contract, the request/reply shapes it speaks and the typed query tree.
package engine

import (
	"context"
)

// Gateway is the engine facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Gateway interface {
	Pinger
	IndexManager
	DocumentStore
	BulkWriter
	Searcher
	Close() error
}

// Pinger checks engine connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// IndexManager provides index lifecycle operations.
type IndexManager interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, name string, spec IndexSpec) error
	DeleteIndex(ctx context.Context, name string) error
	GetMapping(ctx context.Context, name string) (Mapping, error)
	Refresh(ctx context.Context, name string) error
}

// DocumentStore provides single-document operations.
// Get returns ErrNotFound when the document does not exist.
type DocumentStore interface {
	Get(ctx context.Context, index, id string) (*Hit, error)
	Index(ctx context.Context, req IndexRequest) (WriteResult, error)
	Update(ctx context.Context, req UpdateRequest) (WriteResult, error)
	Delete(ctx context.Context, index, id string) (WriteResult, error)
}

// BulkWriter submits many actions in one round trip.
// A returned error means the round trip itself failed; item failures are in the reply.
type BulkWriter interface {
	Bulk(ctx context.Context, actions []BulkAction) (BulkReply, error)
}

// Searcher provides query operations.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResult, error)
	Count(ctx context.Context, index string, q Query) (int64, error)
	DeleteByQuery(ctx context.Context, index string, q Query) (int64, error)
}

// Document is a field name to value mapping as stored in the engine.
type Document map[string]any

// Result values reported by the engine for write operations.
const (
	ResultCreated  = "created"
	ResultUpdated  = "updated"
	ResultDeleted  = "deleted"
	ResultNoop     = "noop"
	ResultNotFound = "not_found"
)

// WriteResult is the reply to a single-document write.
type WriteResult struct {
	ID      string
	Result  string
	Version int64
}

// OpType controls index semantics for documents with an explicit id.
type OpType string

const (
	// OpTypeIndex creates or replaces the document.
	OpTypeIndex OpType = "index"
	// OpTypeCreate fails with ErrConflict when the document already exists.
	OpTypeCreate OpType = "create"
)

// IndexRequest stores a whole document. An empty ID lets the engine assign one.
type IndexRequest struct {
	Index   string
	ID      string
	Body    Document
	OpType  OpType
	Refresh bool
}

// UpdateRequest changes an existing document either by partial Doc merge or by Script.
// Upsert is the document stored when the target does not exist.
type UpdateRequest struct {
	Index           string
	ID              string
	Doc             Document
	Script          *Script
	Upsert          Document
	DocAsUpsert     bool
	RetryOnConflict int
	Refresh         bool
}

// Validate checks the request before it reaches the engine.
func (r *UpdateRequest) Validate() error {
	if r.Index == "" {
		return &Error{Op: OpUpdate, Err: errorf("index is required")}
	}
	if r.ID == "" {
		return &Error{Op: OpUpdate, Index: r.Index, Err: errorf("id is required")}
	}
	if r.Script == nil && r.Doc == nil {
		return &Error{Op: OpUpdate, Index: r.Index, Err: errorf("either doc or script is required")}
	}
	if r.Script != nil && r.Doc != nil {
		return &Error{Op: OpUpdate, Index: r.Index, Err: errorf("doc and script are mutually exclusive")}
	}
	if r.RetryOnConflict < 0 {
		return &Error{Op: OpUpdate, Index: r.Index, Err: errorf("retry_on_conflict must be >= 0")}
	}
	return nil
}

// Script is an engine-side update or sort script.
// Source is sent inline; ID names a stored script and is used when Source is empty.
type Script struct {
	ID     string
	Source string
	Lang   string
	Params map[string]any
}
