package engine

import "fmt"

// BulkOp is the action of one bulk item.
type BulkOp string

// Bulk actions.
const (
	BulkIndex  BulkOp = "index"
	BulkCreate BulkOp = "create"
	BulkUpdate BulkOp = "update"
	BulkDelete BulkOp = "delete"
)

// BulkAction is one (action, metadata, document) triple of a bulk request.
type BulkAction struct {
	Op              BulkOp
	Index           string
	ID              string
	Doc             Document
	Script          *Script
	Upsert          Document
	DocAsUpsert     bool
	RetryOnConflict int
}

// Validate enforces per-action requirements: update and delete must carry an id.
func (a *BulkAction) Validate() error {
	if a.Index == "" {
		return errorf("%s action: index is required", a.Op)
	}
	switch a.Op {
	case BulkIndex, BulkCreate:
		if a.Doc == nil {
			return errorf("%s action: document is required", a.Op)
		}
	case BulkUpdate:
		if a.ID == "" {
			return errorf("update action: id is required")
		}
		if a.Doc == nil && a.Script == nil {
			return errorf("update action %q: doc or script is required", a.ID)
		}
	case BulkDelete:
		if a.ID == "" {
			return errorf("delete action: id is required")
		}
	default:
		return errorf("unknown bulk action %q", a.Op)
	}
	return nil
}

// ItemError is the engine's failure description for one bulk item.
type ItemError struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func (e *ItemError) Error() string { return e.Type + ": " + e.Reason }

// BulkItem is the engine's itemized reply for one action, in request order.
type BulkItem struct {
	Op     BulkOp
	Index  string
	ID     string
	Status int
	Result string
	Error  *ItemError
}

// Failed reports whether the engine rejected the item.
// A delete of a missing id is a 404 "not_found" without an error and does not fail.
func (i BulkItem) Failed() bool {
	if i.Error != nil {
		return true
	}
	if i.Op == BulkDelete && i.Result == ResultNotFound {
		return false
	}
	return i.Status >= 300
}

// Describe returns a short diagnostic of a failed item.
func (i BulkItem) Describe() string {
	if i.Error != nil {
		return fmt.Sprintf("%s %s: %s", i.Op, i.ID, i.Error.Error())
	}
	return fmt.Sprintf("%s %s: status %d", i.Op, i.ID, i.Status)
}

// BulkReply is the reply to a bulk request.
type BulkReply struct {
	Took   int64
	Errors bool
	Items  []BulkItem
}
