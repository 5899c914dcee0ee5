package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for engine operations.
var (
	ErrNotFound       = errors.New("engine: document not found")
	ErrIndexNotFound  = errors.New("engine: index not found")
	ErrIndexExists    = errors.New("engine: index already exists")
	ErrConflict       = errors.New("engine: version conflict")
	ErrUnsupported    = errors.New("engine: unsupported operation")
	ErrInvalidRequest = errors.New("engine: invalid request")
	ErrUnavailable    = errors.New("engine: unavailable")
)

// Op constants name gateway operations for error context and metrics labels.
const (
	OpPing          = "ping"
	OpIndexExists   = "index_exists"
	OpCreateIndex   = "create_index"
	OpDeleteIndex   = "delete_index"
	OpGetMapping    = "get_mapping"
	OpRefresh       = "refresh"
	OpGet           = "get"
	OpIndex         = "index"
	OpUpdate        = "update"
	OpDelete        = "delete"
	OpBulk          = "bulk"
	OpSearch        = "search"
	OpCount         = "count"
	OpDeleteByQuery = "delete_by_query"
)

// Error wraps an underlying error with the operation name and target index for diagnostics.
type Error struct {
	Op    string
	Index string
	Err   error
}

func (e *Error) Error() string {
	if e.Index == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " [" + e.Index + "]: " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// errorf builds an ErrInvalidRequest-wrapped validation error.
func errorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidRequest}, args...)...)
}
