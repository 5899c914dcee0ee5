package elastic

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/roxby/tubesearch/internal/engine"
)

// errorBody is the engine's error reply. "error" is an object on most APIs and a bare string on a few.
type errorBody struct {
	Error  json.RawMessage `json:"error"`
	Status int             `json:"status"`
}

type errorCause struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func transportError(op, index string, err error) error {
	return &engine.Error{Op: op, Index: index, Err: fmt.Errorf("%w: %w", engine.ErrUnavailable, err)}
}

// decodeError maps a non-2xx reply to a sentinel wrapped with the engine's own diagnostic.
func decodeError(op, index string, res *esapi.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))

	var body errorBody
	var cause errorCause
	if json.Unmarshal(raw, &body) == nil && len(body.Error) > 0 {
		if json.Unmarshal(body.Error, &cause) != nil {
			var s string
			if json.Unmarshal(body.Error, &s) == nil {
				cause.Reason = s
			}
		}
	}

	sentinel := sentinelFor(res.StatusCode, cause.Type)
	msg := cause.Reason
	if cause.Type != "" {
		msg = cause.Type + ": " + cause.Reason
	}
	if msg == "" {
		msg = http.StatusText(res.StatusCode)
	}
	return &engine.Error{Op: op, Index: index, Err: fmt.Errorf("%w: [%d] %s", sentinel, res.StatusCode, msg)}
}

func sentinelFor(status int, errType string) error {
	switch errType {
	case "index_not_found_exception":
		return engine.ErrIndexNotFound
	case "resource_already_exists_exception":
		return engine.ErrIndexExists
	case "version_conflict_engine_exception":
		return engine.ErrConflict
	case "document_missing_exception":
		return engine.ErrNotFound
	}
	switch {
	case status == http.StatusNotFound:
		return engine.ErrNotFound
	case status == http.StatusConflict:
		return engine.ErrConflict
	case status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		return engine.ErrUnavailable
	default:
		return engine.ErrInvalidRequest
	}
}
