package tubesearch

import (
	"github.com/roxby/tubesearch/internal/engine"
	"github.com/roxby/tubesearch/internal/index"
	"github.com/roxby/tubesearch/internal/translate"
)

// Sentinel errors re-exported from the internal layers.
// Use errors.Is() on Response.Err() to check.
var (
	ErrInvalidInput       = index.ErrInvalidInput
	ErrNotFound           = engine.ErrNotFound
	ErrIndexNotFound      = engine.ErrIndexNotFound
	ErrIndexExists        = engine.ErrIndexExists
	ErrConflict           = engine.ErrConflict
	ErrUnsupported        = engine.ErrUnsupported
	ErrInvalidRequest     = engine.ErrInvalidRequest
	ErrUnavailable        = engine.ErrUnavailable
	ErrTranslationLimited = translate.ErrRateLimited
	ErrTranslationFailed  = translate.ErrUnavailable
)
