// Package translate declares the query translation contract.
package translate

import (
	"context"
	"errors"
	"strings"
)

// Translation errors.
var (
	ErrUnavailable = errors.New("translator unavailable")
	ErrRateLimited = errors.New("translator rate limited")
	ErrEmptyText   = errors.New("text is empty")
)

// English is the language queries are translated into before search.
const English = "en"

// Translator turns text into the target language (ISO 639-1 code).
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// IsEnglish reports whether lang names English. An empty lang counts as English.
func IsEnglish(lang string) bool {
	lang = strings.ToLower(strings.TrimSpace(lang))
	return lang == "" || lang == English || strings.HasPrefix(lang, English+"-") || strings.HasPrefix(lang, English+"_")
}
