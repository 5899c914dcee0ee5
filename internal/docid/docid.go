// Package docid derives deterministic document identifiers from natural keys.
//
// Every entity uses the same scheme: each part is normalized, parts are joined
// with a unit separator and the result is hashed with SHA-256 (hex, 64 chars).
// The same natural key always yields the same id, which makes repeated writes converge.
package docid

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// partSeparator cannot survive Normalize, so distinct part splits never collide.
const partSeparator = "\x1f"

// wordSeparator replaces whitespace runs inside a normalized part.
const wordSeparator = "_"

// Size is the length of a derived id in characters.
const Size = sha256.Size * 2

// Normalize folds case, drops everything but letters, digits and whitespace
// and collapses whitespace runs into a single "_". Unicode letters are kept.
func Normalize(s string) string {
	s = cases.Fold().String(norm.NFKC.String(s))

	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r):
			if pendingSpace && b.Len() > 0 {
				b.WriteString(wordSeparator)
			}
			pendingSpace = false
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			pendingSpace = true
		}
	}
	return b.String()
}

// Derive returns the id for an ordered list of natural-key parts.
// Empty parts and an empty list are valid and still produce a fixed-length id.
func Derive(parts ...string) string {
	normalized := make([]string, len(parts))
	for i, p := range parts {
		normalized[i] = Normalize(p)
	}
	sum := sha256.Sum256([]byte(strings.Join(normalized, partSeparator)))
	return hex.EncodeToString(sum[:])
}
