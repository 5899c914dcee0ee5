// Package dedup probes an index for exact and near-duplicate terms before insertion.
package dedup

import (
	"context"
	"fmt"
	"strings"

	"github.com/roxby/tubesearch/internal/engine"
	"github.com/roxby/tubesearch/internal/response"
)

// counter is the consumer interface for hit counting (ISP).
type counter interface {
	Count(ctx context.Context, index string, q engine.Query) (int64, error)
}

// Guard answers existence probes against one field of one index.
type Guard struct {
	c          counter
	index      string
	field      string
	exactField string
	fuzziness  string
}

// New creates a guard. field is the analyzed text field used for fuzzy probes;
// exactField is its unanalyzed keyword variant used for exact probes.
func New(c counter, index, field, exactField string) *Guard {
	return &Guard{c: c, index: index, field: field, exactField: exactField, fuzziness: "AUTO"}
}

// WithFuzziness overrides the edit distance of similarity probes. Default: "AUTO".
func (g *Guard) WithFuzziness(f string) *Guard {
	if f != "" {
		g.fuzziness = f
	}
	return g
}

// Canonical is the stored form of a term: trimmed and lowercased.
func Canonical(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// ExistsExact reports whether exactly one stored term equals term.
func (g *Guard) ExistsExact(ctx context.Context, term string) response.Response[bool] {
	n, err := g.c.Count(ctx, g.index, g.ExactQuery(term))
	if err != nil {
		return response.Fail[bool](fmt.Errorf("exact probe %q: %w", term, err))
	}
	return response.OK(n == 1)
}

// ExistsSimilar reports whether any stored term is within the fuzzy edit distance of term.
func (g *Guard) ExistsSimilar(ctx context.Context, term string) response.Response[bool] {
	n, err := g.c.Count(ctx, g.index, g.SimilarQuery(term))
	if err != nil {
		return response.Fail[bool](fmt.Errorf("similarity probe %q: %w", term, err))
	}
	return response.OK(n > 0)
}

// ExactQuery is the exact-match probe for term.
func (g *Guard) ExactQuery(term string) engine.Query {
	return engine.TermQuery{Field: g.exactField, Value: Canonical(term), Boost: 1.0}
}

// SimilarQuery is the edit-distance tolerant probe for term.
func (g *Guard) SimilarQuery(term string) engine.Query {
	return engine.FuzzyQuery{Field: g.field, Value: Canonical(term), Fuzziness: g.fuzziness}
}
