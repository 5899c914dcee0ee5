package bulk

import (
	"fmt"

	"github.com/roxby/tubesearch/internal/engine"
)

// Kind selects which engine outcomes count as success for a batch.
type Kind string

// Batch kinds.
const (
	// KindIndex counts items reported "created". A re-index reported "updated" is not a new insert.
	KindIndex Kind = "index"
	// KindUpdate counts "updated" and "noop"; a no-op already has the desired end state.
	KindUpdate Kind = "update"
	// KindDelete counts items actually removed.
	KindDelete Kind = "delete"
)

// counts reports whether a successful item contributes to the aggregate.
func (k Kind) counts(result string) bool {
	switch k {
	case KindIndex:
		return result == engine.ResultCreated
	case KindUpdate:
		return result == engine.ResultUpdated || result == engine.ResultNoop
	case KindDelete:
		return result == engine.ResultDeleted
	}
	return false
}

// accepts reports whether an action belongs in a batch of this kind.
func (k Kind) accepts(op engine.BulkOp) bool {
	switch k {
	case KindIndex:
		return op == engine.BulkIndex || op == engine.BulkCreate
	case KindUpdate:
		return op == engine.BulkUpdate
	case KindDelete:
		return op == engine.BulkDelete
	}
	return false
}

func (k Kind) validate() error {
	switch k {
	case KindIndex, KindUpdate, KindDelete:
		return nil
	}
	return fmt.Errorf("unknown bulk kind %q: %w", k, engine.ErrInvalidRequest)
}

// Policy decides how item-level failures surface to the caller.
type Policy string

// Partial failure policies.
const (
	// PolicyCount silently excludes failed items from the count.
	PolicyCount Policy = "count"
	// PolicyReport also returns and logs each failed item.
	PolicyReport Policy = "report"
	// PolicyStrict fails the whole envelope when any item failed.
	PolicyStrict Policy = "strict"
)

// ParsePolicy maps configuration input to a Policy; empty input selects PolicyCount.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case "":
		return PolicyCount, nil
	case PolicyCount, PolicyReport, PolicyStrict:
		return p, nil
	}
	return "", fmt.Errorf("unknown bulk policy %q (want count, report or strict)", s)
}
