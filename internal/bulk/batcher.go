// Package bulk packages many document operations into engine round trips and
// reduces the itemized replies into an aggregate success count.
package bulk

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/roxby/tubesearch/internal/engine"
	"github.com/roxby/tubesearch/internal/metrics"
	"github.com/roxby/tubesearch/internal/response"
)

// DefaultChunkSize is the maximum number of actions per round trip.
const DefaultChunkSize = 500

// ErrPartialFailure is returned under PolicyStrict when some items failed.
var ErrPartialFailure = errors.New("bulk: partial failure")

// writer is the consumer interface for the engine bulk endpoint (ISP).
type writer interface {
	Bulk(ctx context.Context, actions []engine.BulkAction) (engine.BulkReply, error)
}

// Batcher executes bulk actions and aggregates per-item outcomes.
type Batcher struct {
	w         writer
	policy    Policy
	chunkSize int
	logger    *zap.Logger
}

// New creates a batcher with PolicyCount and DefaultChunkSize.
func New(w writer, logger *zap.Logger) *Batcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Batcher{
		w:         w,
		policy:    PolicyCount,
		chunkSize: DefaultChunkSize,
		logger:    logger,
	}
}

// WithPolicy sets the partial failure policy.
func (b *Batcher) WithPolicy(p Policy) *Batcher {
	if p != "" {
		b.policy = p
	}
	return b
}

// WithChunkSize sets the maximum actions per round trip.
func (b *Batcher) WithChunkSize(n int) *Batcher {
	if n > 0 {
		b.chunkSize = n
	}
	return b
}

// Policy returns the configured partial failure policy.
func (b *Batcher) Policy() Policy { return b.policy }

// Execute submits actions and returns the aggregate.
// Empty input succeeds with zero and makes no round trip. Invalid actions are
// rejected before any round trip. Item failures never fail the envelope
// unless the policy is PolicyStrict.
func (b *Batcher) Execute(ctx context.Context, kind Kind, actions []engine.BulkAction) response.Response[Summary] {
	if len(actions) == 0 {
		return response.OK(Summary{})
	}
	if err := b.validate(kind, actions); err != nil {
		return response.Fail[Summary](err)
	}

	sum := Summary{Requested: len(actions)}
	for start := 0; start < len(actions); start += b.chunkSize {
		end := min(start+b.chunkSize, len(actions))
		reply, err := b.w.Bulk(ctx, actions[start:end])
		if err != nil {
			b.logger.Error("Bulk round trip failed",
				zap.String("kind", string(kind)),
				zap.Int("offset", start),
				zap.Int("already_succeeded", sum.Succeeded),
				zap.Error(err),
			)
			return response.Fail[Summary](fmt.Errorf("bulk %s at offset %d (%d already applied): %w",
				kind, start, sum.Succeeded, err))
		}
		b.reduce(kind, actions[start:end], start, reply, &sum)
	}

	b.record(kind, sum)

	if sum.Failed > 0 {
		b.logger.Warn("Bulk items failed",
			zap.String("kind", string(kind)),
			zap.Int("requested", sum.Requested),
			zap.Int("failed", sum.Failed),
		)
		if b.policy == PolicyStrict {
			first := sum.Failures[0]
			return response.Fail[Summary](fmt.Errorf("%w: %d of %d items failed, first %q: %s",
				ErrPartialFailure, sum.Failed, sum.Requested, first.ID, first.Reason))
		}
		if b.policy == PolicyCount {
			sum.Failures = nil
		}
	}
	return response.OK(sum)
}

func (b *Batcher) validate(kind Kind, actions []engine.BulkAction) error {
	if err := kind.validate(); err != nil {
		return err
	}
	for i := range actions {
		a := &actions[i]
		if !kind.accepts(a.Op) {
			return fmt.Errorf("action %d: %s not allowed in %s batch: %w", i, a.Op, kind, engine.ErrInvalidRequest)
		}
		if err := a.Validate(); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
	}
	return nil
}

// reduce folds one chunk's reply into sum. Items missing from the reply count as failed.
func (b *Batcher) reduce(kind Kind, chunk []engine.BulkAction, offset int, reply engine.BulkReply, sum *Summary) {
	for i := range chunk {
		if i >= len(reply.Items) {
			sum.Failed++
			sum.Failures = append(sum.Failures, Failure{
				Position: offset + i, ID: chunk[i].ID, Reason: "missing from engine reply",
			})
			continue
		}
		item := reply.Items[i]
		switch {
		case item.Failed():
			sum.Failed++
			id := item.ID
			if id == "" {
				id = chunk[i].ID
			}
			sum.Failures = append(sum.Failures, Failure{Position: offset + i, ID: id, Reason: item.Describe()})
			if b.policy == PolicyReport {
				b.logger.Warn("Bulk item failed",
					zap.String("kind", string(kind)),
					zap.String("id", id),
					zap.String("reason", item.Describe()),
				)
			}
		case kind.counts(item.Result):
			sum.Succeeded++
		default:
			sum.Skipped++
		}
	}
}

func (b *Batcher) record(kind Kind, sum Summary) {
	k := string(kind)
	metrics.BulkItemsTotal.WithLabelValues(k, "succeeded").Add(float64(sum.Succeeded))
	metrics.BulkItemsTotal.WithLabelValues(k, "skipped").Add(float64(sum.Skipped))
	metrics.BulkItemsTotal.WithLabelValues(k, "failed").Add(float64(sum.Failed))
}

// Count converts a batch envelope into the count-only envelope returned by entity operations.
func Count(r response.Response[Summary]) response.Response[int] {
	s, ok := r.Value()
	if !r.Success {
		return response.Fail[int](r.Err())
	}
	if !ok {
		return response.OK(0)
	}
	return response.OK(s.Succeeded)
}
