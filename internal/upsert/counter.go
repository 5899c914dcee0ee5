// Package upsert builds atomic insert-or-increment updates for analytics counters.
package upsert

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/roxby/tubesearch/internal/engine"
	"github.com/roxby/tubesearch/internal/response"
)

// TimestampLayout matches the engine date format "yyyy-MM-dd HH:mm:ss".
const TimestampLayout = "2006-01-02 15:04:05"

// Defaults.
const (
	DefaultRetryOnConflict = 3
	DefaultTimestampField  = "last_updated"
)

// updater is the consumer interface for single-document updates (ISP).
type updater interface {
	Update(ctx context.Context, req engine.UpdateRequest) (engine.WriteResult, error)
}

// Spec describes one counter upsert.
type Spec struct {
	Index string
	ID    string
	// IncrementField holds the counter; the fallback document sets it to 1.
	IncrementField string
	// TimestampField is always refreshed. Default: "last_updated".
	TimestampField string
	// Fill fields are written only when absent, never overwritten.
	Fill      map[string]any
	Increment bool
}

// Validate rejects specs locally before any round trip.
func (s *Spec) Validate() error {
	if s.Index == "" {
		return fmt.Errorf("upsert: index is required: %w", engine.ErrInvalidRequest)
	}
	if s.ID == "" {
		return fmt.Errorf("upsert: id is required: %w", engine.ErrInvalidRequest)
	}
	if s.IncrementField == "" {
		return fmt.Errorf("upsert: increment field is required: %w", engine.ErrInvalidRequest)
	}
	ts := s.timestampField()
	if ts == s.IncrementField {
		return fmt.Errorf("upsert: timestamp field %q collides with the counter: %w", ts, engine.ErrInvalidRequest)
	}
	for k := range s.Fill {
		if k == s.IncrementField || k == ts {
			return fmt.Errorf("upsert: fill field %q collides with a managed field: %w", k, engine.ErrInvalidRequest)
		}
	}
	return nil
}

func (s *Spec) timestampField() string {
	if s.TimestampField == "" {
		return DefaultTimestampField
	}
	return s.TimestampField
}

// Counter issues scripted upserts. It holds no mutable state and is safe for concurrent use.
type Counter struct {
	u               updater
	retryOnConflict int
	now             func() time.Time
	logger          *zap.Logger
}

// New creates a counter with DefaultRetryOnConflict.
func New(u updater, logger *zap.Logger) *Counter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Counter{
		u:               u,
		retryOnConflict: DefaultRetryOnConflict,
		now:             time.Now,
		logger:          logger,
	}
}

// WithRetryOnConflict sets the engine's optimistic-concurrency retry hint.
func (c *Counter) WithRetryOnConflict(n int) *Counter {
	if n >= 0 {
		c.retryOnConflict = n
	}
	return c
}

// WithClock overrides the timestamp source.
func (c *Counter) WithClock(now func() time.Time) *Counter {
	if now != nil {
		c.now = now
	}
	return c
}

// Request builds the single conditional update for spec.
// The fallback document and the script agree on field semantics:
// the fallback starts the counter at 1, the script adds 1 to an existing one.
func (c *Counter) Request(spec Spec) (engine.UpdateRequest, error) {
	if err := spec.Validate(); err != nil {
		return engine.UpdateRequest{}, err
	}
	now := c.now().UTC().Format(TimestampLayout)
	ts := spec.timestampField()

	fill := make(map[string]any, len(spec.Fill))
	upsertDoc := make(engine.Document, len(spec.Fill)+2)
	for k, v := range spec.Fill {
		fill[k] = v
		upsertDoc[k] = v
	}
	upsertDoc[spec.IncrementField] = 1
	upsertDoc[ts] = now

	return engine.UpdateRequest{
		Index: spec.Index,
		ID:    spec.ID,
		Script: &engine.Script{
			ID:     ScriptID,
			Source: ScriptSource,
			Lang:   "painless",
			Params: map[string]any{
				paramField:     spec.IncrementField,
				paramIncrement: spec.Increment,
				paramFill:      fill,
				paramTSField:   ts,
				paramNow:       now,
			},
		},
		Upsert:          upsertDoc,
		RetryOnConflict: c.retryOnConflict,
	}, nil
}

// Upsert runs the insert-or-increment update. It returns 1 when the document was
// created or updated and an error envelope otherwise.
func (c *Counter) Upsert(ctx context.Context, spec Spec) response.Response[int] {
	req, err := c.Request(spec)
	if err != nil {
		return response.Fail[int](err)
	}
	res, err := c.u.Update(ctx, req)
	if err != nil {
		c.logger.Warn("Counter upsert failed",
			zap.String("index", spec.Index),
			zap.String("id", spec.ID),
			zap.Error(err),
		)
		return response.Fail[int](fmt.Errorf("upsert %s: %w", spec.ID, err))
	}
	switch res.Result {
	case engine.ResultCreated, engine.ResultUpdated, engine.ResultNoop:
		return response.OK(1)
	}
	return response.OK(0)
}
