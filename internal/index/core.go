// Package index holds the per-entity index plumbing shared by blacklist,
// searches and videos: lifecycle, single-document access and paged search.
package index

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/roxby/tubesearch/internal/bulk"
	"github.com/roxby/tubesearch/internal/engine"
	"github.com/roxby/tubesearch/internal/response"
	"github.com/roxby/tubesearch/internal/upsert"
)

// ErrInvalidInput is returned for caller input rejected before any engine call.
var ErrInvalidInput = errors.New("invalid input")

// Definition declares an index: its name and everything needed to create it.
type Definition struct {
	Name string
	Spec engine.IndexSpec
}

// Core composes the engine primitives for one index. Entities embed it.
type Core struct {
	gw              engine.Gateway
	def             Definition
	batch           *bulk.Batcher
	retryOnConflict int
	now             func() time.Time
	logger          *zap.Logger
}

// NewCore creates the shared plumbing for one index.
func NewCore(gw engine.Gateway, def Definition, opts ...Option) *Core {
	s := settings{
		retryOnConflict: upsert.DefaultRetryOnConflict,
		now:             time.Now,
		logger:          zap.NewNop(),
	}
	for _, o := range opts {
		o(&s)
	}
	if s.name != "" {
		def.Name = s.name
	}
	if s.batch == nil {
		s.batch = bulk.New(gw, s.logger)
	}
	return &Core{
		gw:              gw,
		def:             def,
		batch:           s.batch,
		retryOnConflict: s.retryOnConflict,
		now:             s.now,
		logger:          s.logger.With(zap.String("index", def.Name)),
	}
}

// Name returns the index name.
func (c *Core) Name() string { return c.def.Name }

// Definition returns the declared index definition.
func (c *Core) Definition() Definition { return c.def }

// Gateway returns the engine gateway.
func (c *Core) Gateway() engine.Gateway { return c.gw }

// Batcher returns the bulk batcher.
func (c *Core) Batcher() *bulk.Batcher { return c.batch }

// RetryOnConflict returns the optimistic-concurrency retry hint for updates.
func (c *Core) RetryOnConflict() int { return c.retryOnConflict }

// Now returns the current time from the configured clock.
func (c *Core) Now() time.Time { return c.now() }

// Logger returns the index-scoped logger.
func (c *Core) Logger() *zap.Logger { return c.logger }

// Ensure creates the index when it is missing. The result is true when this call created it.
// A concurrent creator winning the race is not an error.
func (c *Core) Ensure(ctx context.Context) response.Response[bool] {
	exists, err := c.gw.IndexExists(ctx, c.def.Name)
	if err != nil {
		return response.Fail[bool](fmt.Errorf("check index %s: %w", c.def.Name, err))
	}
	if exists {
		return response.OK(false)
	}
	err = c.gw.CreateIndex(ctx, c.def.Name, c.def.Spec)
	switch {
	case errors.Is(err, engine.ErrIndexExists):
		return response.OK(false)
	case err != nil:
		return response.Fail[bool](fmt.Errorf("create index %s: %w", c.def.Name, err))
	}
	c.logger.Info("Index created", zap.Stringer("spec", c.def.Spec))
	return response.OK(true)
}

// Exists reports whether the index exists.
func (c *Core) Exists(ctx context.Context) response.Response[bool] {
	return response.FromError(c.gw.IndexExists(ctx, c.def.Name))
}

// Refresh makes recent writes visible to search.
func (c *Core) Refresh(ctx context.Context) response.Response[bool] {
	if err := c.gw.Refresh(ctx, c.def.Name); err != nil {
		return response.Fail[bool](err)
	}
	return response.OK(true)
}

// Drop deletes the index. The result is false when it did not exist.
func (c *Core) Drop(ctx context.Context) response.Response[bool] {
	err := c.gw.DeleteIndex(ctx, c.def.Name)
	switch {
	case errors.Is(err, engine.ErrIndexNotFound):
		return response.OK(false)
	case err != nil:
		return response.Fail[bool](err)
	}
	c.logger.Info("Index dropped")
	return response.OK(true)
}

// Mapping returns the live mapping, falling back to the declared one when the
// engine cannot provide it.
func (c *Core) Mapping(ctx context.Context) engine.Mapping {
	m, err := c.gw.GetMapping(ctx, c.def.Name)
	if err != nil || len(m.Properties) == 0 {
		if err != nil {
			c.logger.Debug("Live mapping unavailable, using declared", zap.Error(err))
		}
		return c.def.Spec.Mapping
	}
	return m
}

// Put stores a whole document under id. The result is 1 when the document was
// newly created and 0 when an existing one was replaced.
func (c *Core) Put(ctx context.Context, id string, doc engine.Document) response.Response[int] {
	res, err := c.gw.Index(ctx, engine.IndexRequest{Index: c.def.Name, ID: id, Body: doc})
	if err != nil {
		return response.Fail[int](fmt.Errorf("index %s: %w", id, err))
	}
	if res.Result == engine.ResultCreated {
		return response.OK(1)
	}
	return response.OK(0)
}

// Create stores doc under id only if id is free. The result is 0 when it was taken.
func (c *Core) Create(ctx context.Context, id string, doc engine.Document) response.Response[int] {
	_, err := c.gw.Index(ctx, engine.IndexRequest{Index: c.def.Name, ID: id, Body: doc, OpType: engine.OpTypeCreate})
	switch {
	case errors.Is(err, engine.ErrConflict):
		return response.OK(0)
	case err != nil:
		return response.Fail[int](fmt.Errorf("create %s: %w", id, err))
	}
	return response.OK(1)
}

// Patch merges partial into the document under id, retrying engine-side on
// version conflicts. The result is 1 when updated (or already in that state)
// and 0 when the document does not exist.
func (c *Core) Patch(ctx context.Context, id string, partial engine.Document) response.Response[int] {
	if len(partial) == 0 {
		return response.Fail[int](fmt.Errorf("patch %s: empty document: %w", id, ErrInvalidInput))
	}
	res, err := c.gw.Update(ctx, engine.UpdateRequest{
		Index:           c.def.Name,
		ID:              id,
		Doc:             partial,
		RetryOnConflict: c.retryOnConflict,
	})
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return response.OK(0)
	case err != nil:
		return response.Fail[int](fmt.Errorf("update %s: %w", id, err))
	}
	switch res.Result {
	case engine.ResultUpdated, engine.ResultNoop:
		return response.OK(1)
	}
	return response.OK(0)
}

// Remove deletes the document under id. The result is 0 when it did not exist.
func (c *Core) Remove(ctx context.Context, id string) response.Response[int] {
	_, err := c.gw.Delete(ctx, c.def.Name, id)
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return response.OK(0)
	case err != nil:
		return response.Fail[int](fmt.Errorf("delete %s: %w", id, err))
	}
	return response.OK(1)
}

// Count returns the number of documents matching q; nil matches everything.
func (c *Core) Count(ctx context.Context, q engine.Query) response.Response[int64] {
	return response.FromError(c.gw.Count(ctx, c.def.Name, q))
}

// DeleteMatching removes every document matching q and returns how many were deleted.
func (c *Core) DeleteMatching(ctx context.Context, q engine.Query) response.Response[int64] {
	return response.FromError(c.gw.DeleteByQuery(ctx, c.def.Name, q))
}

// Bulk runs a batch through the configured batcher and returns the aggregate count.
func (c *Core) Bulk(ctx context.Context, kind bulk.Kind, actions []engine.BulkAction) response.Response[int] {
	return bulk.Count(c.batch.Execute(ctx, kind, actions))
}
