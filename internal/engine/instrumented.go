package engine

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/roxby/tubesearch/internal/metrics"
)

// Instrumented wraps a Gateway with request metrics and logging.
// Not-found replies are normal negative results and are not counted as errors.
type Instrumented struct {
	inner  Gateway
	logger *zap.Logger
}

var _ Gateway = (*Instrumented)(nil)

// NewInstrumented wraps a gateway with observability.
func NewInstrumented(inner Gateway, logger *zap.Logger) *Instrumented {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Instrumented{inner: inner, logger: logger}
}

func (g *Instrumented) observe(op, index string, start time.Time, err error) {
	duration := time.Since(start)
	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrIndexNotFound):
		status = "not_found"
	default:
		status = "error"
	}
	metrics.EngineRequestsTotal.WithLabelValues(op, status).Inc()
	metrics.EngineRequestDuration.WithLabelValues(op).Observe(duration.Seconds())

	if status == "error" {
		g.logger.Warn("Engine request failed",
			zap.String("op", op),
			zap.String("index", index),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}
	g.logger.Debug("Engine request",
		zap.String("op", op),
		zap.String("index", index),
		zap.Duration("duration", duration),
	)
}

// Ping implements Pinger.
func (g *Instrumented) Ping(ctx context.Context) error {
	start := time.Now()
	err := g.inner.Ping(ctx)
	g.observe(OpPing, "", start, err)
	return err //nolint:wrapcheck // decorator is transparent
}

// IndexExists implements IndexManager.
func (g *Instrumented) IndexExists(ctx context.Context, name string) (bool, error) {
	start := time.Now()
	ok, err := g.inner.IndexExists(ctx, name)
	g.observe(OpIndexExists, name, start, err)
	return ok, err //nolint:wrapcheck // decorator is transparent
}

// CreateIndex implements IndexManager.
func (g *Instrumented) CreateIndex(ctx context.Context, name string, spec IndexSpec) error {
	start := time.Now()
	err := g.inner.CreateIndex(ctx, name, spec)
	g.observe(OpCreateIndex, name, start, err)
	return err //nolint:wrapcheck // decorator is transparent
}

// DeleteIndex implements IndexManager.
func (g *Instrumented) DeleteIndex(ctx context.Context, name string) error {
	start := time.Now()
	err := g.inner.DeleteIndex(ctx, name)
	g.observe(OpDeleteIndex, name, start, err)
	return err //nolint:wrapcheck // decorator is transparent
}

// GetMapping implements IndexManager.
func (g *Instrumented) GetMapping(ctx context.Context, name string) (Mapping, error) {
	start := time.Now()
	m, err := g.inner.GetMapping(ctx, name)
	g.observe(OpGetMapping, name, start, err)
	return m, err //nolint:wrapcheck // decorator is transparent
}

// Refresh implements IndexManager.
func (g *Instrumented) Refresh(ctx context.Context, name string) error {
	start := time.Now()
	err := g.inner.Refresh(ctx, name)
	g.observe(OpRefresh, name, start, err)
	return err //nolint:wrapcheck // decorator is transparent
}

// Get implements DocumentStore.
func (g *Instrumented) Get(ctx context.Context, index, id string) (*Hit, error) {
	start := time.Now()
	h, err := g.inner.Get(ctx, index, id)
	g.observe(OpGet, index, start, err)
	return h, err //nolint:wrapcheck // decorator is transparent
}

// Index implements DocumentStore.
func (g *Instrumented) Index(ctx context.Context, req IndexRequest) (WriteResult, error) {
	start := time.Now()
	res, err := g.inner.Index(ctx, req)
	g.observe(OpIndex, req.Index, start, err)
	return res, err //nolint:wrapcheck // decorator is transparent
}

// Update implements DocumentStore.
func (g *Instrumented) Update(ctx context.Context, req UpdateRequest) (WriteResult, error) {
	start := time.Now()
	res, err := g.inner.Update(ctx, req)
	g.observe(OpUpdate, req.Index, start, err)
	return res, err //nolint:wrapcheck // decorator is transparent
}

// Delete implements DocumentStore.
func (g *Instrumented) Delete(ctx context.Context, index, id string) (WriteResult, error) {
	start := time.Now()
	res, err := g.inner.Delete(ctx, index, id)
	g.observe(OpDelete, index, start, err)
	return res, err //nolint:wrapcheck // decorator is transparent
}

// Bulk implements BulkWriter.
func (g *Instrumented) Bulk(ctx context.Context, actions []BulkAction) (BulkReply, error) {
	start := time.Now()
	reply, err := g.inner.Bulk(ctx, actions)
	index := ""
	if len(actions) > 0 {
		index = actions[0].Index
	}
	g.observe(OpBulk, index, start, err)
	return reply, err //nolint:wrapcheck // decorator is transparent
}

// Search implements Searcher.
func (g *Instrumented) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	start := time.Now()
	res, err := g.inner.Search(ctx, req)
	g.observe(OpSearch, req.Index, start, err)
	return res, err //nolint:wrapcheck // decorator is transparent
}

// Count implements Searcher.
func (g *Instrumented) Count(ctx context.Context, index string, q Query) (int64, error) {
	start := time.Now()
	n, err := g.inner.Count(ctx, index, q)
	g.observe(OpCount, index, start, err)
	return n, err //nolint:wrapcheck // decorator is transparent
}

// DeleteByQuery implements Searcher.
func (g *Instrumented) DeleteByQuery(ctx context.Context, index string, q Query) (int64, error) {
	start := time.Now()
	n, err := g.inner.DeleteByQuery(ctx, index, q)
	g.observe(OpDeleteByQuery, index, start, err)
	return n, err //nolint:wrapcheck // decorator is transparent
}

// Close implements Gateway.
func (g *Instrumented) Close() error {
	return g.inner.Close() //nolint:wrapcheck // decorator is transparent
}
