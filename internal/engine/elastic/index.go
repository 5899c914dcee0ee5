package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/roxby/tubesearch/internal/engine"
)

// IndexExists implements engine.IndexManager.
func (g *Gateway) IndexExists(ctx context.Context, name string) (bool, error) {
	res, err := g.es.Indices.Exists([]string{name}, g.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, transportError(engine.OpIndexExists, name, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	}
	return false, decodeError(engine.OpIndexExists, name, res)
}

// CreateIndex implements engine.IndexManager.
func (g *Gateway) CreateIndex(ctx context.Context, name string, spec engine.IndexSpec) error {
	if err := spec.Validate(); err != nil {
		return &engine.Error{Op: engine.OpCreateIndex, Index: name, Err: err}
	}
	body, err := spec.Body()
	if err != nil {
		return &engine.Error{Op: engine.OpCreateIndex, Index: name, Err: err}
	}

	res, err := g.es.Indices.Create(name,
		g.es.Indices.Create.WithBody(bytes.NewReader(body)),
		g.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return transportError(engine.OpCreateIndex, name, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return decodeError(engine.OpCreateIndex, name, res)
	}
	g.logger.Info("Index created", zap.String("index", name), zap.Stringer("spec", spec))
	return nil
}

// DeleteIndex implements engine.IndexManager.
func (g *Gateway) DeleteIndex(ctx context.Context, name string) error {
	res, err := g.es.Indices.Delete([]string{name}, g.es.Indices.Delete.WithContext(ctx))
	if err != nil {
		return transportError(engine.OpDeleteIndex, name, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return &engine.Error{Op: engine.OpDeleteIndex, Index: name, Err: engine.ErrIndexNotFound}
	}
	if res.IsError() {
		return decodeError(engine.OpDeleteIndex, name, res)
	}
	return nil
}

// GetMapping implements engine.IndexManager. The reply is keyed by the concrete
// index name, which differs from name when name is an alias.
func (g *Gateway) GetMapping(ctx context.Context, name string) (engine.Mapping, error) {
	res, err := g.es.Indices.GetMapping(
		g.es.Indices.GetMapping.WithIndex(name),
		g.es.Indices.GetMapping.WithContext(ctx),
	)
	if err != nil {
		return engine.Mapping{}, transportError(engine.OpGetMapping, name, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		if res.StatusCode == http.StatusNotFound {
			return engine.Mapping{}, &engine.Error{Op: engine.OpGetMapping, Index: name, Err: engine.ErrIndexNotFound}
		}
		return engine.Mapping{}, decodeError(engine.OpGetMapping, name, res)
	}

	var reply map[string]struct {
		Mappings engine.Mapping `json:"mappings"`
	}
	if err := json.NewDecoder(res.Body).Decode(&reply); err != nil {
		return engine.Mapping{}, &engine.Error{Op: engine.OpGetMapping, Index: name, Err: fmt.Errorf("decode reply: %w", err)}
	}
	if m, ok := reply[name]; ok {
		return m.Mappings, nil
	}
	for _, m := range reply {
		return m.Mappings, nil
	}
	return engine.Mapping{}, &engine.Error{Op: engine.OpGetMapping, Index: name, Err: engine.ErrIndexNotFound}
}

// Refresh implements engine.IndexManager.
func (g *Gateway) Refresh(ctx context.Context, name string) error {
	res, err := g.es.Indices.Refresh(
		g.es.Indices.Refresh.WithIndex(name),
		g.es.Indices.Refresh.WithContext(ctx),
	)
	if err != nil {
		return transportError(engine.OpRefresh, name, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return decodeError(engine.OpRefresh, name, res)
	}
	return nil
}
