// Package elastic implements the engine gateway against an Elasticsearch cluster.
package elastic

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"go.uber.org/zap"

	"github.com/roxby/tubesearch/internal/engine"
)

// Compile-time check: Gateway implements engine.Gateway.
var _ engine.Gateway = (*Gateway)(nil)

// Config holds connection parameters for a cluster.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	APIKey    string
	// MaxRetries bounds transport-level retries on 502/503/504. Zero keeps the client default.
	MaxRetries int
	// RefreshWrites makes single-document writes visible to search before returning.
	RefreshWrites bool
	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// Gateway implements engine.Gateway via the go-elasticsearch low-level API.
type Gateway struct {
	es      *elasticsearch.Client
	refresh bool
	logger  *zap.Logger
}

// New creates a gateway. It does not contact the cluster; use WaitForReady for that.
func New(cfg Config, logger *zap.Logger) (*Gateway, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("addresses is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:  cfg.Addresses,
		Username:   cfg.Username,
		Password:   cfg.Password,
		APIKey:     cfg.APIKey,
		MaxRetries: cfg.MaxRetries,
		Transport:  cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Gateway{es: es, refresh: cfg.RefreshWrites, logger: logger}, nil
}

// Ping checks connectivity.
func (g *Gateway) Ping(ctx context.Context) error {
	res, err := g.es.Ping(g.es.Ping.WithContext(ctx))
	if err != nil {
		return transportError(engine.OpPing, "", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return decodeError(engine.OpPing, "", res)
	}
	return nil
}

// Close is a no-op: the HTTP client holds no resources that need releasing.
func (g *Gateway) Close() error {
	return nil
}

// WaitForReady polls Ping until the cluster responds or timeout expires.
func (g *Gateway) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := g.Ping(ctx); err == nil {
		return nil
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for search engine: %w", ctx.Err())
		case <-ticker.C:
			err := g.Ping(ctx)
			if err == nil {
				return nil
			}
			g.logger.Debug("Search engine not ready", zap.Error(err))
		}
	}
}

func (g *Gateway) refreshParam(explicit bool) string {
	if explicit || g.refresh {
		return "true"
	}
	return "false"
}
