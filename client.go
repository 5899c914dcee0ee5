package tubesearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/roxby/tubesearch/internal/bulk"
	"github.com/roxby/tubesearch/internal/engine"
	"github.com/roxby/tubesearch/internal/engine/elastic"
	"github.com/roxby/tubesearch/internal/engine/embedded"
	"github.com/roxby/tubesearch/internal/index"
	"github.com/roxby/tubesearch/internal/index/blacklist"
	"github.com/roxby/tubesearch/internal/index/searches"
	"github.com/roxby/tubesearch/internal/index/videos"
	"github.com/roxby/tubesearch/internal/kv"
	"github.com/roxby/tubesearch/internal/metrics"
	"github.com/roxby/tubesearch/internal/query"
	"github.com/roxby/tubesearch/internal/repository/transcache"
	chiTransport "github.com/roxby/tubesearch/internal/transport/chi"
	openaiTransport "github.com/roxby/tubesearch/internal/transport/openai"
	"github.com/roxby/tubesearch/internal/upsert"
	healthuc "github.com/roxby/tubesearch/internal/usecase/health"
	searchuc "github.com/roxby/tubesearch/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 30 * time.Second
	defaultRetryOnConflict  = 3
	defaultTranslateModel   = "gpt-4o-mini"
)

// Client is the tubesearch SDK entry point.
type Client struct {
	gw        engine.Gateway
	cache     *kv.Store
	blacklist *blacklist.Index
	searches  *searches.Index
	videos    *videos.Index
	search    *searchuc.Service
	health    *healthuc.Service
	logger    *zap.Logger
}

// New creates a Client and waits for its search engine to answer.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		readinessTimeout: defaultReadinessTimeout,
		retryOnConflict:  defaultRetryOnConflict,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	raw, err := openEngine(cfg)
	if err != nil {
		return nil, err
	}
	gw := engine.NewCachedMappings(engine.NewInstrumented(raw, cfg.logger), 0, 0)

	c := &Client{gw: gw, logger: cfg.logger}
	if err := c.wire(cfg); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func openEngine(cfg *clientConfig) (engine.Gateway, error) {
	if cfg.gateway != nil {
		return cfg.gateway, nil
	}

	switch cfg.driver {
	case driverElasticsearch:
		g, err := elastic.New(elastic.Config{
			Addresses: cfg.addresses,
			Username:  cfg.username,
			Password:  cfg.password,
			APIKey:    cfg.apiKey,
		}, cfg.logger)
		if err != nil {
			return nil, fmt.Errorf("tubesearch: create elasticsearch gateway: %w", err)
		}
		if err := g.WaitForReady(context.Background(), cfg.readinessTimeout); err != nil {
			_ = g.Close()
			return nil, fmt.Errorf("tubesearch: search engine not ready: %w", err)
		}
		return g, nil
	case driverEmbedded:
		opts := []embedded.Option{
			embedded.WithScript(upsert.ScriptID, upsert.Apply),
			embedded.WithSortScript(videos.RatingScriptID, videos.Rating),
			embedded.WithLogger(cfg.logger),
		}
		if cfg.dataDir != "" {
			opts = append(opts, embedded.WithJournal(cfg.dataDir))
		}
		e, err := embedded.Open(opts...)
		if err != nil {
			return nil, fmt.Errorf("tubesearch: open embedded engine: %w", err)
		}
		return e, nil
	case "":
		return nil, errors.New("tubesearch: search engine required (use WithElasticsearch or WithEmbedded)")
	default:
		return nil, fmt.Errorf("tubesearch: unknown driver %q", cfg.driver)
	}
}

func (c *Client) wire(cfg *clientConfig) error {
	batcher := bulk.New(c.gw, c.logger).WithChunkSize(cfg.chunkSize)
	if cfg.policy != "" {
		p, err := bulk.ParsePolicy(string(cfg.policy))
		if err != nil {
			return fmt.Errorf("tubesearch: %w", err)
		}
		batcher = batcher.WithPolicy(p)
	}

	common := []index.Option{
		index.WithBatcher(batcher),
		index.WithRetryOnConflict(cfg.retryOnConflict),
		index.WithLogger(c.logger),
	}
	named := func(name string) []index.Option {
		if name == "" {
			return common
		}
		return append(slices.Clone(common), index.WithName(name))
	}

	c.blacklist = blacklist.New(c.gw, named(cfg.blacklistName)...)
	c.searches = searches.New(c.gw, named(cfg.searchesName)...)
	c.videos = videos.New(c.gw, named(cfg.videosName)...)
	if cfg.minimumShouldMatch != "" {
		c.videos.WithQueryOptions(query.WithMinimumShouldMatch(cfg.minimumShouldMatch))
	}

	translator, checker, err := c.newTranslator(cfg)
	if err != nil {
		return err
	}

	c.search = searchuc.New(c.videos).
		WithRecorder(c.searches, c.blacklist).
		WithDefaultSize(cfg.defaultSize).
		WithLogger(c.logger)
	if translator != nil {
		c.search.WithTranslator(translator)
	}

	var cache healthuc.Pinger
	if c.cache != nil {
		cache = c.cache
	}
	c.health = healthuc.New(c.gw, cache, checker).WithTimeout(cfg.healthTimeout)
	return nil
}

// newTranslator builds the query translator, cached when a cache store is configured.
// Both results are nil when translation is off.
func (c *Client) newTranslator(cfg *clientConfig) (Translator, healthuc.TranslatorChecker, error) {
	inner := cfg.translator
	if inner == nil && cfg.openAI != nil {
		model := cfg.openAI.model
		if model == "" {
			model = defaultTranslateModel
		}
		inner = openaiTransport.NewTranslator(&openaiTransport.Config{
			APIKey:  cfg.openAI.apiKey,
			BaseURL: cfg.openAI.baseURL,
			Model:   model,
			Logger:  c.logger,
		})
	}
	if inner == nil {
		return nil, nil, nil
	}

	var checker healthuc.TranslatorChecker
	if hc, ok := inner.(healthuc.TranslatorChecker); ok {
		checker = hc
	}

	if len(cfg.cacheAddrs) == 0 {
		return inner, checker, nil
	}

	store, err := kv.NewStore(kv.Config{Addrs: cfg.cacheAddrs, Password: cfg.cachePassword})
	if err != nil {
		return nil, nil, fmt.Errorf("tubesearch: create translation cache: %w", err)
	}
	if err := store.WaitForReady(context.Background(), cfg.readinessTimeout); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("tubesearch: translation cache not ready: %w", err)
	}
	c.cache = store

	return transcache.New(inner, store, cfg.cacheTTL, metrics.TranslateCacheTotal, c.logger), checker, nil
}

// Close releases the engine and the cache connection.
func (c *Client) Close() error {
	if c.cache != nil {
		c.cache.Close()
	}
	if c.gw == nil {
		return nil
	}
	if err := c.gw.Close(); err != nil {
		return fmt.Errorf("close engine: %w", err)
	}
	return nil
}

// Ping checks search engine connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.gw.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Bootstrap creates every missing index and returns the names it created.
func (c *Client) Bootstrap(ctx context.Context) ([]string, error) {
	created, err := index.EnsureAll(ctx, c.blacklist, c.searches, c.videos)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return created, nil
}

// Blacklist returns the blacklist index.
func (c *Client) Blacklist() *BlacklistIndex { return c.blacklist }

// Searches returns the search statistics index.
func (c *Client) Searches() *SearchesIndex { return c.searches }

// Videos returns the video catalogue index.
func (c *Client) Videos() *VideosIndex { return c.videos }

// Search runs a catalogue search, translating and recording the query as configured.
func (c *Client) Search(ctx context.Context, req SearchRequest) Response[SearchResult] {
	return c.search.Search(ctx, req)
}

// Health probes the engine, the cache and the translator.
func (c *Client) Health(ctx context.Context) HealthReport {
	return c.health.Check(ctx)
}

// Handler returns the HTTP API over this client. Empty apiKeys disable authentication.
func (c *Client) Handler(apiKeys ...string) http.Handler {
	return chiTransport.NewServer(chiTransport.Deps{
		Blacklist: c.blacklist,
		Searches:  c.searches,
		Videos:    c.videos,
		Search:    c.search,
		Health:    c.health,
		APIKeys:   apiKeys,
		Logger:    c.logger,
	}).Handler()
}
