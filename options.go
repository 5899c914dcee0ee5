package tubesearch

import (
	"time"

	"go.uber.org/zap"

	"github.com/roxby/tubesearch/internal/engine"
)

const (
	driverElasticsearch = "elasticsearch"
	driverEmbedded      = "embedded"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver    string // "elasticsearch" or "embedded"
	addresses []string
	username  string
	password  string
	apiKey    string
	dataDir   string
	gateway   engine.Gateway

	readinessTimeout time.Duration
	retryOnConflict  int

	blacklistName string
	searchesName  string
	videosName    string

	chunkSize          int
	policy             BulkPolicy
	defaultSize        int
	minimumShouldMatch string

	translator    Translator
	openAI        *openAIConfig
	cacheAddrs    []string
	cachePassword string
	cacheTTL      time.Duration
	healthTimeout time.Duration
	logger        *zap.Logger
}

type openAIConfig struct {
	apiKey  string
	baseURL string
	model   string
}

// WithElasticsearch connects the client to an Elasticsearch cluster.
func WithElasticsearch(addresses ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverElasticsearch
		c.addresses = addresses
	})
}

// WithBasicAuth sets Elasticsearch basic auth credentials.
func WithBasicAuth(username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
		c.password = password
	})
}

// WithAPIKey sets the Elasticsearch API key.
func WithAPIKey(key string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = key
	})
}

// WithEmbedded runs the embedded bleve engine in-process.
// A non-empty dataDir keeps a write journal there and replays it on start;
// an empty one keeps everything in memory.
func WithEmbedded(dataDir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverEmbedded
		c.dataDir = dataDir
	})
}

// WithGateway uses an already opened engine gateway. The client takes ownership and closes it.
func WithGateway(gw engine.Gateway) Option {
	return optionFunc(func(c *clientConfig) {
		c.gateway = gw
	})
}

// WithReadinessTimeout bounds the wait for the engine and the cache on New.
// Default: 30s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readinessTimeout = d
	})
}

// WithRetryOnConflict sets the retry hint sent with counter updates. Default: 3.
func WithRetryOnConflict(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.retryOnConflict = n
	})
}

// WithIndexNames overrides the physical index names. Empty names keep the defaults.
func WithIndexNames(blacklist, searches, videos string) Option {
	return optionFunc(func(c *clientConfig) {
		c.blacklistName = blacklist
		c.searchesName = searches
		c.videosName = videos
	})
}

// WithBulk configures bulk writes: items per request and the partial failure policy.
// Defaults: 500 items, count policy.
func WithBulk(chunkSize int, policy BulkPolicy) Option {
	return optionFunc(func(c *clientConfig) {
		c.chunkSize = chunkSize
		c.policy = policy
	})
}

// WithDefaultSize sets the page size of catalogue searches that leave it unset.
func WithDefaultSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultSize = n
	})
}

// WithMinimumShouldMatch sets the multi-field match threshold of catalogue searches.
// Default: "75%".
func WithMinimumShouldMatch(msm string) Option {
	return optionFunc(func(c *clientConfig) {
		c.minimumShouldMatch = msm
	})
}

// WithTranslator translates non-English queries before searching.
func WithTranslator(t Translator) Option {
	return optionFunc(func(c *clientConfig) {
		c.translator = t
	})
}

// WithOpenAITranslator translates queries with an OpenAI-compatible chat API.
// Ignored when WithTranslator is also given.
func WithOpenAITranslator(apiKey, baseURL, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAI = &openAIConfig{apiKey: apiKey, baseURL: baseURL, model: model}
	})
}

// WithTranslationCache caches translations in Redis or Valkey.
// A non-positive ttl keeps entries for a week.
func WithTranslationCache(addrs []string, password string, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheAddrs = addrs
		c.cachePassword = password
		c.cacheTTL = ttl
	})
}

// WithHealthTimeout bounds each component probe of Health. Default: 3s.
func WithHealthTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.healthTimeout = d
	})
}

// WithLogger enables structured logging. Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}
