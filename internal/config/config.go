package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roxby/tubesearch/internal/bulk"
)

// Engine drivers.
const (
	DriverElasticsearch = "elasticsearch"
	DriverEmbedded      = "embedded"
)

// Config holds the tubesearch configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Engine    EngineConfig    `yaml:"engine"`
	Indexes   IndexesConfig   `yaml:"indexes"`
	Bulk      BulkConfig      `yaml:"bulk"`
	Search    SearchConfig    `yaml:"search"`
	Translate TranslateConfig `yaml:"translate"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	APIKeys         []string `yaml:"api_keys"`
}

// EngineConfig holds search engine connection settings.
type EngineConfig struct {
	Driver           string   `yaml:"driver"` // elasticsearch, embedded (default: elasticsearch)
	Addresses        []string `yaml:"addresses"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	APIKey           string   `yaml:"api_key"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	RetryOnConflict  int      `yaml:"retry_on_conflict"`
	DataDir          string   `yaml:"data_dir"` // embedded journal; empty keeps everything in memory
}

// IndexesConfig holds the physical index names.
type IndexesConfig struct {
	Blacklist string `yaml:"blacklist"`
	Searches  string `yaml:"searches"`
	Videos    string `yaml:"videos"`
}

// BulkConfig holds bulk write settings.
type BulkConfig struct {
	ChunkSize int    `yaml:"chunk_size"`
	Policy    string `yaml:"policy"` // count, report, strict (default: count)
}

// SearchConfig holds catalogue search settings.
type SearchConfig struct {
	DefaultSize        int    `yaml:"default_size"`
	MinimumShouldMatch string `yaml:"minimum_should_match"`
}

// TranslateConfig holds query translation settings.
type TranslateConfig struct {
	Enabled     bool    `yaml:"enabled"`
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	CacheTTLSec int     `yaml:"cache_ttl_sec"`
}

// CacheConfig holds the translation cache store settings. No addrs disables the cache.
type CacheConfig struct {
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
}

// Timeout returns the engine readiness timeout as a duration.
func (e EngineConfig) Timeout() time.Duration {
	return time.Duration(e.ReadinessTimeout) * time.Second
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands ${VAR} references in data, decodes it, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Engine.Driver == "" {
		c.Engine.Driver = DriverElasticsearch
	}
	if c.Engine.ReadinessTimeout <= 0 {
		c.Engine.ReadinessTimeout = 30
	}
	if c.Engine.RetryOnConflict <= 0 {
		c.Engine.RetryOnConflict = 3
	}
	if c.Indexes.Blacklist == "" {
		c.Indexes.Blacklist = "blacklist"
	}
	if c.Indexes.Searches == "" {
		c.Indexes.Searches = "searches"
	}
	if c.Indexes.Videos == "" {
		c.Indexes.Videos = "videos"
	}
	if c.Bulk.ChunkSize <= 0 {
		c.Bulk.ChunkSize = bulk.DefaultChunkSize
	}
	if c.Bulk.Policy == "" {
		c.Bulk.Policy = string(bulk.PolicyCount)
	}
	if c.Search.DefaultSize <= 0 {
		c.Search.DefaultSize = 100
	}
	if c.Search.MinimumShouldMatch == "" {
		c.Search.MinimumShouldMatch = "75%"
	}
	if c.Translate.Model == "" {
		c.Translate.Model = "gpt-4o-mini"
	}
	if c.Translate.CacheTTLSec <= 0 {
		c.Translate.CacheTTLSec = 7 * 24 * 3600
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Engine.Driver {
	case DriverElasticsearch:
		if len(c.Engine.Addresses) == 0 {
			return fmt.Errorf("engine.addresses is required for the %s driver", DriverElasticsearch)
		}
	case DriverEmbedded:
	default:
		return fmt.Errorf("engine.driver must be %q or %q, got %q", DriverElasticsearch, DriverEmbedded, c.Engine.Driver)
	}
	names := map[string]string{}
	for section, name := range map[string]string{
		"blacklist": c.Indexes.Blacklist,
		"searches":  c.Indexes.Searches,
		"videos":    c.Indexes.Videos,
	} {
		if other, dup := names[name]; dup {
			return fmt.Errorf("indexes.%s and indexes.%s share the name %q", section, other, name)
		}
		names[name] = section
	}
	if _, err := bulk.ParsePolicy(c.Bulk.Policy); err != nil {
		return fmt.Errorf("bulk.policy: %w", err)
	}
	if c.Translate.Enabled && c.Translate.APIKey == "" {
		return fmt.Errorf("translate.api_key is required when translation is enabled")
	}
	return nil
}

// findConfigPath locates the config file, walking up from the working directory.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if dir, err := os.Getwd(); err == nil {
		for {
			if path := filepath.Join(dir, "config", filename); fileExists(path) {
				return path
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
