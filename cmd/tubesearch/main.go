package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roxby/tubesearch"
	"github.com/roxby/tubesearch/internal/bulk"
	"github.com/roxby/tubesearch/internal/config"
	logpkg "github.com/roxby/tubesearch/internal/logger"
)

// app is the state shared by every command after PersistentPreRunE.
type app struct {
	env    string
	cfg    config.Config
	logger *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "tubesearch",
		Short: "Video catalogue search over Elasticsearch",
		Long: `tubesearch manages the blacklist, search statistics and video catalogue
indexes and serves them over an HTTP API.

Example usage:
  tubesearch bootstrap               # Create missing indexes
  tubesearch serve                   # Run the HTTP API
  tubesearch search --tube t1 fox    # Search one tube's catalogue`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.env, "env", config.GetEnv(), "config environment (config/<env>.yaml)")

	root.AddCommand(
		newServeCmd(a),
		newBootstrapCmd(a),
		newSearchCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.NewLogger(a.env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// newClient builds the SDK client described by the loaded configuration.
func (a *app) newClient() (*tubesearch.Client, error) {
	return tubesearch.New(clientOptions(a.cfg, a.logger)...)
}

func clientOptions(cfg config.Config, logger *zap.Logger) []tubesearch.Option {
	e := cfg.Engine
	opts := []tubesearch.Option{
		tubesearch.WithLogger(logger),
		tubesearch.WithReadinessTimeout(e.Timeout()),
		tubesearch.WithRetryOnConflict(e.RetryOnConflict),
		tubesearch.WithIndexNames(cfg.Indexes.Blacklist, cfg.Indexes.Searches, cfg.Indexes.Videos),
		tubesearch.WithBulk(cfg.Bulk.ChunkSize, bulk.Policy(cfg.Bulk.Policy)),
		tubesearch.WithDefaultSize(cfg.Search.DefaultSize),
		tubesearch.WithMinimumShouldMatch(cfg.Search.MinimumShouldMatch),
	}

	switch e.Driver {
	case config.DriverEmbedded:
		opts = append(opts, tubesearch.WithEmbedded(e.DataDir))
	default:
		opts = append(opts,
			tubesearch.WithElasticsearch(e.Addresses...),
			tubesearch.WithBasicAuth(e.Username, e.Password),
			tubesearch.WithAPIKey(e.APIKey),
		)
	}

	if t := cfg.Translate; t.Enabled {
		opts = append(opts, tubesearch.WithOpenAITranslator(t.APIKey, t.BaseURL, t.Model))
		if len(cfg.Cache.Addrs) > 0 {
			opts = append(opts, tubesearch.WithTranslationCache(
				cfg.Cache.Addrs, cfg.Cache.Password, time.Duration(t.CacheTTLSec)*time.Second,
			))
		}
	}
	return opts
}
