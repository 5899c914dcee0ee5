package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roxby/tubesearch/internal/metrics"
	"github.com/roxby/tubesearch/internal/version"
)

func newServeCmd(a *app) *cobra.Command {
	var skipBootstrap bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context(), skipBootstrap)
		},
	}
	cmd.Flags().BoolVar(&skipBootstrap, "skip-bootstrap", false, "do not create missing indexes on start")
	return cmd
}

func (a *app) serve(ctx context.Context, skipBootstrap bool) error {
	cfg, logger := a.cfg, a.logger

	logger.Info("Starting tubesearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", a.env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("engine_driver", cfg.Engine.Driver),
		zap.Strings("engine_addresses", cfg.Engine.Addresses),
		zap.Bool("translate", cfg.Translate.Enabled),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEngineMetrics()
	metrics.RegisterTranslateMetrics()

	client, err := a.newClient()
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("Error closing client", zap.Error(err))
		}
	}()
	logger.Info("Connected to search engine")

	if !skipBootstrap {
		created, err := client.Bootstrap(ctx)
		if err != nil {
			return err
		}
		logger.Info("Indexes ready", zap.Strings("created", created))
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      client.Handler(cfg.HTTP.APIKeys...),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
