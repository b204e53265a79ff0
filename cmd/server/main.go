package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/servicepulse/internal/config"
	"github.com/JonMunkholm/servicepulse/internal/core"
	"github.com/JonMunkholm/servicepulse/internal/logging"
	"github.com/JonMunkholm/servicepulse/internal/store"
	"github.com/JonMunkholm/servicepulse/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("configuration loaded", "config", cfg.String())

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kv, err := store.Open(ctx, store.Config{
		Driver:          cfg.Store.Driver,
		Path:            cfg.Store.Path,
		URL:             cfg.Store.URL,
		MaxConns:        cfg.Store.MaxConns,
		MinConns:        cfg.Store.MinConns,
		MaxConnLifetime: cfg.Store.MaxConnLifetime,
		MaxConnIdleTime: cfg.Store.MaxConnIdleTime,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := kv.Close(); err != nil {
			logger.Warn("store close failed", "error", err)
		}
	}()
	logger.Info("store opened", "driver", cfg.Store.Driver)

	session := core.NewSession(store.NewDatasetStore(kv), core.SessionConfig{
		MaxFileSize:       cfg.Upload.MaxFileSize,
		AllowedExtensions: cfg.Upload.AllowedExtensions,
		OperationWait:     cfg.Upload.OperationWait,
		CostMargin:        cfg.Validation.CostMargin,
		HistoryLimit:      cfg.Upload.HistoryLimit,
		Logger:            logger,
	})

	// A dataset that cannot be restored should not keep the server down;
	// the operator can upload again.
	if err := session.Load(ctx); err != nil {
		logger.Warn("failed to restore dataset", "error", err)
	} else if info := session.Info(); info.Rows > 0 {
		logger.Info("session restored", "rows", info.Rows, "issues", info.Issues)
	}

	server := web.NewServer(session, cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if session.Gate().Busy() {
			logger.Info("waiting for in-flight change to complete")
		}
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	return g.Wait()
}
