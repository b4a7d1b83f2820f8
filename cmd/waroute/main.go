package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/waroute/waroute/internal/api"
	"github.com/waroute/waroute/internal/config"
	"github.com/waroute/waroute/internal/proxy"
	"github.com/waroute/waroute/internal/registry"
	"github.com/waroute/waroute/internal/registry/memory"
	"github.com/waroute/waroute/internal/registry/sqlite"
	"github.com/waroute/waroute/internal/resolver"
	"github.com/waroute/waroute/internal/server"
	syncer "github.com/waroute/waroute/internal/sync"
	"github.com/waroute/waroute/internal/telemetry"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize OpenTelemetry
	shutdownTracer, err := telemetry.InitTracer("waroute", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open route store: %v", err)
	}
	defer store.Close()

	res := resolver.New(store)
	fwd := proxy.New(cfg.Proxy.UpstreamTimeout, logger)
	syncJob := syncer.New(store, cfg.Sync.SourceURL, cfg.Sync.Interval, logger)

	srv := server.New(cfg.Server.Port, cfg.Server.RequestTimeout, logger)
	api.New(store, res, fwd, syncJob, cfg.Webhook.VerifyToken, logger).Mount(srv.Router)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if syncJob.Enabled() {
		go syncJob.Run(ctx)
		logger.Info("route sync enabled",
			slog.String("source", cfg.Sync.SourceURL),
			slog.Duration("interval", cfg.Sync.Interval),
		)
	}

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server stopped", slog.String("error", err.Error()))
			cancel()
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received, stopping")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

func openStore(cfg *config.Config) (registry.Store, error) {
	switch cfg.Storage.Type {
	case "memory":
		return memory.New(), nil
	default:
		if path := cfg.Storage.SQLite.Path; path != "" {
			_ = os.MkdirAll(filepath.Dir(path), 0o755)
		}
		return sqlite.New(cfg.Storage.SQLite.Path)
	}
}
