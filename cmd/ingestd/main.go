// Command ingestd is docingest's HTTP server entry point: it loads
// configuration, wires the optional async queue, and serves the
// ingestion API of spec.md §6 until told to shut down.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/geelink/docingest/internal/config"
	"github.com/geelink/docingest/internal/httpapi"
	"github.com/geelink/docingest/internal/queue"
)

func main() {
	logLevel := env("LOG_LEVEL", "info")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(logLevel)}))
	slog.SetDefault(logger)

	cfg, err := config.Load(env("CONFIG_FILE", ""))
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		logger.Error("state dir", "error", err)
		os.Exit(1)
	}

	q, err := buildQueue(cfg)
	if err != nil {
		logger.Error("queue", "error", err)
		os.Exit(1)
	}

	srv := httpapi.NewServer(cfg, q, logger)

	httpSrv := &http.Server{
		Addr:              ":" + env("PORT", "8080"),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("ingestd starting", "addr", httpSrv.Addr, "app_name", cfg.AppName)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("ingestd shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("ingestd stopped")
}

// buildQueue wires the async path behind /upload_async, or returns a nil
// Queue (handled gracefully by the HTTP handler) if no broker is
// configured.
func buildQueue(cfg *config.Config) (*queue.Queue, error) {
	if !cfg.AsyncConfigured() {
		return nil, nil
	}
	brokerOpts, err := redis.ParseURL(cfg.RedisBrokerURL)
	if err != nil {
		return nil, err
	}
	broker := redis.NewClient(brokerOpts)

	backend := broker
	if cfg.RedisBackendURL != "" && cfg.RedisBackendURL != cfg.RedisBrokerURL {
		backendOpts, err := redis.ParseURL(cfg.RedisBackendURL)
		if err != nil {
			return nil, err
		}
		backend = redis.NewClient(backendOpts)
	}

	return queue.New(broker, backend, "")
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
