// Command ingestworker drains the Redis-backed queue behind POST
// /upload_async, running each dequeued job through the same orchestrator
// contract the synchronous HTTP handlers use, and publishing its result
// as internal/queue's Result record (readable with Queue.GetResult; the
// HTTP API has no route that reads it).
package main

import (
	"context"
	"encoding/json"
	"log/slog"
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
	if !cfg.AsyncConfigured() {
		logger.Error("ingestworker requires REDIS_BROKER_URL")
		os.Exit(1)
	}
	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		logger.Error("state dir", "error", err)
		os.Exit(1)
	}

	brokerOpts, err := redis.ParseURL(cfg.RedisBrokerURL)
	if err != nil {
		logger.Error("redis broker url", "error", err)
		os.Exit(1)
	}
	broker := redis.NewClient(brokerOpts)

	backend := broker
	if cfg.RedisBackendURL != "" && cfg.RedisBackendURL != cfg.RedisBrokerURL {
		backendOpts, err := redis.ParseURL(cfg.RedisBackendURL)
		if err != nil {
			logger.Error("redis backend url", "error", err)
			os.Exit(1)
		}
		backend = redis.NewClient(backendOpts)
	}

	q, err := queue.New(broker, backend, "")
	if err != nil {
		logger.Error("queue", "error", err)
		os.Exit(1)
	}

	srv := httpapi.NewServer(cfg, nil, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("ingestworker starting")
	for {
		select {
		case <-ctx.Done():
			logger.Info("ingestworker stopped")
			return
		default:
		}

		job, err := q.Dequeue(ctx, 5*time.Second)
		if err != nil {
			logger.Warn("dequeue", "error", err)
			continue
		}
		if job == nil {
			continue
		}

		runJob(ctx, srv, q, *job, logger)
	}
}

func runJob(ctx context.Context, srv *httpapi.Server, q *queue.Queue, job queue.Job, logger *slog.Logger) {
	logger.Info("job started", "job_id", job.ID)
	if err := q.PublishResult(ctx, queue.Result{JobID: job.ID, Status: queue.StatusRunning, UpdatedAt: time.Now().UTC()}); err != nil {
		logger.Warn("publish running status", "job_id", job.ID, "error", err)
	}

	summary, err := srv.RunJobRequest(ctx, job.Request)
	result := queue.Result{JobID: job.ID, UpdatedAt: time.Now().UTC()}
	if err != nil {
		result.Status = queue.StatusFailed
		result.Error = err.Error()
		logger.Warn("job failed", "job_id", job.ID, "error", err)
	} else {
		data, marshalErr := json.Marshal(summary)
		if marshalErr != nil {
			result.Status = queue.StatusFailed
			result.Error = marshalErr.Error()
		} else {
			result.Status = queue.StatusCompleted
			result.Summary = data
		}
		logger.Info("job completed", "job_id", job.ID)
	}

	if err := q.PublishResult(ctx, result); err != nil {
		logger.Warn("publish result", "job_id", job.ID, "error", err)
	}
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
