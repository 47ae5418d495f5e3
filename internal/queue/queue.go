// Package queue is the async job path behind POST /upload_async: a thin
// Redis-backed enqueue/dequeue wrapper, not a general task scheduler. A
// Job carries the same request payload the synchronous handler would run
// inline; cmd/ingestworker drains it and runs the identical orchestrator
// contract (spec.md §6).
//
// Unlike a Streams-based task queue with consumer groups and claim/retry
// bookkeeping, a single list is enough here: one logical queue, one
// worker pool pulling from it, no per-task scheduling or priority tiers.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultQueueKey = "docingest:jobs"
	resultKeyPrefix = "docingest:result:"
	resultTTL       = 24 * time.Hour
)

// Job is an enqueued pipeline run request. Request is the opaque,
// already-validated JSON body httpapi would otherwise run synchronously;
// the worker is the only consumer that needs to know its shape.
type Job struct {
	ID         string          `json:"id"`
	Request    json.RawMessage `json:"request"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Status is the lifecycle state of a Job's result record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Result is what cmd/ingestworker publishes after running a Job, read back
// with GetResult. The HTTP API has no route that reads it.
type Result struct {
	JobID     string          `json:"job_id"`
	Status    Status          `json:"status"`
	Summary   json.RawMessage `json:"summary,omitempty"`
	Error     string          `json:"error,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Queue is a Redis-backed job queue: jobs push/pop through the broker
// client's list, results are stored as TTL'd keys on the backend client.
// Broker and backend are often the same Redis instance pointed at by
// separate env vars (REDIS_BROKER_URL, REDIS_BACKEND_URL), but Queue
// keeps them as distinct clients so they can be split across instances.
type Queue struct {
	broker   *redis.Client
	backend  *redis.Client
	queueKey string
}

// New builds a Queue. queueKey defaults to "docingest:jobs" when empty.
func New(broker, backend *redis.Client, queueKey string) (*Queue, error) {
	if broker == nil {
		return nil, errors.New("queue: broker client is required")
	}
	if backend == nil {
		backend = broker
	}
	if queueKey == "" {
		queueKey = defaultQueueKey
	}
	return &Queue{broker: broker, backend: backend, queueKey: queueKey}, nil
}

// Enqueue pushes a job onto the broker list and records a pending result
// placeholder on the backend so GetResult never 404s on a job that simply
// hasn't been picked up yet.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	if job.ID == "" {
		return errors.New("queue: job id is required")
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: marshal job: %w", err)
	}
	if err := q.broker.LPush(ctx, q.queueKey, data).Err(); err != nil {
		return fmt.Errorf("queue: enqueue: %w", err)
	}
	return q.PublishResult(ctx, Result{JobID: job.ID, Status: StatusPending, UpdatedAt: job.EnqueuedAt})
}

// Dequeue blocks (up to timeout, 0 meaning forever) waiting for the next
// job. It returns (nil, nil) on timeout or context cancellation, mirroring
// the sources' convention of a nil/nil "nothing to do" result rather than
// an error for an empty queue.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	res, err := q.broker.BRPop(ctx, timeout, q.queueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil
		}
		return nil, fmt.Errorf("queue: dequeue: %w", err)
	}
	// BRPop returns [key, value].
	if len(res) != 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("queue: decode job: %w", err)
	}
	return &job, nil
}

// PublishResult writes (or overwrites) a job's result record with a TTL,
// so stale results eventually fall off without explicit cleanup.
func (q *Queue) PublishResult(ctx context.Context, result Result) error {
	if result.UpdatedAt.IsZero() {
		return errors.New("queue: result UpdatedAt is required")
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("queue: marshal result: %w", err)
	}
	if err := q.backend.Set(ctx, resultKeyPrefix+result.JobID, data, resultTTL).Err(); err != nil {
		return fmt.Errorf("queue: publish result: %w", err)
	}
	return nil
}

// GetResult retrieves a job's current result record. It returns (nil, nil)
// if no record exists (unknown job id, or its TTL has expired).
func (q *Queue) GetResult(ctx context.Context, jobID string) (*Result, error) {
	data, err := q.backend.Get(ctx, resultKeyPrefix+jobID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("queue: get result: %w", err)
	}
	var result Result
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("queue: decode result: %w", err)
	}
	return &result, nil
}

// Ping checks broker connectivity, used by health checks.
func (q *Queue) Ping(ctx context.Context) error {
	return q.broker.Ping(ctx).Err()
}
