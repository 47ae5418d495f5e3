// Package connectivity provides resilience primitives — a circuit breaker
// and an exponential-backoff retry helper — for the outbound HTTP calls
// docingest's capability adapters make to the extractor, embedder,
// analyzer, and sink services (spec.md §5's timeout/cancellation rules).
package connectivity

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Call is an outbound operation a Retry or CircuitBreaker wraps.
type Call func(ctx context.Context) error

// Retry runs fn, retrying on failure with exponential backoff. It respects
// context cancellation between attempts and never retries a circuit-open
// rejection, since a retry can't help that.
//
//   - maxRetries: maximum number of retry attempts (0 = no retry)
//   - baseBackoff: initial wait between retries, doubled each attempt
//   - logger: used to log retry attempts (nil for silent retries)
func Retry(ctx context.Context, maxRetries int, baseBackoff time.Duration, logger *slog.Logger, fn Call) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return lastErr
		}
		var breakerOpen *ErrCircuitOpen
		if errors.As(err, &breakerOpen) {
			return err
		}

		if attempt < maxRetries {
			wait := baseBackoff * (1 << uint(attempt))
			if logger != nil {
				logger.WarnContext(ctx, "retrying call",
					"attempt", attempt+1, "max_retries", maxRetries,
					"backoff_ms", wait.Milliseconds(), "error", err)
			}
			select {
			case <-ctx.Done():
				return lastErr
			case <-time.After(wait):
			}
		}
	}
	return lastErr
}

// Guarded runs fn through a CircuitBreaker: rejected immediately with
// ErrCircuitOpen while the breaker is open, otherwise recording the
// outcome against it.
func Guarded(cb *CircuitBreaker, service string, fn Call) Call {
	return func(ctx context.Context) error {
		if !cb.Allow() {
			return &ErrCircuitOpen{Service: service}
		}
		err := fn(ctx)
		if err != nil {
			cb.RecordFailure()
		} else {
			cb.RecordSuccess()
		}
		return err
	}
}
