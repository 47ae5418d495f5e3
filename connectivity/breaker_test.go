package connectivity

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("transient failure")

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(WithBreakerThreshold(2), WithBreakerResetTimeout(time.Hour))

	if !cb.Allow() {
		t.Fatal("breaker should start closed")
	}
	cb.RecordFailure()
	if !cb.Allow() {
		t.Fatal("breaker should stay closed below threshold")
	}
	cb.RecordFailure()
	if cb.Allow() {
		t.Fatal("breaker should open at threshold")
	}
	if cb.State() != BreakerOpen {
		t.Errorf("state = %v, want BreakerOpen", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	cb := NewCircuitBreaker(
		WithBreakerThreshold(1),
		WithBreakerResetTimeout(time.Minute),
		WithBreakerHalfOpenMax(1),
		WithBreakerClock(clock),
	)

	cb.RecordFailure()
	if cb.Allow() {
		t.Fatal("breaker should be open")
	}

	now = now.Add(time.Minute + time.Second)
	if !cb.Allow() {
		t.Fatal("breaker should allow a probe call after reset timeout")
	}
	if cb.State() != BreakerHalfOpen {
		t.Errorf("state = %v, want BreakerHalfOpen", cb.State())
	}

	cb.RecordSuccess()
	if cb.State() != BreakerClosed {
		t.Errorf("state = %v, want BreakerClosed after half-open success", cb.State())
	}
}

func TestRetry_StopsOnCircuitOpen(t *testing.T) {
	cb := NewCircuitBreaker(WithBreakerThreshold(1), WithBreakerResetTimeout(time.Hour))
	cb.RecordFailure() // trip it open before the first call

	attempts := 0
	call := Guarded(cb, "svc", func(context.Context) error {
		attempts++
		return nil
	})

	err := Retry(context.Background(), 3, time.Millisecond, nil, call)
	if err == nil {
		t.Fatal("expected ErrCircuitOpen")
	}
	if attempts != 0 {
		t.Errorf("attempts = %d, want 0 (breaker should reject before calling)", attempts)
	}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	cb := NewCircuitBreaker()
	calls := 0
	call := Guarded(cb, "svc", func(context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})

	if err := Retry(context.Background(), 3, time.Millisecond, nil, call); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if cb.State() != BreakerClosed {
		t.Errorf("state = %v, want BreakerClosed after eventual success", cb.State())
	}
}
