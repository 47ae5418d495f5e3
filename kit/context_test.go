package kit

import (
	"context"
	"testing"
)

func TestTransport(t *testing.T) {
	ctx := context.Background()
	if got := GetTransport(ctx); got != "http" {
		t.Fatalf("default transport = %q, want http", got)
	}
	ctx = WithTransport(ctx, "async_queue")
	if got := GetTransport(ctx); got != "async_queue" {
		t.Fatalf("transport = %q, want async_queue", got)
	}
}

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	if got := GetRequestID(ctx); got != "" {
		t.Fatalf("default request id = %q, want empty", got)
	}
	ctx = WithRequestID(ctx, "req-1")
	if got := GetRequestID(ctx); got != "req-1" {
		t.Fatalf("request id = %q, want req-1", got)
	}
}

func TestTraceID(t *testing.T) {
	ctx := context.Background()
	ctx = WithTraceID(ctx, "abcd1234")
	if got := GetTraceID(ctx); got != "abcd1234" {
		t.Fatalf("trace id = %q, want abcd1234", got)
	}
}

func TestRemoteAddr(t *testing.T) {
	ctx := context.Background()
	ctx = WithRemoteAddr(ctx, "10.0.0.1:4321")
	if got := GetRemoteAddr(ctx); got != "10.0.0.1:4321" {
		t.Fatalf("remote addr = %q, want 10.0.0.1:4321", got)
	}
}

func TestContextIsolation(t *testing.T) {
	base := context.Background()
	withTransport := WithTransport(base, "async_queue")
	if got := GetTraceID(withTransport); got != "" {
		t.Fatalf("trace id leaked from unrelated key: %q", got)
	}
	if got := GetTransport(base); got != "http" {
		t.Fatalf("WithTransport mutated parent context, got %q", got)
	}
}
