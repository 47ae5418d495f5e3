package pipeline

import (
	"context"
	"testing"

	"github.com/geelink/docingest/docpipe"
	"github.com/geelink/docingest/internal/processor"
	"github.com/geelink/docingest/internal/source"
)

// TestRun_Base64RoundTripThroughFullRegistry drives spec.md §8 scenario
// (a) end to end: a base64 source with no provider configured must still
// yield one Item with a single chunk equal to the decoded content, via
// the local docpipe fallback (no Tika configured).
func TestRun_Base64RoundTripThroughFullRegistry(t *testing.T) {
	reg := NewRegistry(nil,
		processor.Identity{},
		processor.Extract{LocalFallback: docpipe.New(docpipe.Config{})},
		processor.Clean{},
		processor.Chunk{},
		processor.Embed{},
		processor.Analyze{},
		processor.Assemble{},
	)

	src := source.Base64{Content: "aGVsbG8gd29ybGQ="} // "hello world"

	summary, err := Run(context.Background(), src, reg, nil, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(summary.Items))
	}

	s := summary.Items[0]
	if s.Status != "ok" {
		t.Fatalf("status = %q, want ok (error: %s)", s.Status, s.Error)
	}
	if s.ChunkCount != 1 {
		t.Errorf("chunk_count = %d, want 1", s.ChunkCount)
	}
	if s.EmbeddingCount != 0 {
		t.Errorf("embedding_count = %d, want 0 (no provider configured)", s.EmbeddingCount)
	}
}
