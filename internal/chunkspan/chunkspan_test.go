package chunkspan

import (
	"strings"
	"testing"
)

func TestSplit_EmptyInputYieldsEmptyList(t *testing.T) {
	if got := Split("", Options{}); got != nil {
		t.Errorf("Split(empty) = %v, want nil", got)
	}
	if got := Split("   ", Options{}); got != nil {
		t.Errorf("Split(whitespace) = %v, want nil", got)
	}
}

func TestSplit_ShortTextIsOneChunk(t *testing.T) {
	got := Split("a short paragraph", Options{ChunkSize: 500, ChunkOverlap: 50})
	if len(got) != 1 {
		t.Fatalf("Split = %d chunks, want 1", len(got))
	}
	if got[0] != "a short paragraph" {
		t.Errorf("Split = %q", got[0])
	}
}

func TestSplit_NoChunkExceedsSize(t *testing.T) {
	text := strings.Repeat("word ", 400)
	chunks := Split(text, Options{ChunkSize: 100, ChunkOverlap: 10})
	for i, c := range chunks {
		if n := len([]rune(c)); n > 100 {
			t.Errorf("chunk %d length %d exceeds chunk size", i, n)
		}
	}
}

func TestSplit_NoEmptyChunks(t *testing.T) {
	text := "para one.\n\npara two.\n\n\npara three."
	chunks := Split(text, Options{ChunkSize: 20, ChunkOverlap: 2})
	for i, c := range chunks {
		if strings.TrimSpace(c) == "" {
			t.Errorf("chunk %d is empty", i)
		}
	}
}

func TestSplit_OverlapPrefixesSubsequentChunks(t *testing.T) {
	text := strings.Repeat("abcdefghij ", 50)
	chunks := Split(text, Options{ChunkSize: 50, ChunkOverlap: 10})
	if len(chunks) < 2 {
		t.Fatal("expected multiple chunks for overlap check")
	}
	prevTail := []rune(chunks[0])
	tailLen := 10
	if tailLen > len(prevTail) {
		tailLen = len(prevTail)
	}
	tail := string(prevTail[len(prevTail)-tailLen:])
	if !strings.HasPrefix(chunks[1], tail) {
		t.Errorf("chunk 1 does not start with overlap of chunk 0: chunk1=%q want prefix=%q", chunks[1], tail)
	}
}

func TestSplit_PrefersParagraphBoundaries(t *testing.T) {
	text := "first paragraph here.\n\nsecond paragraph here."
	chunks := Split(text, Options{ChunkSize: 30, ChunkOverlap: 0})
	if len(chunks) != 2 {
		t.Fatalf("Split = %d chunks, want 2 (one per paragraph)", len(chunks))
	}
}
