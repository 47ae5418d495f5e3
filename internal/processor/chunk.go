package processor

import (
	"context"

	"github.com/geelink/docingest/internal/chunkspan"
	"github.com/geelink/docingest/internal/item"
)

// Chunk splits clean_text into overlapping chunks (order=30).
type Chunk struct {
	ChunkSize    int
	ChunkOverlap int
}

func (Chunk) Name() string { return "chunk" }
func (Chunk) Order() int   { return OrderChunk }

func (p Chunk) Process(_ context.Context, it item.Item) (item.FieldUpdate, error) {
	chunks := chunkspan.Split(it.CleanText, chunkspan.Options{
		ChunkSize:    p.ChunkSize,
		ChunkOverlap: p.ChunkOverlap,
	})
	if chunks == nil {
		chunks = []string{}
	}
	return item.FieldUpdate{
		item.FieldChunks: chunks,
	}, nil
}
