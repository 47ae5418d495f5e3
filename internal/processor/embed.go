package processor

import (
	"context"
	"fmt"

	"github.com/geelink/docingest/internal/capability"
	"github.com/geelink/docingest/internal/item"
)

// Embed calls the Embedder capability once per chunk (order=40). Any
// per-chunk failure aborts the Item; if no embedder is configured, the
// output is an empty embeddings list rather than an error.
type Embed struct {
	Embedder capability.Embedder
	Model    string
}

func (Embed) Name() string { return "embed" }
func (Embed) Order() int   { return OrderEmbed }

func (p Embed) Process(ctx context.Context, it item.Item) (item.FieldUpdate, error) {
	if p.Embedder == nil {
		return item.FieldUpdate{item.FieldEmbeddings: []item.Embedding{}}, nil
	}

	embeddings := make([]item.Embedding, 0, len(it.Chunks))
	for i, chunkText := range it.Chunks {
		vec, err := p.Embedder.Embed(ctx, chunkText, p.Model)
		if err != nil {
			return nil, fmt.Errorf("embed: chunk %d: %w", i, err)
		}
		embeddings = append(embeddings, item.Embedding{Text: chunkText, Vector: vec})
	}

	return item.FieldUpdate{item.FieldEmbeddings: embeddings}, nil
}
