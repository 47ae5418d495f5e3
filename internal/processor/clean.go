package processor

import (
	"context"
	"strings"

	"github.com/geelink/docingest/internal/capability"
	"github.com/geelink/docingest/internal/clean"
	"github.com/geelink/docingest/internal/item"
)

// Clean runs the multi-stage text normalizer over raw_text, producing
// clean_text (order=20).
type Clean struct {
	SemanticDedup bool
	Embedder      capability.Embedder
	EmbedModel    string
}

func (Clean) Name() string { return "clean" }
func (Clean) Order() int   { return OrderClean }

func (p Clean) Process(ctx context.Context, it item.Item) (item.FieldUpdate, error) {
	isHTML := strings.Contains(it.RawText, "<html") || strings.Contains(it.RawText, "<body")

	cleanText := clean.Clean(ctx, it.RawText, it.HasRawText, it.Binary, clean.Options{
		IsHTML:        isHTML,
		SourceURL:     it.SourcePath,
		SemanticDedup: p.SemanticDedup,
		Embedder:      p.Embedder,
		EmbedModel:    p.EmbedModel,
	})

	return item.FieldUpdate{
		item.FieldCleanText: cleanText,
	}, nil
}
