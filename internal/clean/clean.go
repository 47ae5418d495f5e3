// Package clean implements the multi-stage text normalizer backing the
// Clean processor (spec.md §4.5): decode fallback, encoding repair,
// optional HTML-to-Markdown, layout/noise removal, compliance masking,
// optional semantic dedup, finalization, and a minimum-length gate.
package clean

import (
	"context"
	"log/slog"

	"github.com/geelink/docingest/internal/capability"
)

// Options configures which optional stages run and their parameters.
type Options struct {
	// IsHTML indicates the extractor emitted HTML; stage 3 (HTML-to-Markdown)
	// only runs when true.
	IsHTML bool

	// SourceURL is passed through to the Markdown converter for relative
	// link/image resolution; may be empty.
	SourceURL string

	// SemanticDedup enables stage 6. Requires a non-nil Embedder; when the
	// embedder is absent or any embed call fails, the stage is skipped
	// (with a warning log) rather than failing the Item (spec.md §4.5.6).
	SemanticDedup bool
	Embedder      capability.Embedder
	EmbedModel    string

	// MinLength is the stage-8 length gate; at or below this many
	// characters, clean_text is emptied. Defaults to 30 (spec.md default)
	// when zero.
	MinLength int

	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.MinLength == 0 {
		o.MinLength = 30
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Clean runs raw_text (or binary, via the decode-fallback stage) through
// the full pipeline and returns clean_text.
func Clean(ctx context.Context, rawText string, hasRawText bool, binary []byte, opts Options) string {
	opts.defaults()

	text := rawText
	if !hasRawText && len(binary) > 0 {
		text = DecodeFallback(binary)
	}

	text = RepairEncoding(text)

	if opts.IsHTML {
		text = HTMLToMarkdown(text, opts.SourceURL)
	}

	text = RemoveNoise(text)
	text = MaskCompliance(text)

	if opts.SemanticDedup && opts.Embedder != nil {
		deduped, err := SemanticDedup(ctx, text, opts.Embedder, opts.EmbedModel)
		if err != nil {
			opts.Logger.WarnContext(ctx, "clean: semantic dedup disabled after failure", "error", err)
		} else {
			text = deduped
		}
	}

	text = Finalize(text)

	if len([]rune(text)) <= opts.MinLength {
		return ""
	}
	return text
}
