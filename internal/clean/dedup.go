package clean

import (
	"context"
	"fmt"
	"strings"

	"github.com/geelink/docingest/horosembed"
	"github.com/geelink/docingest/internal/capability"
)

// dedupThreshold is the max-cosine-similarity cutoff above which a
// paragraph is dropped as a near-duplicate of one already kept.
const dedupThreshold = 0.94

// SemanticDedup greedily keeps a paragraph only if its maximum cosine
// similarity against already-kept paragraphs is below dedupThreshold
// (spec.md §4.5 stage 6). Paragraphs are split on blank lines. On the
// first embedding failure the stage aborts and returns an error so the
// caller can disable it silently for this Item.
func SemanticDedup(ctx context.Context, text string, embedder capability.Embedder, model string) (string, error) {
	paragraphs := splitParagraphs(text)
	if len(paragraphs) == 0 {
		return text, nil
	}

	kept := make([]string, 0, len(paragraphs))
	keptVecs := make([][]float32, 0, len(paragraphs))

	for _, p := range paragraphs {
		vec, err := embedder.Embed(ctx, p, model)
		if err != nil {
			return "", fmt.Errorf("clean: embed paragraph for dedup: %w", err)
		}

		maxSim := 0.0
		for _, kv := range keptVecs {
			if sim := horosembed.CosineSimilarity(vec, kv); sim > maxSim {
				maxSim = sim
			}
		}
		if maxSim < dedupThreshold {
			kept = append(kept, p)
			keptVecs = append(keptVecs, vec)
		}
	}

	return strings.Join(kept, "\n\n"), nil
}

func splitParagraphs(text string) []string {
	raw := strings.Split(text, "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
