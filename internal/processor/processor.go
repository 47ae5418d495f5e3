// Package processor implements the ordered transformations applied to
// each Item by the pipeline orchestrator (spec.md §4.2-§4.9): Identity,
// Extract, Clean, Chunk, Embed, Analyze, Assemble.
package processor

import (
	"context"

	"github.com/geelink/docingest/internal/item"
)

// Processor is one ordered transformation over an Item. Process returns a
// partial field update that the orchestrator merges into the Item; it
// never mutates its argument.
type Processor interface {
	Order() int
	Name() string
	Process(ctx context.Context, it item.Item) (item.FieldUpdate, error)
}

// Canonical order values (spec.md §4.2).
const (
	OrderIdentity = 5
	OrderExtract  = 10
	OrderClean    = 20
	OrderChunk    = 30
	OrderEmbed    = 40
	OrderAnalyze  = 50
	OrderAssemble = 100
)

// cloneMetadata returns a shallow copy of an Item's metadata map so
// processors can add keys without mutating the Item in place
// (spec.md §3 invariant 4's no-in-place-mutation discipline, extended
// here to metadata for the same reason).
func cloneMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+4)
	for k, v := range m {
		out[k] = v
	}
	return out
}
