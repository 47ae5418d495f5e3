// Package pipeline implements the Source -> Processor -> Sink orchestrator
// (spec.md §4.1) and the processor registry (spec.md §4.2).
package pipeline

import (
	"log/slog"
	"sort"

	"github.com/geelink/docingest/internal/processor"
)

// Registry holds the set of processors a pipeline run will execute,
// already resolved in dependency order. Unlike the reference
// implementation's dynamic plugin discovery, processors here are
// statically constructed by the caller (internal/httpapi's BuildRegistry) and
// simply handed to NewRegistry for ordering - Go favors explicit
// composition over runtime discovery.
type Registry struct {
	processors []processor.Processor
}

// NewRegistry sorts processors ascending by Order, breaking ties by
// registration order (stable sort), per spec.md §4.1 step 2. A nil
// processor in the input is logged and skipped rather than treated as a
// registry-wide failure, matching spec.md §4.2's per-processor discovery
// rule.
func NewRegistry(logger *slog.Logger, processors ...processor.Processor) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	kept := make([]processor.Processor, 0, len(processors))
	for _, p := range processors {
		if p == nil {
			logger.Warn("pipeline: skipping nil processor during registry construction")
			continue
		}
		kept = append(kept, p)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Order() < kept[j].Order()
	})

	return &Registry{processors: kept}
}

// Processors returns the ordered processor chain.
func (r *Registry) Processors() []processor.Processor {
	return r.processors
}
