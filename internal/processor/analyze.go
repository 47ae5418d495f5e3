package processor

import (
	"context"
	"log/slog"

	"github.com/geelink/docingest/internal/capability"
	"github.com/geelink/docingest/internal/item"
)

// Analyze calls the Analyzer capability to produce an LLM-derived
// business_glossary annotation (order=50). Empty input yields an empty
// string; since this processor is always optional in the registry
// (spec.md §4.2), provider failure logs a warning and degrades to an
// empty result rather than aborting the Item.
type Analyze struct {
	Analyzer capability.Analyzer
	Task     string // default "business_glossary"
	Logger   *slog.Logger
}

func (Analyze) Name() string { return "analyze" }
func (Analyze) Order() int   { return OrderAnalyze }

func (p Analyze) Process(ctx context.Context, it item.Item) (item.FieldUpdate, error) {
	meta := cloneMetadata(it.Metadata)

	if it.CleanText == "" || p.Analyzer == nil {
		meta["business_glossary"] = ""
		return item.FieldUpdate{item.FieldMetadata: meta}, nil
	}

	task := p.Task
	if task == "" {
		task = "business_glossary"
	}

	glossary, err := p.Analyzer.Analyze(ctx, it.CleanText, task)
	if err != nil {
		if p.Logger != nil {
			p.Logger.WarnContext(ctx, "analyze: provider call failed, continuing without glossary", "error", err)
		}
		glossary = ""
	}

	meta["business_glossary"] = glossary
	return item.FieldUpdate{item.FieldMetadata: meta}, nil
}
