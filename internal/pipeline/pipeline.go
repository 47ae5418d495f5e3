package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/geelink/docingest/internal/item"
	"github.com/geelink/docingest/internal/metrics"
)

// Source yields one or more Items to be ingested. A single-document source
// (file, text, base64) returns a one-element slice; a list-producing
// source (IMAP, web crawl, URI-over-directory) returns as many as it
// discovered. Returning an empty, non-nil slice is a valid "nothing to do"
// result and is not an error (spec.md §7's SourceFailure is reserved for
// connect/login/select failures, not empty results).
type Source interface {
	Name() string
	Read(ctx context.Context) ([]item.Item, error)
}

// Sink persists a fully-processed Item. Implementations must not retain
// references into Item's slices/maps beyond the call, since the
// orchestrator reuses no buffers across Items but does not defensively
// copy on the sink's behalf either.
type Sink interface {
	Name() string
	Write(ctx context.Context, it item.Item) error
}

// ItemSummary is the per-Item result shape of spec.md §4.1. It never
// carries raw embedding vectors or full text.
type ItemSummary struct {
	FileName       string `json:"file_name"`
	DocID          string `json:"doc_id"`
	Status         string `json:"status"` // "ok" | "failed"
	ChunkCount     int    `json:"chunk_count"`
	EmbeddingCount int    `json:"embedding_count"`
	EmbeddingDim   int    `json:"embedding_dim"`
	Source         string `json:"source"`
	ElapsedMS      int64  `json:"elapsed_ms"`
	Error          string `json:"error,omitempty"`
}

// RunSummary is the orchestrator's return value: one entry per Item the
// source yielded, in the order the source yielded them.
type RunSummary struct {
	Items []ItemSummary `json:"items"`
}

// Options configures a single Run.
type Options struct {
	// MaxWorkers bounds concurrent Item processing for multi-Item sources.
	// Default: 10 (spec.md §4.1 step 4).
	MaxWorkers int
	Logger     *slog.Logger
}

func (o *Options) defaults() {
	if o.MaxWorkers <= 0 {
		o.MaxWorkers = 10
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Run executes source.Read, then drives every yielded Item through the
// registry's ordered processors and finally every sink, bounded to
// opts.MaxWorkers concurrent Items. Each Item's summary is stored at the
// Item's own index, so the returned summary is in source order whatever
// order the Items finish in.
func Run(ctx context.Context, src Source, reg *Registry, sinks []Sink, opts Options) (RunSummary, error) {
	opts.defaults()

	metrics.RunsInFlight.Inc()
	defer metrics.RunsInFlight.Dec()

	items, err := src.Read(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	results := make([]ItemSummary, len(items))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(opts.MaxWorkers)

	for i, it := range items {
		i, it := i, it
		group.Go(func() error {
			results[i] = runItem(gctx, it, reg, sinks, src.Name(), opts.Logger)
			return nil
		})
	}
	// errors from runItem are captured per-Item, never escalated past the
	// Item boundary: every goroutine returns nil, so group.Wait returns nil
	// and a cancelled context shows up in the affected Items' summaries.
	if err := group.Wait(); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{Items: results}, nil
}

func runItem(ctx context.Context, it item.Item, reg *Registry, sinks []Sink, sourceName string, logger *slog.Logger) ItemSummary {
	start := time.Now()
	summary := ItemSummary{FileName: it.FileName, Source: sourceName}
	defer func() {
		metrics.ObserveItem(sourceName, summary.Status, time.Since(start), summary.ChunkCount)
	}()

	for _, p := range reg.Processors() {
		update, err := p.Process(ctx, it)
		if err != nil {
			logger.Warn("pipeline: processor failed", "processor", p.Name(), "file_name", it.FileName, "error", err)
			summary.Status = "failed"
			summary.Error = err.Error()
			summary.DocID = it.DocID
			summary.ElapsedMS = time.Since(start).Milliseconds()
			return summary
		}
		if err := it.Merge(update); err != nil {
			logger.Warn("pipeline: processor contract violated", "processor", p.Name(), "file_name", it.FileName, "error", err)
			summary.Status = "failed"
			summary.Error = err.Error()
			summary.DocID = it.DocID
			summary.ElapsedMS = time.Since(start).Milliseconds()
			return summary
		}
	}

	for _, s := range sinks {
		if err := s.Write(ctx, it); err != nil {
			logger.Warn("pipeline: sink failed", "sink", s.Name(), "file_name", it.FileName, "error", err)
			summary.Status = "failed"
			summary.Error = err.Error()
			summary.DocID = it.DocID
			summary.ElapsedMS = time.Since(start).Milliseconds()
			return summary
		}
	}

	summary.Status = "ok"
	summary.DocID = it.DocID
	summary.ChunkCount = len(it.Chunks)
	summary.EmbeddingCount = len(it.Embeddings)
	if len(it.Embeddings) > 0 {
		summary.EmbeddingDim = len(it.Embeddings[0].Vector)
	}
	summary.ElapsedMS = time.Since(start).Milliseconds()
	return summary
}
