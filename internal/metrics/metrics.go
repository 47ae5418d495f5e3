// Package metrics exposes docingest's pipeline behavior to Prometheus:
// per-Item outcome counts and processing latency, scraped from the
// /metrics endpoint registered alongside the ingestion API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docingest",
		Name:      "items_total",
		Help:      "Items processed by the pipeline, by source and terminal status.",
	}, []string{"source", "status"})

	ItemDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "docingest",
		Name:      "item_duration_seconds",
		Help:      "Time to run a single Item through every processor and sink.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})

	ChunksPerItem = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "docingest",
		Name:      "item_chunk_count",
		Help:      "Chunks produced per successfully processed Item.",
		Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
	})

	RunsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "docingest",
		Name:      "runs_in_flight",
		Help:      "pipeline.Run invocations currently executing.",
	})
)

// ObserveItem records a completed Item's outcome and latency.
func ObserveItem(source, status string, elapsed time.Duration, chunkCount int) {
	ItemsTotal.WithLabelValues(source, status).Inc()
	ItemDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	if status == "ok" {
		ChunksPerItem.Observe(float64(chunkCount))
	}
}
