// Package httpapi exposes the ingestion pipeline over HTTP (spec.md §6):
// POST /upload, /ingest, /email/ingest_email, /upload_async. Handlers are
// thin - they decode the request into Source(s), build a per-request
// registry and sink set, and hand off to pipeline.Run.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/geelink/docingest/docpipe"
	"github.com/geelink/docingest/internal/config"
	"github.com/geelink/docingest/internal/queue"
	"github.com/geelink/docingest/shield"
)

// Server holds the dependencies every handler needs. It carries no
// per-request state; Server is safe to share across concurrent requests.
type Server struct {
	Config  *config.Config
	Queue   *queue.Queue // nil if async mode isn't configured
	Logger  *slog.Logger
	DocPipe *docpipe.Pipeline // local extraction fallback, used when no Tika service is configured
}

// NewServer returns a Server with a default logger if none is given. It
// constructs a docpipe.Pipeline once and reuses it across every request's
// registry, so the Extract processor always has a local fallback even
// when TIKA_SERVICE_URL is unset.
func NewServer(cfg *config.Config, q *queue.Queue, log *slog.Logger) *Server {
	log = logger(log)
	return &Server{
		Config:  cfg,
		Queue:   q,
		Logger:  log,
		DocPipe: docpipe.New(docpipe.Config{Logger: log}),
	}
}

// Router builds the chi mux exposing the ingestion surface.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(shield.TraceID)
	r.Use(shield.SecurityHeaders(shield.DefaultHeaders()))
	r.Use(shield.MaxBody(s.Config.MaxUploadBytes))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/upload", s.handleUpload)
	r.Post("/ingest", s.handleIngest)
	r.Post("/email/ingest_email", s.handleIngestEmail)
	r.Post("/upload_async", s.handleUploadAsync)

	return r
}
