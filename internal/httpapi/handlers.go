package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"regexp"
	"time"

	"github.com/geelink/docingest/internal/ingesterr"
	"github.com/geelink/docingest/internal/pipeline"
	"github.com/geelink/docingest/internal/queue"
	"github.com/geelink/docingest/internal/source"

	"github.com/google/uuid"
)

const maxUploadMemory = 32 << 20 // buffered in memory before spilling to a temp file

// handleUpload implements POST /upload (spec.md §6): a multipart file
// plus optional metadata JSON, written to a temp path and handed to
// source.File so the rest of the pipeline never special-cases uploads.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, &ingesterr.InvalidInput{Reason: "malformed multipart body", Cause: err})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, &ingesterr.InvalidInput{Reason: "missing file field", Cause: err})
		return
	}
	defer file.Close()

	metadata, err := parseMetadataField(r.FormValue("metadata"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	tmp, err := os.CreateTemp("", "docingest-upload-*-"+sanitizeTempSuffix(header.Filename))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	tmp.Close()

	provider := r.URL.Query().Get("provider")
	sourceSystem := r.URL.Query().Get("source_system")

	reg, err := s.BuildRegistry(sourceSystem, provider)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	src := source.File{Path: tmpPath, UserMetadata: metadata}
	result, err := pipeline.Run(r.Context(), src, reg, s.BuildSinks(), pipeline.Options{Logger: s.Logger})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "completed", "result": result})
}

// handleIngest implements POST /ingest (spec.md §6): a single request
// object or a JSON array of them, each independently routed to its
// matching Source and run through its own provider-scoped registry.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	reqs, err := decodeIngestBody(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	results := make([]pipeline.RunSummary, 0, len(reqs))
	for _, req := range reqs {
		summary, err := s.RunIngestRequest(r.Context(), req)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		results = append(results, summary)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "completed",
		"total_requests": len(reqs),
		"results":        results,
	})
}

// RunIngestRequest builds the Source and provider-scoped registry for a
// single ingestRequest and runs it through the orchestrator.
func (s *Server) RunIngestRequest(ctx context.Context, req ingestRequest) (pipeline.RunSummary, error) {
	src, err := s.BuildSource(req)
	if err != nil {
		return pipeline.RunSummary{}, err
	}
	reg, err := s.BuildRegistry(req.SourceSystem, req.Provider)
	if err != nil {
		return pipeline.RunSummary{}, err
	}
	return pipeline.Run(ctx, src, reg, s.BuildSinks(), pipeline.Options{Logger: s.Logger})
}

// RunJobRequest decodes a queue.Job's raw request body (the same JSON
// shape /ingest accepts for a single object) and runs it, so
// cmd/ingestworker shares the identical orchestrator contract as the
// synchronous /ingest handler instead of reimplementing it.
func (s *Server) RunJobRequest(ctx context.Context, raw []byte) (pipeline.RunSummary, error) {
	var req ingestRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return pipeline.RunSummary{}, &ingesterr.InvalidInput{Reason: "malformed job request", Cause: err}
	}
	return s.RunIngestRequest(ctx, req)
}

// handleIngestEmail implements POST /email/ingest_email (spec.md §6):
// drives the IMAP source against a mailbox and runs every yielded
// message through the same registry/sink pipeline as any other source.
func (s *Server) handleIngestEmail(w http.ResponseWriter, r *http.Request) {
	var req emailIngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, &ingesterr.InvalidInput{Reason: "malformed JSON body", Cause: err})
		return
	}

	reg, err := s.BuildRegistry(req.SourceSystem, req.Provider)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	src := source.IMAP{
		Host:       req.Host,
		Port:       req.Port,
		Username:   req.Username,
		Password:   req.Password,
		Mailbox:    req.Mailbox,
		UseSSL:     true,
		MaxEmails:  req.MaxEmails,
		StateFile:  s.imapStateFile(req.Host, req.Username, req.Mailbox),
		ResetState: req.ResetState,
		Logger:     s.Logger,
	}

	result, err := pipeline.Run(r.Context(), src, reg, s.BuildSinks(), pipeline.Options{Logger: s.Logger})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "completed", "result": result})
}

// handleUploadAsync implements POST /upload_async (spec.md §6): accepts
// the same JSON shape as a single /ingest object, enqueues it unmodified
// and returns immediately - cmd/ingestworker runs the identical
// orchestrator contract on dequeue.
func (s *Server) handleUploadAsync(w http.ResponseWriter, r *http.Request) {
	if s.Queue == nil {
		writeError(w, http.StatusBadRequest, &ingesterr.NotConfigured{What: "async ingestion has no REDIS_BROKER_URL configured"})
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, &ingesterr.InvalidInput{Reason: "cannot read request body", Cause: err})
		return
	}
	var req ingestRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, &ingesterr.InvalidInput{Reason: "malformed JSON body", Cause: err})
		return
	}
	if _, err := s.BuildSource(req); err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	job := queue.Job{ID: uuid.NewString(), Request: json.RawMessage(body), EnqueuedAt: time.Now().UTC()}
	if err := s.Queue.Enqueue(r.Context(), job); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "queued", "task_id": job.ID})
}

type emailIngestRequest struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	Mailbox      string `json:"mailbox"`
	MaxEmails    int    `json:"max_emails"`
	Provider     string `json:"provider"`
	SourceSystem string `json:"source_system"`
	ResetState   bool   `json:"reset_state"`
}

func parseMetadataField(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, &ingesterr.InvalidInput{Reason: "malformed metadata JSON", Cause: err}
	}
	return m, nil
}

func decodeIngestBody(r io.Reader) ([]ingestRequest, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, &ingesterr.InvalidInput{Reason: "cannot read request body", Cause: err}
	}

	var arr []ingestRequest
	if err := json.Unmarshal(body, &arr); err == nil {
		return arr, nil
	}

	var single ingestRequest
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, &ingesterr.InvalidInput{Reason: "malformed JSON body", Cause: err}
	}
	return []ingestRequest{single}, nil
}

var tempSuffixSanitizer = regexp.MustCompile(`[^A-Za-z0-9_.\-]+`)

func sanitizeTempSuffix(name string) string {
	if name == "" {
		return "upload"
	}
	return tempSuffixSanitizer.ReplaceAllString(name, "_")
}

// imapStateFile gives each (host, user, mailbox) tuple its own seen-UID
// state file under StateDir, so concurrent mailboxes never collide.
func (s *Server) imapStateFile(host, username, mailbox string) string {
	key := tempSuffixSanitizer.ReplaceAllString(host+"_"+username+"_"+mailbox, "_")
	return s.Config.StateDir + "/imap_" + key + ".json"
}
