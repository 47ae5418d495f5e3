package capability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/geelink/docingest/connectivity"
)

// ExtractResult is the payload returned by the remote extractor for a
// binary document, per spec.md §4.4's Tika-compatible /tika and /meta
// contract.
type ExtractResult struct {
	Text     string
	Metadata map[string]any
}

// Extractor pulls text and metadata out of a binary document. The Extract
// processor (spec.md §4.4) calls this before falling back to the local
// docpipe extractor.
type Extractor interface {
	Extract(ctx context.Context, filename string, binary []byte) (ExtractResult, error)
}

// ExtractorConfig configures a Tika-compatible HTTP extraction service.
type ExtractorConfig struct {
	Endpoint    string // TIKA_SERVICE_URL
	Timeout     time.Duration
	MaxRetries  int
	BaseBackoff time.Duration
	Logger      *slog.Logger
}

func (c *ExtractorConfig) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 250 * time.Millisecond
	}
}

type httpExtractor struct {
	cfg     ExtractorConfig
	client  *http.Client
	breaker *connectivity.CircuitBreaker
}

// NewHTTPExtractor returns an Extractor that PUTs the document body to
// {endpoint}/tika and {endpoint}/meta, retrying transient failures with
// exponential backoff and tripping a circuit breaker after repeated
// failures so a down extractor doesn't add retry latency to every Item.
func NewHTTPExtractor(cfg ExtractorConfig) Extractor {
	cfg.defaults()
	return &httpExtractor{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: connectivity.NewCircuitBreaker(),
	}
}

func (e *httpExtractor) Extract(ctx context.Context, filename string, binary []byte) (ExtractResult, error) {
	var text, metaJSON string

	call := connectivity.Guarded(e.breaker, "extractor", func(ctx context.Context) error {
		t, err := e.put(ctx, "/tika", filename, binary)
		text = t
		return err
	})
	if err := connectivity.Retry(ctx, e.cfg.MaxRetries, e.cfg.BaseBackoff, e.cfg.Logger, call); err != nil {
		return ExtractResult{}, fmt.Errorf("extract: text extraction: %w", err)
	}

	call = connectivity.Guarded(e.breaker, "extractor", func(ctx context.Context) error {
		m, err := e.put(ctx, "/meta", filename, binary)
		metaJSON = m
		return err
	})
	if err := connectivity.Retry(ctx, e.cfg.MaxRetries, e.cfg.BaseBackoff, e.cfg.Logger, call); err != nil {
		return ExtractResult{}, fmt.Errorf("extract: metadata extraction: %w", err)
	}

	var meta map[string]any
	if metaJSON != "" {
		if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
			return ExtractResult{}, fmt.Errorf("extract: decode metadata: %w", err)
		}
	}

	return ExtractResult{Text: text, Metadata: meta}, nil
}

func (e *httpExtractor) put(ctx context.Context, path, filename string, binary []byte) (string, error) {
	url := e.cfg.Endpoint + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(binary))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP PUT %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, url, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return string(body), nil
}

// NoopExtractor always returns an error. When no remote extraction
// service is configured the server wires a nil Extractor, not this type;
// given a NoopExtractor, the Extract processor calls it, gets the error,
// and falls back to the local docpipe extractor.
type NoopExtractor struct{}

func (NoopExtractor) Extract(context.Context, string, []byte) (ExtractResult, error) {
	return ExtractResult{}, fmt.Errorf("extract: no remote extraction service configured")
}
