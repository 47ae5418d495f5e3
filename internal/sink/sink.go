// Package sink implements the terminal Sinks of spec.md §6: thin HTTP
// JSON clients that persist an Item's assembled documents.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/geelink/docingest/internal/ingesterr"
	"github.com/geelink/docingest/internal/item"
)

func postJSON(ctx context.Context, client *http.Client, name, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: marshal payload: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return &ingesterr.UpstreamUnavailable{Processor: name, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &ingesterr.UpstreamUnavailable{Processor: name, Cause: fmt.Errorf("status %d: %s", resp.StatusCode, detail)}
	}
	return nil
}

// SolrSink POSTs an Item's solr_docs (the Assemble parent record plus its
// per-chunk siblings) to a Solr update endpoint.
type SolrSink struct {
	BaseURL    string // e.g. https://solr.internal:8983
	Collection string
	HTTPClient *http.Client
}

func (s SolrSink) Name() string { return "solr" }

func (s SolrSink) Write(ctx context.Context, it item.Item) error {
	if len(it.SolrDocs) == 0 {
		return nil
	}
	client := s.httpClient()
	url := fmt.Sprintf("%s/solr/%s/update?commit=true", s.BaseURL, s.Collection)
	return postJSON(ctx, client, "solr", url, it.SolrDocs)
}

func (s SolrSink) httpClient() *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

// VectorSink upserts an Item's vector_docs (per-chunk records carrying
// _gl_vector) into a named vector collection via a thin HTTP JSON POST.
type VectorSink struct {
	BaseURL    string
	Collection string
	HTTPClient *http.Client
}

func (s VectorSink) Name() string { return "vector" }

func (s VectorSink) Write(ctx context.Context, it item.Item) error {
	if len(it.VectorDocs) == 0 {
		return nil
	}
	client := s.httpClient()
	url := fmt.Sprintf("%s/collections/%s/upsert", s.BaseURL, s.Collection)
	return postJSON(ctx, client, "vector", url, it.VectorDocs)
}

func (s VectorSink) httpClient() *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}
