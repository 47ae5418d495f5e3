// Package capability defines the Embedder, Analyzer, and Extractor
// interfaces injected into processors by the registry (spec.md §4.2, §4.9
// design note), plus thin HTTP-based concrete adapters for the providers
// named in spec.md §6 (openai, ali, google).
package capability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/geelink/docingest/connectivity"
	"github.com/geelink/docingest/horosembed"
)

// Embedder converts a chunk of text into a vector using a named model. The
// model argument lets callers override the provider's default per call;
// an empty model means "use the provider's configured default".
type Embedder interface {
	Embed(ctx context.Context, text, model string) ([]float32, error)
}

// EmbedderConfig configures an OpenAI-wire-compatible embedding client. This
// single shape backs both the "openai" and "ali" providers of spec.md §6,
// since Alibaba's Qwen embedding endpoint speaks the same /v1/embeddings
// contract as OpenAI.
type EmbedderConfig struct {
	Endpoint     string // base URL, e.g. "https://api.openai.com" or Ali's compatible endpoint
	APIKey       string
	DefaultModel string
	Timeout      time.Duration
}

func (c *EmbedderConfig) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}

type openAICompatEmbedder struct {
	cfg     EmbedderConfig
	client  *http.Client
	breaker *connectivity.CircuitBreaker
}

// NewOpenAICompatEmbedder returns an Embedder that speaks the OpenAI
// /v1/embeddings wire format. Used for both "openai" and "ali" providers.
func NewOpenAICompatEmbedder(cfg EmbedderConfig) Embedder {
	cfg.defaults()
	return &openAICompatEmbedder{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: connectivity.NewCircuitBreaker(),
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

func (c *openAICompatEmbedder) Embed(ctx context.Context, text, model string) ([]float32, error) {
	if model == "" {
		model = c.cfg.DefaultModel
	}

	var vector []float32
	call := connectivity.Guarded(c.breaker, "embedder", func(ctx context.Context) error {
		v, err := c.callAPI(ctx, model, text)
		vector = v
		return err
	})
	if err := connectivity.Retry(ctx, 2, 200*time.Millisecond, nil, call); err != nil {
		return nil, err
	}
	return vector, nil
}

func (c *openAICompatEmbedder) callAPI(ctx context.Context, model, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: model, Input: []string{text}})
	if err != nil {
		return nil, fmt.Errorf("embed: marshal request: %w", err)
	}

	url := strings.TrimRight(c.cfg.Endpoint, "/") + "/v1/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embed: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed: HTTP POST %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embed: HTTP %d from %s: %s", resp.StatusCode, url, string(respBody))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("embed: decode response: %w", err)
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("embed: no embeddings returned from %s", url)
	}
	return out.Data[0].Embedding, nil
}

// googleEmbedder speaks Google's Generative Language embedContent API.
type googleEmbedder struct {
	cfg    EmbedderConfig
	client *http.Client
}

// NewGoogleEmbedder returns an Embedder backed by the Google Generative
// Language API (models/{model}:embedContent).
func NewGoogleEmbedder(cfg EmbedderConfig) Embedder {
	cfg.defaults()
	return &googleEmbedder{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

type googleEmbedRequest struct {
	Content struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
}

type googleEmbedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

func (g *googleEmbedder) Embed(ctx context.Context, text, model string) ([]float32, error) {
	if model == "" {
		model = g.cfg.DefaultModel
	}
	var reqBody googleEmbedRequest
	reqBody.Content.Parts = append(reqBody.Content.Parts, struct {
		Text string `json:"text"`
	}{Text: text})
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("embed: marshal request: %w", err)
	}

	endpoint := strings.TrimRight(g.cfg.Endpoint, "/")
	url := fmt.Sprintf("%s/v1beta/models/%s:embedContent?key=%s", endpoint, model, g.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embed: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed: HTTP POST google embedContent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embed: HTTP %d from google embedContent: %s", resp.StatusCode, string(respBody))
	}

	var out googleEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("embed: decode response: %w", err)
	}
	return out.Embedding.Values, nil
}

// NoopEmbedder always returns an error. When no provider is requested the
// server wires a nil Embedder, not this type; the Embed processor produces
// an empty embeddings list only for a nil Embedder, and given a
// NoopEmbedder it fails the Item on the first chunk.
type NoopEmbedder struct{}

func (NoopEmbedder) Embed(context.Context, string, string) ([]float32, error) {
	return nil, fmt.Errorf("embed: no provider configured")
}

// localEmbedder adapts horosembed.Embedder (a batching, dimension-autodetecting
// client for self-hosted OpenAI-wire-compatible model servers) to the
// capability.Embedder interface, backing the "local" provider configured
// via LOCAL_MODEL_PATH (spec.md §6).
type localEmbedder struct {
	inner horosembed.Embedder
}

// NewLocalEmbedder returns an Embedder backed by a self-hosted model
// server at endpoint (the value of LOCAL_MODEL_PATH). model is the
// server's model name; an empty model uses the server's default.
func NewLocalEmbedder(endpoint, model string) Embedder {
	return &localEmbedder{inner: horosembed.New(horosembed.Config{
		Endpoint: endpoint,
		Model:    model,
	})}
}

func (l *localEmbedder) Embed(ctx context.Context, text, model string) ([]float32, error) {
	// horosembed.Embedder has no per-call model override; the server-side
	// model is fixed at construction, so a differing per-call model is
	// only honored when it matches what the client was built with.
	return l.inner.Embed(ctx, text)
}
