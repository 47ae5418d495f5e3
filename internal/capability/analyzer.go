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
)

// Analyzer produces an LLM-derived annotation for a chunk of text under a
// named task. Tasks recognized by the Analyze processor (spec.md §4.8):
// "summary", "keywords", "business_glossary".
type Analyzer interface {
	Analyze(ctx context.Context, text, task string) (string, error)
}

// taskPrompts mirrors original_source/app/ai_providers/openai_llm_client.py's
// per-task Chinese-language prompt templates, with a generic fallback for
// unrecognized tasks.
var taskPrompts = map[string]string{
	"summary":           "请用一到两句话概括以下内容的要点：\n\n%s",
	"keywords":          "请从以下内容中提取五到十个关键词，用逗号分隔：\n\n%s",
	"business_glossary": "请从以下内容中识别业务术语，并给出简短定义，格式为“术语：定义”，每行一个：\n\n%s",
}

func promptFor(task, text string) string {
	tmpl, ok := taskPrompts[task]
	if !ok {
		tmpl = "请分析以下内容：\n\n%s"
	}
	return fmt.Sprintf(tmpl, text)
}

// AnalyzerConfig configures an OpenAI-chat-completions-compatible LLM client.
type AnalyzerConfig struct {
	Endpoint     string
	APIKey       string
	DefaultModel string
	Timeout      time.Duration
}

func (c *AnalyzerConfig) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
}

type openAICompatAnalyzer struct {
	cfg     AnalyzerConfig
	client  *http.Client
	breaker *connectivity.CircuitBreaker
}

// NewOpenAICompatAnalyzer returns an Analyzer speaking the OpenAI
// /v1/chat/completions wire format.
func NewOpenAICompatAnalyzer(cfg AnalyzerConfig) Analyzer {
	cfg.defaults()
	return &openAICompatAnalyzer{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: connectivity.NewCircuitBreaker(),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (a *openAICompatAnalyzer) Analyze(ctx context.Context, text, task string) (string, error) {
	var result string
	call := connectivity.Guarded(a.breaker, "analyzer", func(ctx context.Context) error {
		r, err := a.callAPI(ctx, text, task)
		result = r
		return err
	})
	if err := connectivity.Retry(ctx, 1, 300*time.Millisecond, nil, call); err != nil {
		return "", err
	}
	return result, nil
}

func (a *openAICompatAnalyzer) callAPI(ctx context.Context, text, task string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: a.cfg.DefaultModel,
		Messages: []chatMessage{
			{Role: "user", Content: promptFor(task, text)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("analyze: marshal request: %w", err)
	}

	url := strings.TrimRight(a.cfg.Endpoint, "/") + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("analyze: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("analyze: HTTP POST %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("analyze: HTTP %d from %s: %s", resp.StatusCode, url, string(respBody))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("analyze: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("analyze: no choices returned from %s", url)
	}
	return out.Choices[0].Message.Content, nil
}

// NoopAnalyzer always returns an error. When no LLM provider is
// configured the server wires a nil Analyzer, not this type; the Analyze
// processor skips its stage only for a nil Analyzer.
type NoopAnalyzer struct{}

func (NoopAnalyzer) Analyze(context.Context, string, string) (string, error) {
	return "", fmt.Errorf("analyze: no provider configured")
}
