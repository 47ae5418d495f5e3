package httpapi

import (
	"log/slog"

	"github.com/geelink/docingest/internal/capability"
	"github.com/geelink/docingest/internal/config"
	"github.com/geelink/docingest/internal/ingesterr"
	"github.com/geelink/docingest/internal/pipeline"
	"github.com/geelink/docingest/internal/processor"
	"github.com/geelink/docingest/internal/sink"
)

// providerEndpoints are the base URLs for each named provider (spec.md
// §6). Ali's DashScope chat and embedding surface is OpenAI-wire-compatible,
// so "ali" shares the same adapter as "openai". Google's chat completions
// endpoint is too, but its embedContent API is not, so "google" gets its
// own Embedder (see embedderFor) while sharing the OpenAI-compat Analyzer.
var providerEndpoints = map[string]string{
	"openai": "https://api.openai.com",
	"ali":    "https://dashscope.aliyuncs.com/compatible-mode",
	"google": "https://generativelanguage.googleapis.com",
}

// embedderFor builds an Embedder for the named provider, or nil and an
// error if the provider is unrecognized (InvalidInput) or its API key is
// absent (NotConfigured). An empty provider means "no embedding requested" and is not an
// error - the Embed processor degrades gracefully on a nil Embedder.
// "local" is special-cased: it has no API key and no fixed endpoint,
// instead reading LOCAL_MODEL_PATH as the self-hosted server's URL.
func (s *Server) embedderFor(provider string) (capability.Embedder, string, error) {
	if provider == "" {
		return nil, "", nil
	}
	if provider == "local" {
		if s.Config.LocalModelPath == "" {
			return nil, "", &ingesterr.NotConfigured{What: "provider local has no LOCAL_MODEL_PATH configured"}
		}
		return capability.NewLocalEmbedder(s.Config.LocalModelPath, ""), "", nil
	}

	endpoint, ok := providerEndpoints[provider]
	if !ok {
		return nil, "", &ingesterr.InvalidInput{Reason: "unsupported provider: " + provider}
	}
	if !s.Config.ProviderConfigured(provider) {
		return nil, "", &ingesterr.NotConfigured{What: "provider " + provider + " has no api key configured"}
	}

	// Google's embedContent API isn't OpenAI-wire-compatible (unlike its
	// chat completions endpoint), so it gets its own adapter; openai and
	// ali share NewOpenAICompatEmbedder.
	if provider == "google" {
		model := s.Config.Google.EmbeddingModel
		return capability.NewGoogleEmbedder(capability.EmbedderConfig{
			Endpoint:     endpoint,
			APIKey:       s.Config.Google.APIKey,
			DefaultModel: model,
		}), model, nil
	}

	var apiKey, model string
	switch provider {
	case "openai":
		apiKey, model = s.Config.OpenAI.APIKey, s.Config.OpenAI.EmbeddingModel
	case "ali":
		apiKey, model = s.Config.Ali.APIKey, s.Config.Ali.EmbeddingModel
	}

	return capability.NewOpenAICompatEmbedder(capability.EmbedderConfig{
		Endpoint:     endpoint,
		APIKey:       apiKey,
		DefaultModel: model,
	}), model, nil
}

// analyzerFor mirrors embedderFor for the Analyze processor's LLM calls.
func (s *Server) analyzerFor(provider string) capability.Analyzer {
	if provider == "" || !s.Config.ProviderConfigured(provider) {
		return nil
	}
	endpoint, ok := providerEndpoints[provider]
	if !ok {
		return nil
	}
	var apiKey string
	switch provider {
	case "openai":
		apiKey = s.Config.OpenAI.APIKey
	case "ali":
		apiKey = s.Config.Ali.APIKey
	case "google":
		apiKey = s.Config.Google.APIKey
	}
	return capability.NewOpenAICompatAnalyzer(capability.AnalyzerConfig{Endpoint: endpoint, APIKey: apiKey})
}

// extractorFor returns the Tika-compatible remote extractor, or nil if
// TIKA_SERVICE_URL isn't configured - the Extract processor falls back to
// its local parser in that case.
func (s *Server) extractorFor() capability.Extractor {
	if s.Config.TikaServiceURL == "" {
		return nil
	}
	return capability.NewHTTPExtractor(capability.ExtractorConfig{
		Endpoint: s.Config.TikaServiceURL,
		Timeout:  s.Config.TikaServiceTimeout,
		Logger:   s.Logger,
	})
}

// BuildRegistry wires the canonical processor chain (Identity, Extract,
// Clean, Chunk, Embed, Analyze, Assemble) for a single request, scoped to
// its own provider/source_system so concurrent requests never share
// mutable processor state (spec.md §5's stateless-processor invariant).
func (s *Server) BuildRegistry(sourceSystem, provider string) (*pipeline.Registry, error) {
	embedder, model, err := s.embedderFor(provider)
	if err != nil {
		return nil, err
	}

	return pipeline.NewRegistry(s.Logger,
		processor.Identity{DefaultSourceSystem: sourceSystem},
		processor.Extract{Extractor: s.extractorFor(), LocalFallback: s.DocPipe},
		processor.Clean{Embedder: embedder, EmbedModel: model},
		processor.Chunk{},
		processor.Embed{Embedder: embedder, Model: model},
		processor.Analyze{Analyzer: s.analyzerFor(provider), Logger: s.Logger},
		processor.Assemble{},
	), nil
}

// BuildSinks wires the terminal Solr/vector sinks from configuration. A
// sink with no configured base URL is simply omitted rather than wired in
// as a guaranteed-failing no-op.
func (s *Server) BuildSinks() []pipeline.Sink {
	var sinks []pipeline.Sink
	if s.Config.SolrURL != "" {
		sinks = append(sinks, sink.SolrSink{BaseURL: s.Config.SolrURL, Collection: s.Config.SolrCollection})
	}
	if s.Config.VectorURL != "" {
		sinks = append(sinks, sink.VectorSink{BaseURL: s.Config.VectorURL, Collection: s.Config.VectorCollection})
	}
	return sinks
}

func logger(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
