// Package config loads docingest's runtime configuration: an optional YAML
// file, layered under, then overridden by, every environment variable
// named in spec.md §6.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full set of settings the ingestion service reads at
// startup. Embedding/analysis providers are configured independently so a
// deployment can run with, say, only "openai" keyed and still serve
// requests for the other two providers with NotConfigured errors.
type Config struct {
	AppName string `yaml:"app_name"`
	Version string `yaml:"version"`
	Debug   bool   `yaml:"debug"`

	SolrURL        string `yaml:"solr_url"`
	SolrCollection string `yaml:"solr_collection"`

	VectorURL        string `yaml:"vector_url"`
	VectorCollection string `yaml:"vector_collection"`

	TikaServiceURL     string        `yaml:"tika_service_url"`
	TikaServiceTimeout time.Duration `yaml:"tika_service_timeout"`

	OpenAI OpenAIConfig `yaml:"openai"`
	Ali    AliConfig    `yaml:"ali"`
	Google GoogleConfig `yaml:"google"`

	LocalModelPath string `yaml:"local_model_path"`

	RedisBrokerURL  string `yaml:"redis_broker_url"`
	RedisBackendURL string `yaml:"redis_backend_url"`

	AllowedOrigins []string `yaml:"allowed_origins"`
	SourceSystem   string   `yaml:"source_system"`

	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	StateDir       string `yaml:"state_dir"`
}

// OpenAIConfig holds the openai embedding/analysis provider's settings.
type OpenAIConfig struct {
	APIKey         string `yaml:"api_key"`
	EmbeddingModel string `yaml:"embedding_model"`
}

// AliConfig holds the Alibaba Qwen provider's settings.
type AliConfig struct {
	APIKey         string `yaml:"api_key"`
	EmbeddingModel string `yaml:"embedding_model"`
}

// GoogleConfig holds the Google embedding provider's settings.
type GoogleConfig struct {
	APIKey         string `yaml:"api_key"`
	EmbeddingModel string `yaml:"embedding_model"`
}

// Default returns sane defaults, giving every field a usable zero-config
// value so the service can start with nothing but env vars set.
func Default() *Config {
	return &Config{
		AppName:            "docingest",
		Version:            "dev",
		SolrCollection:     "docs",
		VectorCollection:   "chunks",
		TikaServiceTimeout: 30 * time.Second,
		SourceSystem:       "default",
		MaxUploadBytes:     64 << 20, // 64MiB
		StateDir:           "state",
	}
}

// Load reads an optional YAML file at path (skipped entirely if path is
// empty or the file doesn't exist) into Default(), then applies every
// environment variable named in spec.md §6 on top, env taking precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.AppName = env("APP_NAME", c.AppName)
	c.Version = env("VERSION", c.Version)
	c.Debug = envBool("DEBUG", c.Debug)

	c.SolrURL = env("SOLR_URL", c.SolrURL)
	c.SolrCollection = env("SOLR_COLLECTION", c.SolrCollection)

	c.TikaServiceURL = env("TIKA_SERVICE_URL", c.TikaServiceURL)
	c.TikaServiceTimeout = envDuration("TIKA_SERVICE_TIMEOUT", c.TikaServiceTimeout)

	c.OpenAI.APIKey = env("OPENAI_API_KEY", c.OpenAI.APIKey)
	c.OpenAI.EmbeddingModel = env("OPENAI_EMBEDDING_MODEL", c.OpenAI.EmbeddingModel)

	c.Ali.APIKey = env("ALI_QWEN_API_KEY", c.Ali.APIKey)
	c.Ali.EmbeddingModel = env("ALI_EMBEDDING_MODEL", c.Ali.EmbeddingModel)

	c.Google.APIKey = env("GOOGLE_API_KEY", c.Google.APIKey)
	c.Google.EmbeddingModel = env("GOOGLE_EMBEDDING_MODEL", c.Google.EmbeddingModel)

	c.LocalModelPath = env("LOCAL_MODEL_PATH", c.LocalModelPath)
	c.StateDir = env("STATE_DIR", c.StateDir)

	c.RedisBrokerURL = env("REDIS_BROKER_URL", c.RedisBrokerURL)
	c.RedisBackendURL = env("REDIS_BACKEND_URL", c.RedisBackendURL)

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.AllowedOrigins = splitAndTrim(origins)
	}
	c.SourceSystem = env("SOURCE_SYSTEM", c.SourceSystem)

	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			c.MaxUploadBytes = n
		}
	}
}

// Validate checks the few invariants that hold regardless of which
// providers/sinks a deployment actually enables.
func (c *Config) Validate() error {
	if c.AppName == "" {
		return fmt.Errorf("config: app_name is required")
	}
	if c.TikaServiceTimeout <= 0 {
		return fmt.Errorf("config: tika_service_timeout must be > 0")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("config: max_upload_bytes must be > 0")
	}
	return nil
}

// AsyncConfigured reports whether /upload_async has a broker to enqueue
// onto. Callers return NotConfigured per spec.md §7 when this is false.
func (c *Config) AsyncConfigured() bool {
	return c.RedisBrokerURL != ""
}

// ProviderConfigured reports whether the named embedding/analysis
// provider ("openai", "ali", "google") has a usable API key.
func (c *Config) ProviderConfigured(provider string) bool {
	switch provider {
	case "openai":
		return c.OpenAI.APIKey != ""
	case "ali":
		return c.Ali.APIKey != ""
	case "google":
		return c.Google.APIKey != ""
	default:
		return false
	}
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	// Accept a bare number of seconds (matching the original's float-seconds
	// config value) as well as a Go duration string like "30s".
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
