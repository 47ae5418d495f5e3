package config

import (
	"os"
	"testing"
	"time"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.TikaServiceTimeout != 30*time.Second {
		t.Errorf("TikaServiceTimeout = %v", cfg.TikaServiceTimeout)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	yamlContent := `
app_name: "custom-ingest"
solr_url: "http://solr.internal:8983"
solr_collection: "mydocs"
source_system: "crm"
`
	f, err := os.CreateTemp("", "config_test_*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	f.WriteString(yamlContent)
	f.Close()

	cfg, err := Load(f.Name())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AppName != "custom-ingest" {
		t.Errorf("AppName = %q", cfg.AppName)
	}
	if cfg.SolrCollection != "mydocs" {
		t.Errorf("SolrCollection = %q", cfg.SolrCollection)
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AppName != "docingest" {
		t.Errorf("AppName = %q, want default", cfg.AppName)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	t.Setenv("SOLR_URL", "http://from-env:8983")
	t.Setenv("SOURCE_SYSTEM", "from-env-system")

	yamlContent := "solr_url: \"http://from-yaml:8983\"\n"
	f, err := os.CreateTemp("", "config_test_*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	f.WriteString(yamlContent)
	f.Close()

	cfg, err := Load(f.Name())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SolrURL != "http://from-env:8983" {
		t.Errorf("SolrURL = %q, want env override", cfg.SolrURL)
	}
	if cfg.SourceSystem != "from-env-system" {
		t.Errorf("SourceSystem = %q", cfg.SourceSystem)
	}
}

func TestAsyncConfigured(t *testing.T) {
	cfg := Default()
	if cfg.AsyncConfigured() {
		t.Error("expected false with no broker url")
	}
	cfg.RedisBrokerURL = "redis://localhost:6379/0"
	if !cfg.AsyncConfigured() {
		t.Error("expected true once broker url is set")
	}
}

func TestProviderConfigured(t *testing.T) {
	cfg := Default()
	if cfg.ProviderConfigured("openai") {
		t.Error("expected false with no api key")
	}
	cfg.OpenAI.APIKey = "sk-test"
	if !cfg.ProviderConfigured("openai") {
		t.Error("expected true once api key is set")
	}
	if cfg.ProviderConfigured("unknown") {
		t.Error("expected false for unrecognized provider")
	}
}

func TestMaxUploadBytes_EnvOverride(t *testing.T) {
	t.Setenv("MAX_UPLOAD_BYTES", "1048576")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxUploadBytes != 1048576 {
		t.Errorf("MaxUploadBytes = %d, want 1048576", cfg.MaxUploadBytes)
	}
}

func TestValidate_RejectsNonPositiveMaxUploadBytes(t *testing.T) {
	cfg := Default()
	cfg.MaxUploadBytes = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero MaxUploadBytes")
	}
}

func TestEnvDuration_AcceptsBareSeconds(t *testing.T) {
	t.Setenv("TIKA_SERVICE_TIMEOUT", "45")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TikaServiceTimeout != 45*time.Second {
		t.Errorf("TikaServiceTimeout = %v, want 45s", cfg.TikaServiceTimeout)
	}
}
