package search

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.mau.fi/util/ptr"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeConfig(t, "medsearch.yaml", `
base_url: https://search.example.org/functions/v1
sequential_strategy: failover
max_results: 10
retry:
  initial_interval_ms: 250
brave:
  retry_count: 0
  timeout_ms: 2000
perplexity:
  enabled: false
exa:
  endpoint: https://exa.example.org/search
  headers:
    X-Team: cardio
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.BaseURL != "https://search.example.org/functions/v1" || cfg.SequentialStrategy != StrategyFailover {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.SimpleSearchPath != DefaultSimpleSearchPath || cfg.MaxResults != 10 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.Retry.InitialIntervalMs != 250 || cfg.Retry.MaxIntervalMs != 5000 {
		t.Fatalf("unexpected retry config: %+v", cfg.Retry)
	}

	r := NewRegistry(cfg.Providers()...)
	brave, _ := r.Get(ProviderBrave)
	if brave.RetryCount != 0 || brave.Timeout != 2*time.Second {
		t.Fatalf("explicit zero retry count should be kept: %+v", brave)
	}
	exa, _ := r.Get(ProviderExa)
	if exa.Endpoint != "https://exa.example.org/search" || exa.Headers["X-Team"] != "cardio" || exa.RetryCount != 1 {
		t.Fatalf("unexpected exa provider: %+v", exa)
	}
	if p, _ := r.Get(ProviderPerplexity); p.Enabled {
		t.Fatalf("perplexity should be disabled")
	}
}

func TestLoadConfigJSON5(t *testing.T) {
	path := writeConfig(t, "medsearch.json5", `{
  // comments and trailing commas are allowed
  session_token: "abc",
  clinicaltrials: {priority: 0, weight: 0.5,},
}`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.SessionToken != "abc" || cfg.SequentialStrategy != StrategySimple {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	trials, _ := NewRegistry(cfg.Providers()...).Get(ProviderClinicalTrials)
	if trials.Weight != 0.5 || trials.Priority != 4 {
		t.Fatalf("unexpected clinical trials provider: %+v", trials)
	}
}

func TestLoadConfigRejectsMalformed(t *testing.T) {
	path := writeConfig(t, "bad.yaml", "brave: [unterminated")
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestEnableOnly(t *testing.T) {
	cfg := &Config{}
	cfg.EnableOnly([]ProviderID{ProviderExa, ProviderClinicalTrials})
	got := providerIDs(NewRegistry(cfg.Providers()...).EnabledProviders(nil))
	if len(got) != 2 || got[0] != ProviderExa || got[1] != ProviderClinicalTrials {
		t.Fatalf("unexpected enabled providers: %v", got)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("MEDSEARCH_BASE_URL", "https://env.example.org/fn")
	t.Setenv("MEDSEARCH_SESSION_TOKEN", "env-token")
	t.Setenv("MEDSEARCH_PROVIDERS", "Brave, perplexity")
	t.Setenv("MEDSEARCH_EXA_ENDPOINT", "/exa-v2")

	cfg := ConfigFromEnv()
	if cfg.BaseURL != "https://env.example.org/fn" || cfg.SessionToken != "env-token" {
		t.Fatalf("unexpected env config: %+v", cfg)
	}
	got := providerIDs(NewRegistry(cfg.Providers()...).EnabledProviders(nil))
	if len(got) != 2 || got[0] != ProviderBrave || got[1] != ProviderPerplexity {
		t.Fatalf("unexpected enabled providers: %v", got)
	}
	if cfg.Exa.Endpoint != "/exa-v2" {
		t.Fatalf("unexpected exa endpoint: %q", cfg.Exa.Endpoint)
	}
}

func TestApplyEnvDefaultsKeepsFileValues(t *testing.T) {
	t.Setenv("MEDSEARCH_BASE_URL", "https://env.example.org/fn")
	t.Setenv("MEDSEARCH_SESSION_TOKEN", "env-token")
	t.Setenv("MEDSEARCH_PROVIDERS", "exa")
	t.Setenv("MEDSEARCH_SIMPLE_SEARCH_PATH", "/custom-search")

	cfg := ApplyEnvDefaults(&Config{
		BaseURL: "https://file.example.org/fn",
		Brave:   ProviderConfig{Enabled: ptr.Ptr(true)},
	})
	if cfg.BaseURL != "https://file.example.org/fn" {
		t.Fatalf("file base url should win, got %q", cfg.BaseURL)
	}
	if cfg.SessionToken != "env-token" {
		t.Fatalf("expected token from env, got %q", cfg.SessionToken)
	}
	if cfg.SimpleSearchPath != "/custom-search" {
		t.Fatalf("expected simple search path from env, got %q", cfg.SimpleSearchPath)
	}
	got := providerIDs(NewRegistry(cfg.Providers()...).EnabledProviders(nil))
	if len(got) != 2 || got[0] != ProviderBrave || got[1] != ProviderExa {
		t.Fatalf("unexpected enabled providers: %v", got)
	}

	fromFile := ApplyEnvDefaults(&Config{SimpleSearchPath: "/file-search"})
	if fromFile.SimpleSearchPath != "/file-search" {
		t.Fatalf("file simple search path should win, got %q", fromFile.SimpleSearchPath)
	}
}

func TestApplyEnvDefaultsMatchesConfigFromEnv(t *testing.T) {
	t.Setenv("MEDSEARCH_BASE_URL", "https://env.example.org/fn")
	t.Setenv("MEDSEARCH_SIMPLE_SEARCH_PATH", "/custom-search")
	t.Setenv("MEDSEARCH_SEQUENTIAL_STRATEGY", StrategyFailover)

	fromEnv := ConfigFromEnv()
	applied := ApplyEnvDefaults(&Config{})
	if applied.BaseURL != fromEnv.BaseURL || applied.SimpleSearchPath != fromEnv.SimpleSearchPath ||
		applied.SequentialStrategy != fromEnv.SequentialStrategy {
		t.Fatalf("entry points disagree: applied=%+v env=%+v", applied, fromEnv)
	}
}
