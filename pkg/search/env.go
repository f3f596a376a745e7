package search

import (
	"os"
	"strings"

	"github.com/beeper/medsearch/pkg/shared/stringutil"
)

// ConfigFromEnv builds a search config using environment variables.
func ConfigFromEnv() *Config {
	cfg := &Config{}

	cfg.BaseURL = envOr(cfg.BaseURL, os.Getenv("MEDSEARCH_BASE_URL"))
	cfg.SimpleSearchPath = envOr(cfg.SimpleSearchPath, os.Getenv("MEDSEARCH_SIMPLE_SEARCH_PATH"))
	cfg.SessionToken = envOr(cfg.SessionToken, os.Getenv("MEDSEARCH_SESSION_TOKEN"))
	cfg.SequentialStrategy = envOr(cfg.SequentialStrategy, os.Getenv("MEDSEARCH_SEQUENTIAL_STRATEGY"))

	if providers := strings.TrimSpace(os.Getenv("MEDSEARCH_PROVIDERS")); providers != "" {
		cfg.EnableOnly(ParseProviderIDs(stringutil.SplitCSV(providers)))
	}

	cfg.Brave.Endpoint = envOr(cfg.Brave.Endpoint, os.Getenv("MEDSEARCH_BRAVE_ENDPOINT"))
	cfg.Exa.Endpoint = envOr(cfg.Exa.Endpoint, os.Getenv("MEDSEARCH_EXA_ENDPOINT"))
	cfg.Perplexity.Endpoint = envOr(cfg.Perplexity.Endpoint, os.Getenv("MEDSEARCH_PERPLEXITY_ENDPOINT"))
	cfg.ClinicalTrials.Endpoint = envOr(cfg.ClinicalTrials.Endpoint, os.Getenv("MEDSEARCH_CLINICALTRIALS_ENDPOINT"))

	return cfg.WithDefaults()
}

// ApplyEnvDefaults fills empty config fields from environment variables.
func ApplyEnvDefaults(cfg *Config) *Config {
	if cfg == nil {
		return ConfigFromEnv()
	}
	baseURLSet := strings.TrimSpace(cfg.BaseURL) != ""
	simplePathSet := strings.TrimSpace(cfg.SimpleSearchPath) != ""
	strategySet := strings.TrimSpace(cfg.SequentialStrategy) != ""
	current := cfg.WithDefaults()
	envCfg := ConfigFromEnv()

	if !baseURLSet && os.Getenv("MEDSEARCH_BASE_URL") != "" {
		current.BaseURL = envCfg.BaseURL
	}
	if !simplePathSet && os.Getenv("MEDSEARCH_SIMPLE_SEARCH_PATH") != "" {
		current.SimpleSearchPath = envCfg.SimpleSearchPath
	}
	if !strategySet && os.Getenv("MEDSEARCH_SEQUENTIAL_STRATEGY") != "" {
		current.SequentialStrategy = envCfg.SequentialStrategy
	}
	if current.SessionToken == "" {
		current.SessionToken = envCfg.SessionToken
	}

	fillProvider(&current.Brave, envCfg.Brave)
	fillProvider(&current.Exa, envCfg.Exa)
	fillProvider(&current.Perplexity, envCfg.Perplexity)
	fillProvider(&current.ClinicalTrials, envCfg.ClinicalTrials)

	return current
}

func fillProvider(current *ProviderConfig, env ProviderConfig) {
	if current.Endpoint == "" {
		current.Endpoint = env.Endpoint
	}
	if current.Enabled == nil {
		current.Enabled = env.Enabled
	}
}

// ParseProviderIDs converts raw names to provider ids, dropping blanks.
func ParseProviderIDs(names []string) []ProviderID {
	out := make([]ProviderID, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		out = append(out, ProviderID(name))
	}
	return out
}

func envOr(existing, value string) string {
	return stringutil.EnvOr(existing, value)
}
