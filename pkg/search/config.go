package search

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	json5 "github.com/yosuke-furukawa/json5/encoding/json5"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL          = "http://localhost:54321/functions/v1"
	DefaultSimpleSearchPath = "/medical-search"
	DefaultMaxResults       = 20
	DefaultConfidence       = 0.7
	MaxQueryLength          = 150

	StrategySimple   = "simple"
	StrategyFailover = "failover"
)

// Config controls provider selection, tuning and the search backend location.
type Config struct {
	BaseURL            string `yaml:"base_url" json:"base_url"`
	SimpleSearchPath   string `yaml:"simple_search_path" json:"simple_search_path"`
	SessionToken       string `yaml:"session_token" json:"session_token"`
	SequentialStrategy string `yaml:"sequential_strategy" json:"sequential_strategy"`
	MaxResults         int    `yaml:"max_results" json:"max_results"`

	Retry RetryConfig `yaml:"retry" json:"retry"`

	Brave          ProviderConfig `yaml:"brave" json:"brave"`
	Exa            ProviderConfig `yaml:"exa" json:"exa"`
	Perplexity     ProviderConfig `yaml:"perplexity" json:"perplexity"`
	ClinicalTrials ProviderConfig `yaml:"clinicaltrials" json:"clinicaltrials"`
}

// RetryConfig tunes the backoff between attempts of one provider call.
type RetryConfig struct {
	InitialIntervalMs int     `yaml:"initial_interval_ms" json:"initial_interval_ms"`
	MaxIntervalMs     int     `yaml:"max_interval_ms" json:"max_interval_ms"`
	Multiplier        float64 `yaml:"multiplier" json:"multiplier"`
}

// ProviderConfig tunes one provider. Zero values take the provider default.
type ProviderConfig struct {
	Enabled        *bool             `yaml:"enabled" json:"enabled"`
	Name           string            `yaml:"name" json:"name"`
	Priority       int               `yaml:"priority" json:"priority"`
	Endpoint       string            `yaml:"endpoint" json:"endpoint"`
	TimeoutMs      int               `yaml:"timeout_ms" json:"timeout_ms"`
	RetryCount     *int              `yaml:"retry_count" json:"retry_count"`
	Weight         float64           `yaml:"weight" json:"weight"`
	BaseConfidence float64           `yaml:"base_confidence" json:"base_confidence"`
	Headers        map[string]string `yaml:"headers" json:"headers"`
}

var defaultProviders = map[ProviderID]Provider{
	ProviderBrave: {
		ID: ProviderBrave, Name: "Brave Search", Enabled: true, Priority: 1,
		Endpoint: "/brave-search", Timeout: 8 * time.Second, RetryCount: 2,
		Weight: 0.3, BaseConfidence: 0.7,
	},
	ProviderExa: {
		ID: ProviderExa, Name: "Exa", Enabled: true, Priority: 2,
		Endpoint: "/exa-search", Timeout: 15 * time.Second, RetryCount: 1,
		Weight: 0.3, BaseConfidence: 0.8,
	},
	ProviderPerplexity: {
		ID: ProviderPerplexity, Name: "Perplexity", Enabled: true, Priority: 3,
		Endpoint: "/perplexity-search", Timeout: 30 * time.Second, RetryCount: 0,
		Weight: 0.2, BaseConfidence: 0.75,
	},
	ProviderClinicalTrials: {
		ID: ProviderClinicalTrials, Name: "ClinicalTrials.gov", Enabled: true, Priority: 4,
		Endpoint: "/clinical-trials-search", Timeout: 12 * time.Second, RetryCount: 1,
		Weight: 0.2, BaseConfidence: 0.9,
	},
}

// LoadConfig reads a YAML or JSON5 config file and applies defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".json5":
		err = json5.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg.WithDefaults(), nil
}

func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.SimpleSearchPath == "" {
		c.SimpleSearchPath = DefaultSimpleSearchPath
	}
	if c.SequentialStrategy == "" {
		c.SequentialStrategy = StrategySimple
	}
	if c.MaxResults <= 0 {
		c.MaxResults = DefaultMaxResults
	}
	c.Retry = c.Retry.withDefaults()
	return c
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.InitialIntervalMs <= 0 {
		c.InitialIntervalMs = 1000
	}
	if c.MaxIntervalMs <= 0 {
		c.MaxIntervalMs = 5000
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2
	}
	return c
}

// Policy converts the config into a retry policy with no retries; callers set
// the per-provider budget.
func (c RetryConfig) Policy() RetryPolicy {
	c = c.withDefaults()
	return RetryPolicy{
		InitialInterval: time.Duration(c.InitialIntervalMs) * time.Millisecond,
		MaxInterval:     time.Duration(c.MaxIntervalMs) * time.Millisecond,
		Multiplier:      c.Multiplier,
	}
}

// Providers returns the configured providers in registration order.
func (c *Config) Providers() []Provider {
	c = c.WithDefaults()
	return []Provider{
		c.Brave.apply(defaultProviders[ProviderBrave]),
		c.Exa.apply(defaultProviders[ProviderExa]),
		c.Perplexity.apply(defaultProviders[ProviderPerplexity]),
		c.ClinicalTrials.apply(defaultProviders[ProviderClinicalTrials]),
	}
}

// EnableOnly disables every provider not named in ids.
func (c *Config) EnableOnly(ids []ProviderID) {
	if len(ids) == 0 {
		return
	}
	wanted := make(map[ProviderID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	set := func(pc *ProviderConfig, id ProviderID) {
		enabled := wanted[id]
		pc.Enabled = &enabled
	}
	set(&c.Brave, ProviderBrave)
	set(&c.Exa, ProviderExa)
	set(&c.Perplexity, ProviderPerplexity)
	set(&c.ClinicalTrials, ProviderClinicalTrials)
}

func (c ProviderConfig) apply(p Provider) Provider {
	p.Enabled = isEnabled(c.Enabled, p.Enabled)
	if c.Name != "" {
		p.Name = c.Name
	}
	if c.Priority > 0 {
		p.Priority = c.Priority
	}
	if c.Endpoint != "" {
		p.Endpoint = c.Endpoint
	}
	if c.TimeoutMs > 0 {
		p.Timeout = time.Duration(c.TimeoutMs) * time.Millisecond
	}
	if c.RetryCount != nil && *c.RetryCount >= 0 {
		p.RetryCount = *c.RetryCount
	}
	if c.Weight > 0 {
		p.Weight = c.Weight
	}
	if c.BaseConfidence > 0 {
		p.BaseConfidence = c.BaseConfidence
	}
	if len(c.Headers) > 0 {
		p.Headers = c.Headers
	}
	return p
}

func isEnabled(flag *bool, fallback bool) bool {
	if flag == nil {
		return fallback
	}
	return *flag
}
