package search

import (
	"slices"
	"time"
)

// Provider is the static description of one search backend.
type Provider struct {
	ID             ProviderID
	Name           string
	Enabled        bool
	Priority       int
	Endpoint       string
	Timeout        time.Duration
	RetryCount     int
	Weight         float64
	BaseConfidence float64
	Headers        map[string]string
}

// Registry stores providers in registration order.
type Registry struct {
	providers []Provider
}

// NewRegistry creates a registry holding the given providers.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// DefaultRegistry returns the four built-in providers with default tuning.
func DefaultRegistry() *Registry {
	return NewRegistry((&Config{}).Providers()...)
}

// Register adds or replaces a provider by id. Replacement keeps the
// original registration position.
func (r *Registry) Register(provider Provider) {
	if r == nil || provider.ID == "" {
		return
	}
	for i, existing := range r.providers {
		if existing.ID == provider.ID {
			r.providers[i] = provider
			return
		}
	}
	r.providers = append(r.providers, provider)
}

// Get returns a provider by id.
func (r *Registry) Get(id ProviderID) (Provider, bool) {
	if r == nil {
		return Provider{}, false
	}
	for _, p := range r.providers {
		if p.ID == id {
			return p, true
		}
	}
	return Provider{}, false
}

// All returns every registered provider in registration order.
func (r *Registry) All() []Provider {
	if r == nil {
		return nil
	}
	return slices.Clone(r.providers)
}

// EnabledProviders returns enabled providers sorted ascending by priority.
// A non-empty requested list further restricts the set to those ids.
// Equal priorities keep registration order.
func (r *Registry) EnabledProviders(requested []ProviderID) []Provider {
	if r == nil {
		return nil
	}
	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		if !p.Enabled {
			continue
		}
		if len(requested) > 0 && !slices.Contains(requested, p.ID) {
			continue
		}
		out = append(out, p)
	}
	slices.SortStableFunc(out, func(a, b Provider) int {
		return a.Priority - b.Priority
	})
	return out
}

// Weights maps provider ids to their aggregation weights.
func (r *Registry) Weights() map[ProviderID]float64 {
	out := make(map[ProviderID]float64)
	if r == nil {
		return out
	}
	for _, p := range r.providers {
		out[p.ID] = p.Weight
	}
	return out
}
