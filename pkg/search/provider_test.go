package search

import (
	"slices"
	"testing"
)

func providerIDs(providers []Provider) []ProviderID {
	ids := make([]ProviderID, len(providers))
	for i, p := range providers {
		ids[i] = p.ID
	}
	return ids
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	want := []ProviderID{ProviderBrave, ProviderExa, ProviderPerplexity, ProviderClinicalTrials}
	if got := providerIDs(r.EnabledProviders(nil)); !slices.Equal(got, want) {
		t.Fatalf("unexpected default order: %v", got)
	}
	brave, ok := r.Get(ProviderBrave)
	if !ok || brave.RetryCount != 2 || brave.Endpoint != "/brave-search" {
		t.Fatalf("unexpected brave defaults: %+v", brave)
	}
	if _, ok := r.Get("pubmed"); ok {
		t.Fatalf("unknown provider should not resolve")
	}
}

func TestEnabledProvidersFiltersAndSorts(t *testing.T) {
	r := NewRegistry(
		Provider{ID: "c", Enabled: true, Priority: 3},
		Provider{ID: "a", Enabled: true, Priority: 1},
		Provider{ID: "off", Enabled: false, Priority: 0},
		Provider{ID: "b1", Enabled: true, Priority: 2},
		Provider{ID: "b2", Enabled: true, Priority: 2},
	)

	tests := []struct {
		name      string
		requested []ProviderID
		want      []ProviderID
	}{
		{name: "all enabled", want: []ProviderID{"a", "b1", "b2", "c"}},
		{name: "requested subset", requested: []ProviderID{"c", "a"}, want: []ProviderID{"a", "c"}},
		{name: "disabled stays out", requested: []ProviderID{"off"}, want: []ProviderID{}},
		{name: "unknown ids ignored", requested: []ProviderID{"zzz", "b2"}, want: []ProviderID{"b2"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := providerIDs(r.EnabledProviders(tc.requested))
			if !slices.Equal(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRegisterReplacesInPlace(t *testing.T) {
	r := DefaultRegistry()
	r.Register(Provider{ID: ProviderBrave, Name: "Brave (proxy)", Enabled: false, Priority: 1})
	if got := providerIDs(r.All()); got[0] != ProviderBrave || len(got) != 4 {
		t.Fatalf("replacement should keep position, got %v", got)
	}
	if got := providerIDs(r.EnabledProviders(nil)); slices.Contains(got, ProviderBrave) {
		t.Fatalf("disabled replacement should not be enabled: %v", got)
	}

	r.Register(Provider{ID: "pubmed", Enabled: true, Priority: 0})
	if got := providerIDs(r.EnabledProviders(nil)); got[0] != "pubmed" {
		t.Fatalf("new provider with top priority should come first: %v", got)
	}

	all := r.All()
	all[0].Name = "mutated"
	if p, _ := r.Get(ProviderBrave); p.Name == "mutated" {
		t.Fatalf("All should return a copy")
	}
}

func TestRegistryWeights(t *testing.T) {
	weights := DefaultRegistry().Weights()
	if weights[ProviderBrave] != 0.3 || weights[ProviderClinicalTrials] != 0.2 {
		t.Fatalf("unexpected weights: %v", weights)
	}
}
