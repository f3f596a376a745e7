package search

import (
	"cmp"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

const duplicateConfidenceBoost = 0.2

// Aggregator merges per-provider responses into one ranked list.
type Aggregator struct {
	weights    map[ProviderID]float64
	maxResults int
}

// NewAggregator returns an aggregator using the given provider weights.
// Providers without a positive weight count at full weight.
func NewAggregator(weights map[ProviderID]float64, maxResults int) *Aggregator {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Aggregator{weights: weights, maxResults: maxResults}
}

func (a *Aggregator) weight(provider ProviderID) float64 {
	if w, ok := a.weights[provider]; ok && w > 0 {
		return w
	}
	return 1
}

type rankedResult struct {
	key    string
	result SearchResult
}

func (r rankedResult) score() float64 {
	return r.result.RelevanceScore * r.result.Confidence
}

// Aggregate dedupes, filters, ranks and truncates the results of responses.
// Responses are folded in provider id order so the output does not depend on
// the order they arrive in.
func (a *Aggregator) Aggregate(responses []*SearchResponse, q *SearchQuery) []SearchResult {
	ordered := make([]*SearchResponse, 0, len(responses))
	for _, resp := range responses {
		if resp != nil {
			ordered = append(ordered, resp)
		}
	}
	slices.SortStableFunc(ordered, func(x, y *SearchResponse) int {
		return cmp.Compare(x.Provider, y.Provider)
	})

	fold := cases.Fold()
	index := make(map[string]int)
	var entries []rankedResult
	for _, resp := range ordered {
		weight := a.weight(resp.Provider)
		for _, result := range resp.Results {
			key := dedupKey(result, fold)
			if key == "" {
				continue
			}
			incoming := result.RelevanceScore * weight
			if i, ok := index[key]; ok {
				existing := &entries[i].result
				existing.RelevanceScore = max(existing.RelevanceScore, incoming)
				existing.Confidence = min(existing.Confidence+duplicateConfidenceBoost, 1.0)
				fillMissing(existing, result)
				continue
			}
			if result.Provider == "" {
				result.Provider = resp.Provider
			}
			result.RelevanceScore = incoming
			if result.Confidence <= 0 {
				result.Confidence = DefaultConfidence
			}
			result.Metadata = cloneMetadata(result.Metadata)
			index[key] = len(entries)
			entries = append(entries, rankedResult{key: key, result: result})
		}
	}

	for i := range entries {
		enrichMetadata(&entries[i].result)
	}
	if q != nil && q.AdvancedFilters != nil {
		entries = applyAdvancedFilters(entries, q.AdvancedFilters)
	}

	slices.SortFunc(entries, func(x, y rankedResult) int {
		if c := cmp.Compare(y.score(), x.score()); c != 0 {
			return c
		}
		return cmp.Compare(x.key, y.key)
	})

	limit := a.maxResults
	if q != nil && q.Limit > 0 && q.Limit < limit {
		limit = q.Limit
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]SearchResult, len(entries))
	for i, entry := range entries {
		out[i] = entry.result
	}
	return out
}

// fillMissing copies fields the first sighting lacked from a duplicate.
func fillMissing(dst *SearchResult, src SearchResult) {
	if dst.Snippet == "" {
		dst.Snippet = src.Snippet
	}
	if dst.PublishedDate == "" {
		dst.PublishedDate = src.PublishedDate
	}
	if dst.EvidenceLevel == "" || dst.EvidenceLevel == EvidenceOther {
		if src.EvidenceLevel != "" {
			dst.EvidenceLevel = src.EvidenceLevel
		}
	}
	if dst.ContentType == "" || dst.ContentType == ContentOther {
		if src.ContentType != "" {
			dst.ContentType = src.ContentType
		}
	}
}

func cloneMetadata(m *ResultMetadata) *ResultMetadata {
	if m == nil {
		return nil
	}
	out := *m
	out.Conditions = slices.Clone(m.Conditions)
	return &out
}

// dedupKey is the merge identity of a result: its normalized URL, or its
// case-folded title with whitespace collapsed to hyphens.
func dedupKey(r SearchResult, fold cases.Caser) string {
	if key := normalizeURL(r.URL); key != "" {
		return "url:" + key
	}
	title := strings.Join(strings.Fields(fold.String(r.Title)), "-")
	if title == "" {
		return ""
	}
	return "title:" + title
}

var trackingParams = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "fbclid", "gclid"}

func normalizeURL(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Hostname() == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	path := strings.TrimRight(parsed.EscapedPath(), "/")
	query := parsed.Query()
	for _, param := range trackingParams {
		query.Del(param)
	}
	out := host + path
	if encoded := query.Encode(); encoded != "" {
		out += "?" + encoded
	}
	return out
}
