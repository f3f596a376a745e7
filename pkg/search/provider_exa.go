package search

import (
	"encoding/json"
	"strings"

	"github.com/beeper/medsearch/pkg/shared/stringutil"
)

// decodeExa keeps the native score and prefers summaries and highlights over full text.
func decodeExa(in decodeInput, body []byte) (*SearchResponse, error) {
	var payload struct {
		Results []struct {
			ID            string   `json:"id"`
			Title         string   `json:"title"`
			URL           string   `json:"url"`
			Author        string   `json:"author"`
			PublishedDate string   `json:"publishedDate"`
			Text          string   `json:"text"`
			Summary       string   `json:"summary"`
			Highlights    []string `json:"highlights"`
			Score         float64  `json:"score"`
		} `json:"results"`
		TotalCount int `json:"totalCount"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	results := make([]SearchResult, 0, len(payload.Results))
	for i, entry := range payload.Results {
		snippet := entry.Summary
		if len(entry.Highlights) > 0 {
			snippet = stringutil.FirstNonEmpty(snippet, strings.Join(entry.Highlights, " "))
		}
		snippet = stringutil.FirstNonEmpty(snippet, entry.Text)
		result := in.webResult(i, entry.Title, entry.URL, snippet, entry.PublishedDate, entry.Score)
		if id := strings.TrimSpace(entry.ID); id != "" {
			result.ID = resultID(ProviderExa, id)
		}
		if author := strings.TrimSpace(entry.Author); author != "" {
			result.Metadata = &ResultMetadata{Author: author}
		}
		results = append(results, result)
	}
	return &SearchResponse{
		Results:    results,
		TotalCount: payload.TotalCount,
	}, nil
}
