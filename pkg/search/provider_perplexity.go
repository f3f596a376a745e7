package search

import (
	"encoding/json"
	"strings"

	"github.com/beeper/medsearch/pkg/shared/stringutil"
)

const maxKeyFindings = 5

// decodePerplexity lifts the answer into the summary and key findings. Results
// come from search_results, then results, then bare citation URLs.
func decodePerplexity(in decodeInput, body []byte) (*SearchResponse, error) {
	var payload struct {
		Answer  string `json:"answer"`
		Content string `json:"content"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Citations     []string        `json:"citations"`
		SearchResults []genericResult `json:"search_results"`
		Results       []genericResult `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	answer := stringutil.FirstNonEmpty(payload.Answer, payload.Content)
	if answer == "" && len(payload.Choices) > 0 {
		answer = payload.Choices[0].Message.Content
	}
	answer = strings.TrimSpace(answer)

	entries := payload.SearchResults
	if len(entries) == 0 {
		entries = payload.Results
	}
	if len(entries) == 0 {
		for _, citation := range payload.Citations {
			entries = append(entries, genericResult{Title: hostOf(citation), URL: citation})
		}
	}
	resp := &SearchResponse{
		Results:     in.genericResults(entries),
		Summary:     answer,
		KeyFindings: extractKeyFindings(answer, maxKeyFindings),
	}
	if answer != "" {
		resp.EvidenceLevel = ClassifyEvidenceLevel(answer)
	}
	return resp, nil
}

// extractKeyFindings collects bulleted or numbered lines from an answer.
func extractKeyFindings(answer string, limit int) []string {
	var findings []string
	for _, line := range strings.Split(answer, "\n") {
		line = strings.TrimSpace(line)
		item, ok := trimListMarker(line)
		if !ok {
			continue
		}
		item = stringutil.StripMarkup(item)
		if item == "" {
			continue
		}
		findings = append(findings, item)
		if len(findings) >= limit {
			break
		}
	}
	return findings
}

func trimListMarker(line string) (string, bool) {
	for _, marker := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(line[len(marker):]), true
		}
	}
	digits := 0
	for digits < len(line) && line[digits] >= '0' && line[digits] <= '9' {
		digits++
	}
	if digits > 0 && digits+1 < len(line) && (line[digits] == '.' || line[digits] == ')') && line[digits+1] == ' ' {
		return strings.TrimSpace(line[digits+2:]), true
	}
	return "", false
}
