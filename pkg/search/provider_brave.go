package search

import "encoding/json"

// decodeBrave accepts a flat results list or the native web.results shape.
func decodeBrave(in decodeInput, body []byte) (*SearchResponse, error) {
	var payload struct {
		Results []genericResult `json:"results"`
		Web     struct {
			Results []genericResult `json:"results"`
		} `json:"web"`
		TotalCount int `json:"totalCount"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	entries := payload.Results
	if len(entries) == 0 {
		entries = payload.Web.Results
	}
	return &SearchResponse{
		Results:    in.genericResults(entries),
		TotalCount: payload.TotalCount,
	}, nil
}
