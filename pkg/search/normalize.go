package search

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/beeper/medsearch/pkg/searcherr"
	"github.com/beeper/medsearch/pkg/shared/stringutil"
)

const maxSnippetLength = 300

// decodeInput carries what a payload decoder needs besides the body.
type decodeInput struct {
	provider Provider
	query    SearchQuery
	now      time.Time
}

// payloadDecoder maps one provider's payload shape to a SearchResponse.
type payloadDecoder func(in decodeInput, body []byte) (*SearchResponse, error)

var payloadDecoders = map[ProviderID]payloadDecoder{
	ProviderBrave:          decodeBrave,
	ProviderExa:            decodeExa,
	ProviderPerplexity:     decodePerplexity,
	ProviderClinicalTrials: decodeClinicalTrials,
}

func decoderFor(id ProviderID) payloadDecoder {
	if decoder, ok := payloadDecoders[id]; ok {
		return decoder
	}
	return decodeGeneric
}

type envelope struct {
	body   []byte
	status string
	errMsg string
}

func (e envelope) isError() bool {
	if strings.EqualFold(e.status, string(StatusError)) {
		return true
	}
	return e.errMsg != "" && e.status == ""
}

// unwrapEnvelope accepts both {data:{...}} and flat bodies.
func unwrapEnvelope(data []byte) (envelope, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return envelope{}, err
	}
	env := envelope{
		body:   data,
		status: rawString(top["status"]),
		errMsg: rawErrorMessage(top["error"]),
	}
	if inner, ok := top["data"]; ok && bytes.HasPrefix(bytes.TrimSpace(inner), []byte("{")) {
		env.body = inner
		var nested map[string]json.RawMessage
		if json.Unmarshal(inner, &nested) == nil {
			env.status = stringutil.FirstNonEmpty(env.status, rawString(nested["status"]))
			env.errMsg = stringutil.FirstNonEmpty(env.errMsg, rawErrorMessage(nested["error"]))
		}
	}
	return env, nil
}

func rawString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func rawErrorMessage(raw json.RawMessage) string {
	if s := rawString(raw); s != "" {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &obj) != nil {
		return ""
	}
	return strings.TrimSpace(obj.Message)
}

// normalizeResponse turns a raw provider body into a SearchResponse.
// An error envelope yields an error-status response rather than a Go error.
func normalizeResponse(in decodeInput, data []byte) (*SearchResponse, error) {
	env, err := unwrapEnvelope(data)
	if err != nil {
		return nil, &searcherr.ParseError{Provider: string(in.provider.ID), Err: err}
	}
	if env.isError() {
		return &SearchResponse{
			Provider: in.provider.ID,
			Query:    in.query.Query,
			Status:   StatusError,
			Error:    stringutil.FirstNonEmpty(env.errMsg, "provider returned an error status"),
		}, nil
	}
	resp, err := decoderFor(in.provider.ID)(in, env.body)
	if err != nil {
		return nil, &searcherr.ParseError{Provider: string(in.provider.ID), Err: err}
	}
	resp.Provider = in.provider.ID
	resp.Query = in.query.Query
	if resp.Status == "" {
		resp.Status = StatusSuccess
		if strings.EqualFold(env.status, string(StatusPartial)) {
			resp.Status = StatusPartial
		}
	}
	if resp.TotalCount < len(resp.Results) {
		resp.TotalCount = len(resp.Results)
	}
	return resp, nil
}

func resultID(provider ProviderID, key string) string {
	return fmt.Sprintf("%s-%s", provider, uuid.NewSHA1(uuid.NameSpaceURL, []byte(strings.TrimSpace(key))))
}

// webResult builds a classified result from common web-search fields. A
// non-positive score falls back to the rank-decayed baseline.
func (in decodeInput) webResult(index int, title, rawURL, snippet, published string, score float64) SearchResult {
	title = stringutil.StripMarkup(title)
	snippet = stringutil.Truncate(stringutil.StripMarkup(snippet), maxSnippetLength)
	relevance := score
	if relevance <= 0 {
		relevance = baselineRelevance(0.9, 0.1, index)
	}
	text := title + " " + snippet
	return SearchResult{
		ID:             resultID(in.provider.ID, stringutil.FirstNonEmpty(rawURL, title)),
		Title:          stringutil.FirstNonEmpty(title, rawURL),
		URL:            strings.TrimSpace(rawURL),
		Snippet:        snippet,
		Source:         hostOf(rawURL),
		Provider:       in.provider.ID,
		RelevanceScore: min(relevance, 1.0),
		Confidence:     in.provider.BaseConfidence,
		EvidenceLevel:  ClassifyEvidenceLevel(text),
		ContentType:    ClassifyContentType(text),
		PublishedDate:  strings.TrimSpace(published),
	}
}

type genericResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Snippet       string  `json:"snippet"`
	Description   string  `json:"description"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"publishedDate"`
	Age           string  `json:"age"`
}

func (in decodeInput) genericResults(entries []genericResult) []SearchResult {
	results := make([]SearchResult, 0, len(entries))
	for i, entry := range entries {
		if strings.TrimSpace(entry.URL) == "" && strings.TrimSpace(entry.Title) == "" {
			continue
		}
		results = append(results, in.webResult(i, entry.Title, entry.URL,
			stringutil.FirstNonEmpty(entry.Snippet, entry.Description),
			stringutil.FirstNonEmpty(entry.PublishedDate, entry.Age),
			entry.Score))
	}
	return results
}

func decodeGeneric(in decodeInput, body []byte) (*SearchResponse, error) {
	var payload struct {
		Results    []genericResult `json:"results"`
		TotalCount int             `json:"totalCount"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return &SearchResponse{
		Results:    in.genericResults(payload.Results),
		TotalCount: payload.TotalCount,
	}, nil
}
