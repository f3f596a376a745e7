package search

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/beeper/medsearch/pkg/shared/stringutil"
)

const trialUpdateWindow = 30 * 24 * time.Hour

// decodeClinicalTrials maps the ClinicalTrials.gov v2 studies shape. Scores
// reward query matches, active recruitment and recent updates.
func decodeClinicalTrials(in decodeInput, body []byte) (*SearchResponse, error) {
	var payload struct {
		Studies []struct {
			ProtocolSection struct {
				IdentificationModule struct {
					NCTID         string `json:"nctId"`
					BriefTitle    string `json:"briefTitle"`
					OfficialTitle string `json:"officialTitle"`
				} `json:"identificationModule"`
				StatusModule struct {
					OverallStatus            string `json:"overallStatus"`
					LastUpdatePostDateStruct struct {
						Date string `json:"date"`
					} `json:"lastUpdatePostDateStruct"`
					StartDateStruct struct {
						Date string `json:"date"`
					} `json:"startDateStruct"`
				} `json:"statusModule"`
				DescriptionModule struct {
					BriefSummary string `json:"briefSummary"`
				} `json:"descriptionModule"`
				ConditionsModule struct {
					Conditions []string `json:"conditions"`
					Keywords   []string `json:"keywords"`
				} `json:"conditionsModule"`
				DesignModule struct {
					Phases []string `json:"phases"`
				} `json:"designModule"`
			} `json:"protocolSection"`
		} `json:"studies"`
		TotalCount int `json:"totalCount"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	terms := queryTerms(in.query.Query)
	results := make([]SearchResult, 0, len(payload.Studies))
	for i, study := range payload.Studies {
		ps := study.ProtocolSection
		nctID := strings.TrimSpace(ps.IdentificationModule.NCTID)
		title := stringutil.FirstNonEmpty(ps.IdentificationModule.BriefTitle, ps.IdentificationModule.OfficialTitle, nctID)
		status := ps.StatusModule.OverallStatus
		conditions := ps.ConditionsModule.Conditions
		phases := ps.DesignModule.Phases

		score := baselineRelevance(0.85, 0.05, i)
		haystack := strings.ToLower(strings.Join(conditions, " ") + " " + title + " " + strings.Join(ps.ConditionsModule.Keywords, " "))
		if matchesAnyTerm(haystack, terms) {
			score += 0.15
		}
		if strings.EqualFold(status, "RECRUITING") {
			score += 0.1
		}
		if updated, ok := parseTrialDate(ps.StatusModule.LastUpdatePostDateStruct.Date); ok && in.now.Sub(updated) <= trialUpdateWindow {
			score += 0.05
		}

		trialURL := ""
		if nctID != "" {
			trialURL = "https://clinicaltrials.gov/study/" + nctID
		}
		results = append(results, SearchResult{
			ID:             fmt.Sprintf("%s-%s", ProviderClinicalTrials, stringutil.FirstNonEmpty(nctID, uuid.NewSHA1(uuid.NameSpaceURL, []byte(title)).String())),
			Title:          title,
			URL:            trialURL,
			Snippet:        trialSnippet(ps.DescriptionModule.BriefSummary, conditions, phases, status),
			Source:         "clinicaltrials.gov",
			Provider:       ProviderClinicalTrials,
			RelevanceScore: min(score, 1.0),
			Confidence:     in.provider.BaseConfidence,
			EvidenceLevel:  EvidenceLevelForPhases(phases),
			ContentType:    ContentClinicalTrial,
			PublishedDate:  ps.StatusModule.StartDateStruct.Date,
			Metadata: &ResultMetadata{
				TrialID:     nctID,
				TrialPhase:  strings.Join(phases, ", "),
				TrialStatus: status,
				Conditions:  conditions,
				Audience:    "researcher",
			},
		})
	}
	return &SearchResponse{
		Results:    results,
		TotalCount: payload.TotalCount,
	}, nil
}

func trialSnippet(summary string, conditions, phases []string, status string) string {
	parts := make([]string, 0, 4)
	if summary = strings.TrimSpace(summary); summary != "" {
		parts = append(parts, stringutil.Truncate(stringutil.CollapseWhitespace(summary), 200))
	}
	if len(conditions) > 0 {
		parts = append(parts, fmt.Sprintf("Conditions: %s.", strings.Join(conditions, ", ")))
	}
	if len(phases) > 0 {
		labels := make([]string, len(phases))
		for i, phase := range phases {
			labels[i] = phaseLabel(phase)
		}
		parts = append(parts, fmt.Sprintf("%s trial.", strings.Join(labels, "/")))
	}
	switch {
	case strings.EqualFold(status, "RECRUITING"):
		parts = append(parts, "Currently recruiting participants.")
	case status != "":
		parts = append(parts, fmt.Sprintf("Status: %s.", humanize(status)))
	}
	return strings.Join(parts, " ")
}

// phaseLabel renders registry phase codes such as EARLY_PHASE1 as "Early Phase 1".
func phaseLabel(phase string) string {
	words := strings.Fields(strings.ReplaceAll(strings.ReplaceAll(strings.ToLower(phase), "_", " "), "phase", "phase "))
	return cases.Title(language.Und).String(strings.Join(words, " "))
}

func humanize(value string) string {
	return strings.ToLower(strings.ReplaceAll(value, "_", " "))
}

func parseTrialDate(value string) (time.Time, bool) {
	for _, layout := range []string{time.DateOnly, "2006-01", "January 2, 2006", "January 2006"} {
		if t, err := time.Parse(layout, strings.TrimSpace(value)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func queryTerms(query string) []string {
	var terms []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		word = strings.Trim(word, `.,;:!?"'()[]`)
		if len([]rune(word)) >= 3 {
			terms = append(terms, word)
		}
	}
	return terms
}

func matchesAnyTerm(haystack string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}
