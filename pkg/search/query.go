package search

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/beeper/medsearch/pkg/shared/stringutil"
)

const (
	maxContentFilterTerms = 2
	maxSiteTerms          = 3
	maxIncludeDomains     = 10
)

var contentFilterTerms = map[string]string{
	"clinical-guidelines":  "clinical practice guidelines",
	"systematic-reviews":   "systematic review",
	"meta-analyses":        "meta-analysis",
	"rcts":                 "randomized controlled trial",
	"consensus-statements": "consensus statement",
	"practice-bulletins":   "practice bulletin",
	"case-reports":         "case report",
	"review-articles":      "review article",
	"clinical-trials":      "clinical trial",
	"drug-information":     "drug prescribing information",
	"patient-education":    "patient education",
}

var evidenceTerms = map[EvidenceLevel]string{
	EvidenceSystematicReview: "systematic review",
	EvidenceRCT:              "randomized controlled trial",
	EvidenceCohort:           "cohort study",
	EvidenceCaseControl:      "case-control study",
	EvidenceCaseSeries:       "case series",
	EvidenceHigh:             "high quality evidence",
}

var contentTypeTerms = map[ContentType]string{
	ContentClinicalGuideline:  "guidelines",
	ContentConsensusStatement: "consensus statement",
	ContentPracticeBulletin:   "practice bulletin",
	ContentJournalArticle:     "journal article",
	ContentClinicalTrial:      "clinical trial",
}

var fileFormatHints = map[string]string{
	"pdf": "filetype:pdf",
	"doc": "filetype:doc",
	"ppt": "filetype:ppt",
}

var recencyWindows = map[Recency]time.Duration{
	RecencyPastDay:    24 * time.Hour,
	RecencyPastWeek:   7 * 24 * time.Hour,
	RecencyPastMonth:  30 * 24 * time.Hour,
	RecencyPastYear:   365 * 24 * time.Hour,
	RecencyPast5Years: 5 * 365 * 24 * time.Hour,
}

var braveFreshness = map[Recency]string{
	RecencyPastDay:   "pd",
	RecencyPastWeek:  "pw",
	RecencyPastMonth: "pm",
	RecencyPastYear:  "py",
}

// queryBuilder accumulates typed clauses. Every with* method returns a copy.
type queryBuilder struct {
	base     string
	terms    []string
	sites    []string
	format   string
	dateHint string
}

func newQueryBuilder(base string) queryBuilder {
	return queryBuilder{base: strings.TrimSpace(base)}
}

func (b queryBuilder) withTerms(terms ...string) queryBuilder {
	next := slices.Clone(b.terms)
	for _, term := range terms {
		if term = strings.TrimSpace(term); term != "" {
			next = append(next, term)
		}
	}
	b.terms = next
	return b
}

func (b queryBuilder) withSites(sites []string) queryBuilder {
	b.sites = slices.Clone(sites)
	return b
}

func (b queryBuilder) withFormat(format string) queryBuilder {
	b.format = format
	return b
}

func (b queryBuilder) withDateHint(hint string) queryBuilder {
	b.dateHint = hint
	return b
}

func (b queryBuilder) siteClause() string {
	switch len(b.sites) {
	case 0:
		return ""
	case 1:
		return "site:" + b.sites[0]
	}
	parts := make([]string, len(b.sites))
	for i, site := range b.sites {
		parts[i] = "site:" + site
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// encode serializes the clauses once and truncates the result to maxLen
// without splitting a word.
func (b queryBuilder) encode(maxLen int) string {
	parts := make([]string, 0, len(b.terms)+4)
	parts = append(parts, b.base)
	parts = append(parts, b.terms...)
	parts = append(parts, b.format, b.siteClause(), b.dateHint)
	parts = slices.DeleteFunc(parts, func(s string) bool { return s == "" })
	return stringutil.TruncateAtWord(strings.Join(parts, " "), maxLen)
}

// QueryBuilder turns a SearchQuery into provider-specific requests.
type QueryBuilder struct {
	now func() time.Time
}

// NewQueryBuilder returns a builder using now for date hints; nil means time.Now.
func NewQueryBuilder(now func() time.Time) QueryBuilder {
	if now == nil {
		now = time.Now
	}
	return QueryBuilder{now: now}
}

// BuildProviderQuery builds the query text for provider using the current time.
func BuildProviderQuery(q SearchQuery, provider ProviderID) string {
	return NewQueryBuilder(nil).Build(q, provider)
}

func (qb QueryBuilder) clock() time.Time {
	if qb.now == nil {
		return time.Now()
	}
	return qb.now()
}

// Build returns the augmented query text sent to provider.
func (qb QueryBuilder) Build(q SearchQuery, provider ProviderID) string {
	b := newQueryBuilder(q.Query)
	structured := provider == ProviderClinicalTrials

	if adv := q.AdvancedFilters; adv != nil {
		b = b.withTerms(stringutil.FirstNonEmpty(q.Specialty, adv.Specialty))
		b = b.withTerms(adv.Subspecialty)
		for i, key := range adv.ContentTypes {
			if i >= maxContentFilterTerms {
				break
			}
			b = b.withTerms(contentFilterTerm(key))
		}
		if !structured {
			b = b.withFormat(formatHint(adv.FileFormats))
			b = b.withSites(sitesForAuthorities(adv.SourceAuthorities, maxSiteTerms))
		}
		b = b.withDateHint(recencyHint(q.Recency, qb.clock()))
	} else {
		b = b.withTerms(q.Specialty)
		if len(q.EvidenceLevels) > 0 {
			b = b.withTerms(evidenceTerms[q.EvidenceLevels[0]])
		}
		if len(q.ContentTypes) > 0 {
			b = b.withTerms(contentTypeTerms[q.ContentTypes[0]])
		}
	}
	return b.encode(MaxQueryLength)
}

func contentFilterTerm(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	if term, ok := contentFilterTerms[key]; ok {
		return term
	}
	return strings.ReplaceAll(key, "-", " ")
}

// formatHint returns the first recognized file-format operator.
func formatHint(formats []string) string {
	for _, format := range formats {
		if hint, ok := fileFormatHints[strings.ToLower(strings.TrimSpace(format))]; ok {
			return hint
		}
	}
	return ""
}

func recencyHint(r Recency, now time.Time) string {
	switch r {
	case RecencyPastDay, RecencyPastWeek:
		return "latest"
	case RecencyPastMonth:
		return "recent"
	case RecencyPastYear:
		return strconv.Itoa(now.Year())
	case RecencyPast5Years:
		return fmt.Sprintf("since %d", now.Year()-5)
	}
	return ""
}

// ProviderRequest is the JSON body posted to a provider endpoint.
type ProviderRequest struct {
	Query   string         `json:"query"`
	Limit   int            `json:"limit,omitempty"`
	Filters map[string]any `json:"filters,omitempty"`
}

// Request builds the full request body for provider.
func (qb QueryBuilder) Request(q SearchQuery, provider ProviderID) ProviderRequest {
	req := ProviderRequest{
		Query: qb.Build(q, provider),
		Limit: q.Limit,
	}
	filters := make(map[string]any)
	now := qb.clock()
	switch provider {
	case ProviderBrave:
		if freshness, ok := braveFreshness[q.Recency]; ok {
			filters["freshness"] = freshness
		} else if window, ok := recencyWindows[q.Recency]; ok {
			filters["freshness"] = now.Add(-window).Format(time.DateOnly) + "to" + now.Format(time.DateOnly)
		}
	case ProviderExa:
		if q.AdvancedFilters != nil {
			if domains := sitesForAuthorities(q.AdvancedFilters.SourceAuthorities, maxIncludeDomains); len(domains) > 0 {
				filters["includeDomains"] = domains
			}
		}
		if window, ok := recencyWindows[q.Recency]; ok {
			filters["startPublishedDate"] = now.Add(-window).UTC().Format(time.RFC3339)
		}
		if q.Limit > 0 {
			filters["numResults"] = q.Limit
		}
		if q.AdvancedFilters != nil && q.AdvancedFilters.PeerReviewedOnly {
			filters["category"] = "research paper"
		}
	case ProviderPerplexity:
		if q.Specialty != "" {
			filters["specialty"] = q.Specialty
		}
		if len(q.EvidenceLevels) > 0 {
			filters["evidenceLevels"] = q.EvidenceLevels
		}
		if q.Recency != "" {
			filters["recency"] = string(q.Recency)
		}
		if adv := q.AdvancedFilters; adv != nil {
			addAdvancedFilters(filters, adv)
		}
	case ProviderClinicalTrials:
		condition := q.Specialty
		if adv := q.AdvancedFilters; adv != nil {
			condition = stringutil.FirstNonEmpty(condition, adv.Specialty)
			if len(adv.DiseaseCategories) > 0 {
				condition = stringutil.FirstNonEmpty(adv.DiseaseCategories[0], condition)
			}
		}
		if condition != "" {
			filters["condition"] = condition
		}
		if adv := q.AdvancedFilters; adv != nil && len(adv.TreatmentCategories) > 0 {
			filters["intervention"] = adv.TreatmentCategories[0]
		}
		if q.Limit > 0 {
			filters["pageSize"] = q.Limit
		}
	}
	if len(filters) > 0 {
		req.Filters = filters
	}
	return req
}

// addAdvancedFilters copies the set advanced fields into a provider filter map.
func addAdvancedFilters(filters map[string]any, adv *AdvancedFilters) {
	if adv.Subspecialty != "" {
		filters["subspecialty"] = adv.Subspecialty
	}
	if adv.Complexity != "" {
		filters["complexity"] = adv.Complexity
	}
	if audience := normalizedList(adv.Audience); len(audience) > 0 {
		filters["audience"] = audience
	}
	if geography := normalizedList(adv.Geography); len(geography) > 0 {
		filters["geography"] = geography
	}
	if len(adv.DiseaseCategories) > 0 {
		filters["diseaseCategories"] = adv.DiseaseCategories
	}
	if len(adv.TreatmentCategories) > 0 {
		filters["treatmentCategories"] = adv.TreatmentCategories
	}
	if adv.PeerReviewedOnly {
		filters["peerReviewedOnly"] = true
	}
	if adv.OpenAccessOnly {
		filters["openAccessOnly"] = true
	}
}
