package search

// ProviderID identifies one search backend.
type ProviderID string

const (
	ProviderBrave          ProviderID = "brave"
	ProviderExa            ProviderID = "exa"
	ProviderPerplexity     ProviderID = "perplexity"
	ProviderClinicalTrials ProviderID = "clinicaltrials"
)

// EvidenceLevel is a coarse literature classification inferred from text or trial phase.
type EvidenceLevel string

const (
	EvidenceSystematicReview EvidenceLevel = "systematic-review"
	EvidenceRCT              EvidenceLevel = "rct"
	EvidenceCohort           EvidenceLevel = "cohort"
	EvidenceCaseControl      EvidenceLevel = "case-control"
	EvidenceCaseSeries       EvidenceLevel = "case-series"
	EvidenceHigh             EvidenceLevel = "high"
	EvidenceModerate         EvidenceLevel = "moderate"
	EvidenceLow              EvidenceLevel = "low"
	EvidenceOther            EvidenceLevel = "other"
)

// ContentType is a coarse document classification inferred from text.
type ContentType string

const (
	ContentClinicalGuideline  ContentType = "clinical-guideline"
	ContentConsensusStatement ContentType = "consensus-statement"
	ContentPracticeBulletin   ContentType = "practice-bulletin"
	ContentJournalArticle     ContentType = "journal-article"
	ContentClinicalTrial      ContentType = "clinical-trial"
	ContentOther              ContentType = "other"
)

// Recency is a publication time window.
type Recency string

const (
	RecencyPastDay    Recency = "past-day"
	RecencyPastWeek   Recency = "past-week"
	RecencyPastMonth  Recency = "past-month"
	RecencyPastYear   Recency = "past-year"
	RecencyPast5Years Recency = "past-5-years"
)

// ResponseStatus is the outcome of a single provider call.
type ResponseStatus string

const (
	StatusSuccess ResponseStatus = "success"
	StatusPartial ResponseStatus = "partial"
	StatusError   ResponseStatus = "error"
)

// SearchQuery is the caller's structured medical literature query.
type SearchQuery struct {
	Query           string           `json:"query"`
	Specialty       string           `json:"specialty,omitempty"`
	EvidenceLevels  []EvidenceLevel  `json:"evidenceLevels,omitempty"`
	ContentTypes    []ContentType    `json:"contentTypes,omitempty"`
	Recency         Recency          `json:"recency,omitempty"`
	Limit           int              `json:"limit,omitempty"`
	Providers       []ProviderID     `json:"providers,omitempty"`
	AdvancedFilters *AdvancedFilters `json:"advancedFilters,omitempty"`
}

// AdvancedFilters narrows a query beyond the legacy evidence/content lists.
// Content types, file formats and source authorities shape the outgoing query.
// Formats, authorities, open access and peer review filter results strictly;
// content types, audience and geography only narrow when something matches.
// Every set field is also forwarded in the perplexity request filters.
type AdvancedFilters struct {
	ContentTypes        []string `json:"contentTypes,omitempty"`
	FileFormats         []string `json:"fileFormats,omitempty"`
	SourceAuthorities   []string `json:"sourceAuthorities,omitempty"`
	Specialty           string   `json:"specialty,omitempty"`
	Subspecialty        string   `json:"subspecialty,omitempty"`
	Audience            []string `json:"audience,omitempty"`
	Complexity          string   `json:"complexity,omitempty"`
	DiseaseCategories   []string `json:"diseaseCategories,omitempty"`
	TreatmentCategories []string `json:"treatmentCategories,omitempty"`
	PeerReviewedOnly    bool     `json:"peerReviewedOnly,omitempty"`
	OpenAccessOnly      bool     `json:"openAccessOnly,omitempty"`
	Geography           []string `json:"geography,omitempty"`
}

// SearchResult is the canonical result shape every provider payload is mapped into.
type SearchResult struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	URL            string          `json:"url"`
	Snippet        string          `json:"snippet"`
	Source         string          `json:"source"`
	Provider       ProviderID      `json:"provider"`
	RelevanceScore float64         `json:"relevanceScore"`
	Confidence     float64         `json:"confidence"`
	EvidenceLevel  EvidenceLevel   `json:"evidenceLevel,omitempty"`
	ContentType    ContentType     `json:"contentType,omitempty"`
	PublishedDate  string          `json:"publishedDate,omitempty"`
	Metadata       *ResultMetadata `json:"metadata,omitempty"`
}

// ResultMetadata is populated opportunistically and never required.
type ResultMetadata struct {
	Authority   string   `json:"authority,omitempty"`
	Audience    string   `json:"audience,omitempty"`
	Format      string   `json:"format,omitempty"`
	Access      string   `json:"access,omitempty"`
	Geography   string   `json:"geography,omitempty"`
	Author      string   `json:"author,omitempty"`
	TrialID     string   `json:"trialId,omitempty"`
	TrialPhase  string   `json:"trialPhase,omitempty"`
	TrialStatus string   `json:"trialStatus,omitempty"`
	Conditions  []string `json:"conditions,omitempty"`
}

// SearchResponse is the normalized outcome of one provider call.
type SearchResponse struct {
	Results       []SearchResult `json:"results"`
	TotalCount    int            `json:"totalCount"`
	TookMs        int64          `json:"searchTime"`
	Provider      ProviderID     `json:"provider"`
	Query         string         `json:"query"`
	Status        ResponseStatus `json:"status"`
	Error         string         `json:"error,omitempty"`
	Summary       string         `json:"summary,omitempty"`
	EvidenceLevel EvidenceLevel  `json:"evidenceLevel,omitempty"`
	KeyFindings   []string       `json:"keyFindings,omitempty"`
}

// ProviderFailure records one provider that did not contribute results.
type ProviderFailure struct {
	Provider ProviderID `json:"provider"`
	Error    string     `json:"error"`
}

// AggregatedSearchResponse is the merged, ranked result of an orchestrator call.
type AggregatedSearchResponse struct {
	RequestID           string            `json:"requestId"`
	Results             []SearchResult    `json:"results"`
	TotalCount          int               `json:"totalCount"`
	TookMs              int64             `json:"searchTime"`
	Providers           []ProviderID      `json:"providers"`
	Query               string            `json:"query"`
	SuccessfulProviders int               `json:"successfulProviders"`
	FailedProviders     []ProviderFailure `json:"failedProviders"`
	Summary             string            `json:"summary,omitempty"`
	EvidenceLevel       EvidenceLevel     `json:"evidenceLevel,omitempty"`
	KeyFindings         []string          `json:"keyFindings,omitempty"`
}
