package search

import (
	"slices"
	"strings"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
}

func TestBuildLegacyQueryUsesFirstTermsOnly(t *testing.T) {
	qb := NewQueryBuilder(fixedClock)
	q := SearchQuery{
		Query:          "sepsis",
		Specialty:      "critical care",
		EvidenceLevels: []EvidenceLevel{EvidenceRCT, EvidenceCohort},
		ContentTypes:   []ContentType{ContentJournalArticle, ContentClinicalGuideline},
	}
	got := qb.Build(q, ProviderBrave)
	want := "sepsis critical care randomized controlled trial journal article"
	if got != want {
		t.Fatalf("unexpected query:\n got: %q\nwant: %q", got, want)
	}
}

func TestBuildAdvancedQuery(t *testing.T) {
	qb := NewQueryBuilder(fixedClock)
	q := SearchQuery{
		Query:     "asthma management",
		Specialty: "pulmonology",
		Recency:   RecencyPastYear,
		AdvancedFilters: &AdvancedFilters{
			ContentTypes:      []string{"clinical-guidelines", "systematic-reviews", "rcts"},
			FileFormats:       []string{"pdf", "doc"},
			SourceAuthorities: []string{"government", "international"},
		},
	}

	got := qb.Build(q, ProviderBrave)
	want := "asthma management pulmonology clinical practice guidelines systematic review filetype:pdf (site:nih.gov OR site:cdc.gov OR site:fda.gov) 2026"
	if got != want {
		t.Fatalf("unexpected query:\n got: %q\nwant: %q", got, want)
	}
	if strings.Contains(got, "randomized") {
		t.Fatalf("only the first two content filters should be used")
	}

	trials := qb.Build(q, ProviderClinicalTrials)
	if trials != "asthma management pulmonology clinical practice guidelines systematic review 2026" {
		t.Fatalf("unexpected clinical trials query: %q", trials)
	}
}

func TestBuildAdvancedQuerySiteClause(t *testing.T) {
	qb := NewQueryBuilder(fixedClock)
	q := SearchQuery{
		Query:   "statins",
		Recency: RecencyPast5Years,
		AdvancedFilters: &AdvancedFilters{
			SourceAuthorities: []string{"journals"},
		},
	}
	got := qb.Build(q, ProviderExa)
	if !strings.Contains(got, "(site:nejm.org OR site:thelancet.com OR site:jamanetwork.com)") {
		t.Fatalf("expected capped site clause, got %q", got)
	}
	if !strings.HasSuffix(got, "since 2021") {
		t.Fatalf("expected five year hint, got %q", got)
	}
}

func TestBuildQueryTruncatesAtWordBoundary(t *testing.T) {
	q := SearchQuery{Query: strings.Repeat("hypertension ", 20)}
	got := NewQueryBuilder(fixedClock).Build(q, ProviderBrave)
	if len(got) > MaxQueryLength {
		t.Fatalf("query exceeds %d characters: %d", MaxQueryLength, len(got))
	}
	for _, word := range strings.Fields(got) {
		if word != "hypertension" {
			t.Fatalf("query contains a cut word %q", word)
		}
	}
}

func TestBuildQueryKeepsOversizedFirstWord(t *testing.T) {
	word := strings.Repeat("a", MaxQueryLength+10)
	q := SearchQuery{Query: word + " cardiology", Specialty: "cardiology"}
	if got := NewQueryBuilder(fixedClock).Build(q, ProviderBrave); got != word {
		t.Fatalf("expected the whole first word, got %d runes", len(got))
	}
}

func TestBuildQueryIsDeterministic(t *testing.T) {
	q := SearchQuery{
		Query:     "heart failure",
		Specialty: "cardiology",
		Recency:   RecencyPastMonth,
		AdvancedFilters: &AdvancedFilters{
			ContentTypes:      []string{"consensus-statements"},
			SourceAuthorities: []string{"medical-societies", "government"},
		},
	}
	qb := NewQueryBuilder(fixedClock)
	first := qb.Build(q, ProviderPerplexity)
	for i := 0; i < 5; i++ {
		if got := qb.Build(q, ProviderPerplexity); got != first {
			t.Fatalf("query changed between builds: %q vs %q", first, got)
		}
	}
	if !strings.HasSuffix(first, "recent") {
		t.Fatalf("expected recency phrase, got %q", first)
	}
}

func TestProviderRequestFilters(t *testing.T) {
	qb := NewQueryBuilder(fixedClock)
	q := SearchQuery{
		Query:     "migraine",
		Specialty: "neurology",
		Recency:   RecencyPastWeek,
		Limit:     5,
		AdvancedFilters: &AdvancedFilters{
			SourceAuthorities: []string{"government"},
		},
	}

	brave := qb.Request(q, ProviderBrave)
	if brave.Filters["freshness"] != "pw" {
		t.Fatalf("expected brave freshness pw, got %#v", brave.Filters)
	}

	exa := qb.Request(q, ProviderExa)
	domains, ok := exa.Filters["includeDomains"].([]string)
	if !ok || len(domains) != 4 || domains[0] != "nih.gov" {
		t.Fatalf("unexpected exa domains: %#v", exa.Filters["includeDomains"])
	}
	if exa.Filters["startPublishedDate"] != "2026-02-22T12:00:00Z" {
		t.Fatalf("unexpected exa start date: %#v", exa.Filters["startPublishedDate"])
	}

	trials := qb.Request(q, ProviderClinicalTrials)
	if trials.Filters["condition"] != "neurology" || trials.Filters["pageSize"] != 5 {
		t.Fatalf("unexpected clinical trials filters: %#v", trials.Filters)
	}

	plain := qb.Request(SearchQuery{Query: "x"}, ProviderBrave)
	if plain.Filters != nil {
		t.Fatalf("expected no filters, got %#v", plain.Filters)
	}
}

func TestProviderRequestForwardsAdvancedFields(t *testing.T) {
	qb := NewQueryBuilder(fixedClock)
	q := SearchQuery{
		Query: "heart failure",
		AdvancedFilters: &AdvancedFilters{
			Subspecialty:        "electrophysiology",
			Audience:            []string{"Clinician"},
			Complexity:          "advanced",
			Geography:           []string{"us"},
			DiseaseCategories:   []string{"heart failure"},
			TreatmentCategories: []string{"sglt2 inhibitors"},
			PeerReviewedOnly:    true,
			OpenAccessOnly:      true,
		},
	}

	perplexity := qb.Request(q, ProviderPerplexity)
	f := perplexity.Filters
	if f["subspecialty"] != "electrophysiology" || f["complexity"] != "advanced" ||
		f["peerReviewedOnly"] != true || f["openAccessOnly"] != true {
		t.Fatalf("unexpected perplexity filters: %#v", f)
	}
	if audience, ok := f["audience"].([]string); !ok || !slices.Equal(audience, []string{"clinician"}) {
		t.Fatalf("unexpected audience: %#v", f["audience"])
	}
	if treatments, ok := f["treatmentCategories"].([]string); !ok || len(treatments) != 1 {
		t.Fatalf("unexpected treatment categories: %#v", f["treatmentCategories"])
	}

	if exa := qb.Request(q, ProviderExa); exa.Filters["category"] != "research paper" {
		t.Fatalf("expected exa research paper category, got %#v", exa.Filters)
	}

	trials := qb.Request(q, ProviderClinicalTrials)
	if trials.Filters["condition"] != "heart failure" || trials.Filters["intervention"] != "sglt2 inhibitors" {
		t.Fatalf("unexpected clinical trials filters: %#v", trials.Filters)
	}

	if text := qb.Build(q, ProviderBrave); !strings.Contains(text, "electrophysiology") {
		t.Fatalf("expected subspecialty in query, got %q", text)
	}
}

func TestSearchQueryValidate(t *testing.T) {
	tests := []struct {
		name    string
		query   SearchQuery
		wantErr bool
	}{
		{name: "valid", query: SearchQuery{Query: "copd", Recency: RecencyPastYear, Limit: 10}},
		{name: "blank", query: SearchQuery{Query: "   "}, wantErr: true},
		{name: "bad recency", query: SearchQuery{Query: "copd", Recency: "yesterday"}, wantErr: true},
		{name: "negative limit", query: SearchQuery{Query: "copd", Limit: -1}, wantErr: true},
		{name: "bad evidence level", query: SearchQuery{Query: "copd", EvidenceLevels: []EvidenceLevel{"anecdote"}}, wantErr: true},
		{name: "bad file format", query: SearchQuery{Query: "copd", AdvancedFilters: &AdvancedFilters{FileFormats: []string{"exe"}}}, wantErr: true},
		{name: "valid advanced", query: SearchQuery{Query: "copd", AdvancedFilters: &AdvancedFilters{FileFormats: []string{"pdf"}, SourceAuthorities: []string{"academic"}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.query.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
