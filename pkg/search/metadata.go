package search

import (
	"net/url"
	"path"
	"slices"
	"strings"
)

// Authority categories accepted in AdvancedFilters.SourceAuthorities.
const (
	AuthorityGovernment       = "government"
	AuthorityMedicalSocieties = "medical-societies"
	AuthorityAcademic         = "academic"
	AuthorityJournals         = "journals"
	AuthorityInternational    = "international"
)

// authoritySites lists the domains behind each authority category, most
// authoritative first. Site clauses use the first entries.
var authoritySites = map[string][]string{
	AuthorityGovernment:       {"nih.gov", "cdc.gov", "fda.gov", "ahrq.gov"},
	AuthorityMedicalSocieties: {"acc.org", "heart.org", "acog.org", "idsociety.org", "diabetes.org"},
	AuthorityAcademic:         {"mayoclinic.org", "hopkinsmedicine.org", "clevelandclinic.org", "harvard.edu"},
	AuthorityJournals:         {"nejm.org", "thelancet.com", "jamanetwork.com", "bmj.com", "nature.com"},
	AuthorityInternational:    {"who.int", "nice.org.uk", "ema.europa.eu", "cochranelibrary.com"},
}

var authorityOrder = []string{
	AuthorityGovernment,
	AuthorityMedicalSocieties,
	AuthorityAcademic,
	AuthorityJournals,
	AuthorityInternational,
}

var openAccessHosts = []string{
	"ncbi.nlm.nih.gov", "europepmc.org", "plos.org", "biomedcentral.com",
	"frontiersin.org", "mdpi.com", "clinicaltrials.gov",
}

var patientAudienceHosts = []string{"medlineplus.gov", "healthline.com", "webmd.com"}

func hostOf(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}

func hostMatches(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// authorityForHost returns the authority category of host, or "".
func authorityForHost(host string) string {
	for _, category := range authorityOrder {
		for _, domain := range authoritySites[category] {
			if hostMatches(host, domain) {
				return category
			}
		}
	}
	if strings.HasSuffix(host, ".gov") {
		return AuthorityGovernment
	}
	if strings.HasSuffix(host, ".edu") {
		return AuthorityAcademic
	}
	return ""
}

// detectFormat sniffs the document format from the URL path, then from
// markers in the title or snippet.
func detectFormat(r SearchResult) string {
	if parsed, err := url.Parse(r.URL); err == nil {
		switch strings.ToLower(path.Ext(parsed.Path)) {
		case ".pdf":
			return "pdf"
		case ".doc", ".docx":
			return "doc"
		case ".ppt", ".pptx":
			return "ppt"
		}
	}
	text := strings.ToLower(r.Title + " " + r.Snippet)
	switch {
	case strings.Contains(text, "[pdf]"), strings.Contains(text, "(pdf)"), strings.Contains(text, "pdf download"):
		return "pdf"
	case strings.Contains(text, "powerpoint"), strings.Contains(text, "slide deck"):
		return "ppt"
	}
	return "html"
}

func detectAccess(host, text string) string {
	for _, domain := range openAccessHosts {
		if hostMatches(host, domain) {
			return "open"
		}
	}
	if strings.Contains(text, "open access") || strings.Contains(text, "free full text") {
		return "open"
	}
	return ""
}

func detectAudience(host, text string, contentType ContentType) string {
	for _, domain := range patientAudienceHosts {
		if hostMatches(host, domain) {
			return "patient"
		}
	}
	switch {
	case strings.Contains(text, "patient education"), strings.Contains(text, "for patients"):
		return "patient"
	case contentType == ContentClinicalGuideline, contentType == ContentPracticeBulletin:
		return "clinician"
	case contentType == ContentClinicalTrial:
		return "researcher"
	}
	return ""
}

func detectGeography(host string) string {
	switch {
	case strings.HasSuffix(host, ".gov"):
		return "us"
	case strings.HasSuffix(host, ".uk"):
		return "uk"
	case strings.HasSuffix(host, ".eu"):
		return "eu"
	case strings.HasSuffix(host, ".int"):
		return "international"
	}
	return ""
}

// enrichMetadata fills empty metadata fields without overwriting provider data.
func enrichMetadata(r *SearchResult) {
	host := hostOf(r.URL)
	text := strings.ToLower(r.Title + " " + r.Snippet)
	if r.Metadata == nil {
		r.Metadata = &ResultMetadata{}
	}
	m := r.Metadata
	if m.Authority == "" {
		m.Authority = authorityForHost(host)
	}
	if m.Format == "" {
		m.Format = detectFormat(*r)
	}
	if m.Access == "" {
		m.Access = detectAccess(host, text)
	}
	if m.Audience == "" {
		m.Audience = detectAudience(host, text, r.ContentType)
	}
	if m.Geography == "" {
		m.Geography = detectGeography(host)
	}
}

// sitesForAuthorities expands categories to deduplicated domains, capped at limit.
func sitesForAuthorities(categories []string, limit int) []string {
	var sites []string
	for _, category := range categories {
		for _, domain := range authoritySites[strings.ToLower(strings.TrimSpace(category))] {
			if slices.Contains(sites, domain) {
				continue
			}
			sites = append(sites, domain)
			if len(sites) >= limit {
				return sites
			}
		}
	}
	return sites
}
