package search

import (
	"slices"
	"strings"
)

// applyAdvancedFilters drops results that fail the file-format, authority,
// open-access or peer-review filters. The content-type, audience and
// geography filters only narrow the set when at least one result matches.
func applyAdvancedFilters(entries []rankedResult, f *AdvancedFilters) []rankedResult {
	if formats := normalizedList(f.FileFormats); len(formats) > 0 {
		entries = slices.DeleteFunc(entries, func(e rankedResult) bool {
			return !slices.Contains(formats, resultFormat(e.result))
		})
	}
	if authorities := normalizedList(f.SourceAuthorities); len(authorities) > 0 {
		entries = slices.DeleteFunc(entries, func(e rankedResult) bool {
			return !slices.Contains(authorities, resultAuthority(e.result))
		})
	}
	if f.OpenAccessOnly {
		entries = slices.DeleteFunc(entries, func(e rankedResult) bool {
			return resultAccess(e.result) != "open"
		})
	}
	if f.PeerReviewedOnly {
		entries = slices.DeleteFunc(entries, func(e rankedResult) bool {
			return !isPeerReviewed(e.result)
		})
	}
	if keys := normalizedList(f.ContentTypes); len(keys) > 0 {
		entries = narrow(entries, func(r SearchResult) bool {
			return matchesContentFilter(r, keys)
		})
	}
	if audiences := normalizedList(f.Audience); len(audiences) > 0 {
		entries = narrow(entries, func(r SearchResult) bool {
			return slices.Contains(audiences, resultAudience(r))
		})
	}
	if regions := normalizedList(f.Geography); len(regions) > 0 {
		entries = narrow(entries, func(r SearchResult) bool {
			return slices.Contains(regions, resultGeography(r))
		})
	}
	return entries
}

// narrow keeps the entries matching keep, or all of them when none match.
func narrow(entries []rankedResult, keep func(SearchResult) bool) []rankedResult {
	matched := make([]rankedResult, 0, len(entries))
	for _, e := range entries {
		if keep(e.result) {
			matched = append(matched, e)
		}
	}
	if len(matched) == 0 {
		return entries
	}
	return matched
}

func normalizedList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func resultFormat(r SearchResult) string {
	if r.Metadata != nil && r.Metadata.Format != "" {
		return r.Metadata.Format
	}
	return detectFormat(r)
}

func resultAuthority(r SearchResult) string {
	if r.Metadata != nil && r.Metadata.Authority != "" {
		return r.Metadata.Authority
	}
	return authorityForHost(hostOf(r.URL))
}

func resultAccess(r SearchResult) string {
	if r.Metadata != nil && r.Metadata.Access != "" {
		return r.Metadata.Access
	}
	return detectAccess(hostOf(r.URL), strings.ToLower(r.Title+" "+r.Snippet))
}

func resultAudience(r SearchResult) string {
	if r.Metadata != nil && r.Metadata.Audience != "" {
		return r.Metadata.Audience
	}
	return detectAudience(hostOf(r.URL), strings.ToLower(r.Title+" "+r.Snippet), r.ContentType)
}

func resultGeography(r SearchResult) string {
	if r.Metadata != nil && r.Metadata.Geography != "" {
		return r.Metadata.Geography
	}
	return detectGeography(hostOf(r.URL))
}

// isPeerReviewed reports whether r comes from a journal or reads as published
// research. Trial registry entries are not peer reviewed.
func isPeerReviewed(r SearchResult) bool {
	if r.ContentType == ContentClinicalTrial {
		return false
	}
	if resultAuthority(r) == AuthorityJournals || r.ContentType == ContentJournalArticle {
		return true
	}
	switch r.EvidenceLevel {
	case EvidenceSystematicReview, EvidenceRCT, EvidenceCohort, EvidenceCaseControl, EvidenceCaseSeries:
		return true
	}
	return false
}

func matchesContentFilter(r SearchResult, keys []string) bool {
	text := strings.ToLower(r.Title + " " + r.Snippet)
	for _, key := range keys {
		switch key {
		case "clinical-guidelines":
			if r.ContentType == ContentClinicalGuideline {
				return true
			}
		case "systematic-reviews", "meta-analyses":
			if r.EvidenceLevel == EvidenceSystematicReview {
				return true
			}
		case "rcts":
			if r.EvidenceLevel == EvidenceRCT {
				return true
			}
		case "consensus-statements":
			if r.ContentType == ContentConsensusStatement {
				return true
			}
		case "practice-bulletins":
			if r.ContentType == ContentPracticeBulletin {
				return true
			}
		case "case-reports":
			if r.EvidenceLevel == EvidenceCaseSeries {
				return true
			}
		case "clinical-trials":
			if r.ContentType == ContentClinicalTrial || r.EvidenceLevel == EvidenceRCT {
				return true
			}
		default:
			if strings.Contains(text, contentFilterTerm(key)) {
				return true
			}
		}
	}
	return false
}
