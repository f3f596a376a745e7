package search

import (
	"regexp"
	"strings"
)

type keywordRule[T any] struct {
	pattern *regexp.Regexp
	value   T
}

// Checked in order; the first match wins.
var evidenceRules = []keywordRule[EvidenceLevel]{
	{regexp.MustCompile(`systematic review|meta-analy|meta analy`), EvidenceSystematicReview},
	{regexp.MustCompile(`randomi[sz]ed controlled trial|\brct\b|\brcts\b`), EvidenceRCT},
	{regexp.MustCompile(`cohort|prospective`), EvidenceCohort},
	{regexp.MustCompile(`case-control|case control|retrospective`), EvidenceCaseControl},
	{regexp.MustCompile(`case series|case report`), EvidenceCaseSeries},
}

var contentRules = []keywordRule[ContentType]{
	{regexp.MustCompile(`guideline`), ContentClinicalGuideline},
	{regexp.MustCompile(`consensus|statement`), ContentConsensusStatement},
	{regexp.MustCompile(`practice bulletin|bulletin`), ContentPracticeBulletin},
	{regexp.MustCompile(`journal|article`), ContentJournalArticle},
}

func matchRules[T any](rules []keywordRule[T], text string, fallback T) T {
	text = strings.ToLower(text)
	for _, rule := range rules {
		if rule.pattern.MatchString(text) {
			return rule.value
		}
	}
	return fallback
}

// ClassifyEvidenceLevel infers the study design named in text.
func ClassifyEvidenceLevel(text string) EvidenceLevel {
	return matchRules(evidenceRules, text, EvidenceOther)
}

// ClassifyContentType infers the document type named in text.
func ClassifyContentType(text string) ContentType {
	return matchRules(contentRules, text, ContentOther)
}

// EvidenceLevelForPhases maps clinical trial phases to an evidence level,
// using the most advanced phase listed.
func EvidenceLevelForPhases(phases []string) EvidenceLevel {
	best := EvidenceOther
	rank := map[EvidenceLevel]int{EvidenceOther: 0, EvidenceLow: 1, EvidenceModerate: 2, EvidenceHigh: 3}
	for _, phase := range phases {
		level := evidenceLevelForPhase(phase)
		if rank[level] > rank[best] {
			best = level
		}
	}
	return best
}

func evidenceLevelForPhase(phase string) EvidenceLevel {
	normalized := strings.ToUpper(phase)
	normalized = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(normalized)
	switch {
	case strings.Contains(normalized, "PHASE3"), strings.Contains(normalized, "PHASE4"),
		strings.Contains(normalized, "PHASEIII"), strings.Contains(normalized, "PHASEIV"):
		return EvidenceHigh
	case strings.Contains(normalized, "PHASE2"), strings.Contains(normalized, "PHASEII"):
		return EvidenceModerate
	case strings.Contains(normalized, "PHASE1"), strings.Contains(normalized, "PHASEI"):
		return EvidenceLow
	}
	return EvidenceOther
}

// baselineRelevance decays with rank and never drops below 0.1.
func baselineRelevance(start, step float64, index int) float64 {
	return max(start-float64(index)*step, 0.1)
}
