package search

import "testing"

func TestClassifyEvidenceLevel(t *testing.T) {
	tests := []struct {
		text string
		want EvidenceLevel
	}{
		{"A systematic review of statin therapy", EvidenceSystematicReview},
		{"Network meta-analysis of antihypertensives", EvidenceSystematicReview},
		{"A randomized controlled trial of metformin", EvidenceRCT},
		{"Results from an RCT in primary care", EvidenceRCT},
		{"A prospective cohort study of smokers", EvidenceCohort},
		{"Nested case-control analysis", EvidenceCaseControl},
		{"A retrospective chart review", EvidenceCaseControl},
		{"A case series of rare presentations", EvidenceCaseSeries},
		{"Case report: atypical pneumonia", EvidenceCaseSeries},
		{"Hypertension overview", EvidenceOther},
		// Earlier rules win.
		{"Systematic review of randomized controlled trials", EvidenceSystematicReview},
		{"Retrospective cohort analysis", EvidenceCohort},
		// rct must be a whole word.
		{"Arctic expedition medicine", EvidenceOther},
	}
	for _, tc := range tests {
		if got := ClassifyEvidenceLevel(tc.text); got != tc.want {
			t.Fatalf("ClassifyEvidenceLevel(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestClassifyContentType(t *testing.T) {
	tests := []struct {
		text string
		want ContentType
	}{
		{"2024 ACC/AHA Guideline for hypertension", ContentClinicalGuideline},
		{"Updated guidelines on sepsis", ContentClinicalGuideline},
		{"Expert consensus on anticoagulation", ContentConsensusStatement},
		{"Position statement from the ADA", ContentConsensusStatement},
		{"ACOG Practice Bulletin No. 222", ContentPracticeBulletin},
		{"Quarterly bulletin", ContentPracticeBulletin},
		{"Journal of Hypertension", ContentJournalArticle},
		{"Review article on asthma", ContentJournalArticle},
		{"Blood pressure calculator", ContentOther},
	}
	for _, tc := range tests {
		if got := ClassifyContentType(tc.text); got != tc.want {
			t.Fatalf("ClassifyContentType(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestEvidenceLevelForPhases(t *testing.T) {
	tests := []struct {
		phases []string
		want   EvidenceLevel
	}{
		{[]string{"PHASE3"}, EvidenceHigh},
		{[]string{"PHASE4"}, EvidenceHigh},
		{[]string{"PHASE2"}, EvidenceModerate},
		{[]string{"PHASE1", "PHASE2"}, EvidenceModerate},
		{[]string{"PHASE1"}, EvidenceLow},
		{[]string{"EARLY_PHASE1"}, EvidenceLow},
		{[]string{"Phase III"}, EvidenceHigh},
		{[]string{"NA"}, EvidenceOther},
		{nil, EvidenceOther},
	}
	for _, tc := range tests {
		if got := EvidenceLevelForPhases(tc.phases); got != tc.want {
			t.Fatalf("EvidenceLevelForPhases(%v) = %q, want %q", tc.phases, got, tc.want)
		}
	}
}

func TestBaselineRelevance(t *testing.T) {
	if got := baselineRelevance(0.9, 0.1, 0); got != 0.9 {
		t.Fatalf("expected 0.9, got %v", got)
	}
	if got := baselineRelevance(0.9, 0.1, 20); got != 0.1 {
		t.Fatalf("expected floor 0.1, got %v", got)
	}
}
