package search

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var notBlank = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
})

// Validate checks the query before any provider is resolved.
func (q SearchQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Query, validation.Required, notBlank, validation.RuneLength(1, 500)),
		validation.Field(&q.Recency, validation.In(
			RecencyPastDay, RecencyPastWeek, RecencyPastMonth, RecencyPastYear, RecencyPast5Years,
		)),
		validation.Field(&q.Limit, validation.Min(0), validation.Max(100)),
		validation.Field(&q.EvidenceLevels, validation.Each(validation.In(
			EvidenceSystematicReview, EvidenceRCT, EvidenceCohort, EvidenceCaseControl,
			EvidenceCaseSeries, EvidenceHigh, EvidenceModerate, EvidenceLow, EvidenceOther,
		))),
		validation.Field(&q.ContentTypes, validation.Each(validation.In(
			ContentClinicalGuideline, ContentConsensusStatement, ContentPracticeBulletin,
			ContentJournalArticle, ContentClinicalTrial, ContentOther,
		))),
		validation.Field(&q.AdvancedFilters),
	)
}

// Validate checks the categorical advanced filters.
func (f AdvancedFilters) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.FileFormats, validation.Each(validation.In("pdf", "doc", "ppt", "html"))),
		validation.Field(&f.SourceAuthorities, validation.Each(validation.In(
			AuthorityGovernment, AuthorityMedicalSocieties, AuthorityAcademic,
			AuthorityJournals, AuthorityInternational,
		))),
	)
}
