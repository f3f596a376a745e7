package savedresults

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	maxNotesLength = 2000
	maxTags        = 20
	maxTagLength   = 40
)

func (r SavedResult) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.ResultID, validation.Required, validation.RuneLength(1, 200)),
		validation.Field(&r.Provider, validation.Required),
		validation.Field(&r.Title, validation.Required, validation.RuneLength(1, 500)),
		validation.Field(&r.Notes, validation.RuneLength(0, maxNotesLength)),
		validation.Field(&r.Tags,
			validation.Length(0, maxTags),
			validation.Each(validation.RuneLength(1, maxTagLength)),
		),
	)
}
