package models

import (
	"io"
	"strings"

	dErrors "coffeereg/pkg/domain-errors"
	s "coffeereg/pkg/string"
	"coffeereg/pkg/validation"
)

// Submission is the registration form as received from the client.
type Submission struct {
	Name           string   `validate:"notblank,max=120"`
	Email          string   `validate:"required,email,max=255"`
	Mobile         string   `validate:"in_mobile"`
	Address        string   `validate:"notblank,max=500"`
	City           string   `validate:"notblank,max=80"`
	State          string   `validate:"notblank,max=80"`
	PostalCode     string   `validate:"in_pin"`
	NationalID     string   `validate:"in_national_id"`
	CompetitionID  string   `validate:"notblank"`
	AcceptedTerms  bool     `validate:"eq=true"`
	PassportNumber string   `validate:"max=20"`
	Amount         *float64 `validate:"omitempty,gt=0"`

	Passport *Upload `validate:"-"`
}

// Upload is a passport scan attached to a multipart submission.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Accepted passport scan types.
var allowedUploadTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
}

// Normalize trims every field, lowercases the email, and canonicalises the
// national ID and passport number.
func (sub *Submission) Normalize() {
	s.TrimStrings(&sub.Name, &sub.Email, &sub.Mobile, &sub.City, &sub.State,
		&sub.PostalCode, &sub.CompetitionID, &sub.PassportNumber)
	sub.Name = s.CollapseSpaces(sub.Name)
	sub.Address = s.CollapseSpaces(sub.Address)
	sub.Email = strings.ToLower(sub.Email)
	sub.City = strings.ToLower(sub.City)
	sub.NationalID = validation.NormalizeNationalID(sub.NationalID)
	sub.PassportNumber = strings.ToUpper(sub.PassportNumber)
}

// Validate checks field formats. Rules that depend on the chosen competition
// live in the service.
func (sub *Submission) Validate() error {
	if err := validation.Validate(sub); err != nil {
		if strings.HasPrefix(err.Error(), "accepted_terms") {
			return dErrors.New(dErrors.CodeValidation, "terms and conditions must be accepted")
		}
		return err
	}
	if sub.Passport != nil && !allowedUploadTypes[sub.Passport.ContentType] {
		return dErrors.New(dErrors.CodeValidation, "passport upload must be a JPEG, PNG or PDF")
	}
	return nil
}

// Key returns the uniqueness identifiers of the submission.
func (sub *Submission) Key() UniquenessKey {
	return UniquenessKey{Email: sub.Email, Mobile: sub.Mobile, NationalID: sub.NationalID}
}
