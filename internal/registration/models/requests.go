package models

import (
	"strings"

	dErrors "coffeereg/pkg/domain-errors"
	"coffeereg/pkg/validation"
)

// RegistrationRequest is the JSON body of a registration submission. The
// multipart form uses the same field names plus a passportFile part.
type RegistrationRequest struct {
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Mobile         string   `json:"mobile"`
	Address        string   `json:"address"`
	City           string   `json:"city"`
	State          string   `json:"state"`
	Pin            string   `json:"pin"`
	AadhaarNumber  string   `json:"aadhaarNumber"`
	Competition    string   `json:"competition"`
	AcceptedTerms  bool     `json:"acceptedTerms"`
	PassportNumber string   `json:"passportNumber,omitempty"`
	Amount         *float64 `json:"amount,omitempty"`
}

func (r *RegistrationRequest) ToSubmission() *Submission {
	return &Submission{
		Name:           r.Name,
		Email:          r.Email,
		Mobile:         r.Mobile,
		Address:        r.Address,
		City:           r.City,
		State:          r.State,
		PostalCode:     r.Pin,
		NationalID:     r.AadhaarNumber,
		CompetitionID:  r.Competition,
		AcceptedTerms:  r.AcceptedTerms,
		PassportNumber: r.PassportNumber,
		Amount:         r.Amount,
	}
}

// RegistrationResponse answers a submission.
type RegistrationResponse struct {
	Success      bool          `json:"success"`
	Registration *Registration `json:"registration"`
	RetryAllowed bool          `json:"retryAllowed"`
}

// LookupResponse answers an existence check.
type LookupResponse struct {
	Exists       bool          `json:"exists"`
	Registration *Registration `json:"registration"`
}

// StatusUpdateRequest is the operator body for a manual status change.
type StatusUpdateRequest struct {
	RegistrationID string `json:"registrationId" validate:"notblank"`
	PaymentStatus  string `json:"paymentStatus" validate:"required,oneof=pending success failed"`
	PaymentID      string `json:"paymentId,omitempty" validate:"max=64"`
}

func (r *StatusUpdateRequest) Normalize() {
	r.RegistrationID = strings.TrimSpace(r.RegistrationID)
	r.PaymentStatus = strings.ToLower(strings.TrimSpace(r.PaymentStatus))
	r.PaymentID = strings.TrimSpace(r.PaymentID)
}

func (r *StatusUpdateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

// StatusUpdateResponse reports the stored record after a manual change.
type StatusUpdateResponse struct {
	Success      bool          `json:"success"`
	Applied      bool          `json:"applied"`
	Registration *Registration `json:"registration"`
}
