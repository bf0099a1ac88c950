package models

import (
	"strings"
	"time"

	"coffeereg/pkg/validation"
)

// PaymentStatus is the payment state of a registration.
type PaymentStatus string

const (
	StatusPending PaymentStatus = "pending"
	StatusSuccess PaymentStatus = "success"
	StatusFailed  PaymentStatus = "failed"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusSuccess, StatusFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether a write from s to next is allowed. Success
// is final; a repeated success is allowed and treated as a no-op.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if !next.IsValid() {
		return false
	}
	if s == StatusSuccess {
		return next == StatusSuccess
	}
	return true
}

// Registration is one participant's entry for one competition.
type Registration struct {
	RegistrationID  string        `json:"registrationId"`
	Name            string        `json:"name"`
	Email           string        `json:"email"`
	Mobile          string        `json:"mobile"`
	Address         string        `json:"address"`
	City            string        `json:"city"`
	State           string        `json:"state"`
	PostalCode      string        `json:"pin"`
	NationalID      string        `json:"aadhaarNumber"`
	CompetitionID   string        `json:"competition"`
	CompetitionName string        `json:"competitionName"`
	Amount          float64       `json:"amount"`
	AcceptedTerms   bool          `json:"acceptedTerms"`
	PassportNumber  string        `json:"passportNumber,omitempty"`
	AttachmentRef   string        `json:"-"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	PaymentID       string        `json:"paymentId,omitempty"`
	OrderID         string        `json:"orderId,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// HasPassportAttachment reports whether an upload was stored.
func (r *Registration) HasPassportAttachment() bool {
	return r.AttachmentRef != ""
}

// UniquenessKey holds the personal identifiers that may appear on at most one
// successful registration.
type UniquenessKey struct {
	Email      string
	Mobile     string
	NationalID string
}

func (k UniquenessKey) IsEmpty() bool {
	return k.Email == "" && k.Mobile == "" && k.NationalID == ""
}

// Normalize lowercases the email and strips separators from the national ID
// so lookups match what Create stores.
func (k *UniquenessKey) Normalize() {
	k.Email = strings.ToLower(strings.TrimSpace(k.Email))
	k.Mobile = strings.TrimSpace(k.Mobile)
	k.NationalID = validation.NormalizeNationalID(k.NationalID)
}

// Matches reports which fields of k identify r.
func (k UniquenessKey) Matches(r *Registration) []string {
	var fields []string
	if k.Email != "" && k.Email == r.Email {
		fields = append(fields, "email")
	}
	if k.Mobile != "" && k.Mobile == r.Mobile {
		fields = append(fields, "mobile")
	}
	if k.NationalID != "" && k.NationalID == r.NationalID {
		fields = append(fields, "aadhaarNumber")
	}
	return fields
}

// StatusUpdate is a request to move a registration's payment status.
type StatusUpdate struct {
	RegistrationID string
	Status         PaymentStatus
	PaymentID      string
	Source         string
}

// Outcome is the result of applying a StatusUpdate.
type Outcome struct {
	Registration   *Registration
	PreviousStatus PaymentStatus
	// Applied is false when the stored record was left untouched: a stale
	// update after success, or a repeat of an already recorded success.
	Applied bool
}

// FirstSuccess reports whether this update moved the record into success.
// Exactly one update per registration can observe true.
func (o Outcome) FirstSuccess() bool {
	return o.Applied &&
		o.PreviousStatus != StatusSuccess &&
		o.Registration != nil &&
		o.Registration.PaymentStatus == StatusSuccess
}
