package testutil

import (
	"fmt"
	"time"

	regmodels "coffeereg/internal/registration/models"
)

// FixtureTime is the creation time stamped on fixture registrations.
var FixtureTime = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

// Submission returns a complete submission for competitionID. Participant n
// gets its own email, mobile and aadhaar so fixtures never collide.
func Submission(competitionID string, n int) *regmodels.Submission {
	return &regmodels.Submission{
		Name:          fmt.Sprintf("Participant %d", n),
		Email:         fmt.Sprintf("participant%d@example.com", n),
		Mobile:        fmt.Sprintf("98%08d", n),
		Address:       "12 MG Road",
		City:          "Bengaluru",
		State:         "Karnataka",
		PostalCode:    "560001",
		NationalID:    fmt.Sprintf("1234%08d", n),
		CompetitionID: competitionID,
		AcceptedTerms: true,
	}
}

// Registration returns a stored registration for participant n in the given
// payment state.
func Registration(id, competitionID string, n int, status regmodels.PaymentStatus) *regmodels.Registration {
	sub := Submission(competitionID, n)
	return &regmodels.Registration{
		RegistrationID:  id,
		Name:            sub.Name,
		Email:           sub.Email,
		Mobile:          sub.Mobile,
		Address:         sub.Address,
		City:            sub.City,
		State:           sub.State,
		PostalCode:      sub.PostalCode,
		NationalID:      sub.NationalID,
		CompetitionID:   competitionID,
		CompetitionName: "National Barista Championship",
		Amount:          1180,
		AcceptedTerms:   true,
		PaymentStatus:   status,
		CreatedAt:       FixtureTime,
		UpdatedAt:       FixtureTime,
	}
}
