package models

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "coffeereg/pkg/domain-errors"
)

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to PaymentStatus
		allowed  bool
	}{
		{StatusPending, StatusSuccess, true},
		{StatusPending, StatusFailed, true},
		{StatusFailed, StatusSuccess, true},
		{StatusFailed, StatusFailed, true},
		{StatusSuccess, StatusSuccess, true},
		{StatusSuccess, StatusFailed, false},
		{StatusSuccess, StatusPending, false},
		{StatusPending, PaymentStatus("refunded"), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestOutcomeFirstSuccess(t *testing.T) {
	success := &Registration{PaymentStatus: StatusSuccess}
	failed := &Registration{PaymentStatus: StatusFailed}

	assert.True(t, Outcome{Registration: success, PreviousStatus: StatusPending, Applied: true}.FirstSuccess())
	assert.True(t, Outcome{Registration: success, PreviousStatus: StatusFailed, Applied: true}.FirstSuccess())
	assert.False(t, Outcome{Registration: success, PreviousStatus: StatusSuccess, Applied: true}.FirstSuccess())
	assert.False(t, Outcome{Registration: success, PreviousStatus: StatusPending, Applied: false}.FirstSuccess())
	assert.False(t, Outcome{Registration: failed, PreviousStatus: StatusPending, Applied: true}.FirstSuccess())
}

func TestUniquenessKeyMatches(t *testing.T) {
	reg := &Registration{Email: "asha@example.com", Mobile: "9876543210", NationalID: "123456789012"}

	key := UniquenessKey{Email: " Asha@Example.com ", NationalID: "1234 5678 9012"}
	key.Normalize()

	assert.Equal(t, []string{"email", "aadhaarNumber"}, key.Matches(reg))
	assert.Empty(t, UniquenessKey{Mobile: "9000000000"}.Matches(reg))
	assert.True(t, UniquenessKey{}.IsEmpty())
}

func validSubmission() Submission {
	return Submission{
		Name:          "  Asha   Rao ",
		Email:         "Asha@Example.com",
		Mobile:        "9876543210",
		Address:       "12 MG Road",
		City:          "Bangalore",
		State:         "Karnataka",
		PostalCode:    "560001",
		NationalID:    "1234 5678 9012",
		CompetitionID: "64b7f0c2a1b2c3d4e5f60718",
		AcceptedTerms: true,
	}
}

func TestSubmissionNormalize(t *testing.T) {
	sub := validSubmission()
	sub.PassportNumber = " z1234567 "
	sub.Normalize()

	assert.Equal(t, "Asha Rao", sub.Name)
	assert.Equal(t, "asha@example.com", sub.Email)
	assert.Equal(t, "bangalore", sub.City)
	assert.Equal(t, "123456789012", sub.NationalID)
	assert.Equal(t, "Z1234567", sub.PassportNumber)
	require.NoError(t, sub.Validate())
}

func TestSubmissionValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Submission)
		message string
	}{
		{"missing name", func(s *Submission) { s.Name = "" }, "name is required"},
		{"bad email", func(s *Submission) { s.Email = "asha.example.com" }, "email must be a valid email"},
		{"landline mobile", func(s *Submission) { s.Mobile = "0801234567" }, "mobile must be"},
		{"short pin", func(s *Submission) { s.PostalCode = "5600" }, "postal_code must be"},
		{"short national id", func(s *Submission) { s.NationalID = "1234" }, "national_id must be"},
		{"terms not accepted", func(s *Submission) { s.AcceptedTerms = false }, "terms and conditions must be accepted"},
		{"no competition", func(s *Submission) { s.CompetitionID = "" }, "competition_id is required"},
		{"negative amount", func(s *Submission) { v := -5.0; s.Amount = &v }, "amount must be greater than 0"},
		{"exe upload", func(s *Submission) {
			s.Passport = &Upload{Filename: "passport.exe", ContentType: "application/octet-stream", Content: strings.NewReader("MZ")}
		}, "passport upload must be"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sub := validSubmission()
			sub.Normalize()
			tc.mutate(&sub)
			err := sub.Validate()
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestIDGeneratorFormat(t *testing.T) {
	at := time.UnixMilli(1735689600123)
	g := NewIDGenerator("CFC2025").WithClock(func() time.Time { return at })

	assert.Equal(t, "CFC20251735689600123", g.Next())
	assert.Equal(t, "CFC20251735689600124", g.Next(), "same millisecond bumps forward")
}

func TestIDGeneratorUniqueUnderConcurrency(t *testing.T) {
	g := NewIDGenerator("CFC2025")
	var mu sync.Mutex
	seen := make(map[string]struct{})
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := g.Next()
			mu.Lock()
			seen[id] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 50)
}
