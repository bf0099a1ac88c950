package registration

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/url"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	SetRegistration(id, email string, amount float64)
	MailsTo(addr string) int
}

// RegisterSteps registers registration step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &registrationSteps{tc: tc}

	ctx.Step(`^I list the competitions$`, steps.listCompetitions)

	ctx.Step(`^I register "([^"]*)" with email "([^"]*)" for "([^"]*)"$`, steps.register)
	ctx.Step(`^I register "([^"]*)" with email "([^"]*)" for "([^"]*)" without accepting the terms$`, steps.registerWithoutTerms)
	ctx.Step(`^I register "([^"]*)" with email "([^"]*)" for "([^"]*)" declaring an amount of (\d+)$`, steps.registerWithAmount)
	ctx.Step(`^I look up the registration by email "([^"]*)"$`, steps.lookupByEmail)

	ctx.Step(`^the registration for "([^"]*)" should be "([^"]*)"$`, steps.registrationShouldBe)
	ctx.Step(`^"([^"]*)" should have received (\d+) confirmation emails?$`, steps.shouldHaveReceivedMails)
}

type registrationSteps struct {
	tc TestContext
}

func (s *registrationSteps) listCompetitions(ctx context.Context) error {
	return s.tc.GET("/api/competitions", nil)
}

func (s *registrationSteps) register(ctx context.Context, name, email, competition string) error {
	return s.submit(name, email, competition, nil)
}

func (s *registrationSteps) registerWithoutTerms(ctx context.Context, name, email, competition string) error {
	return s.submit(name, email, competition, func(body map[string]any) {
		body["acceptedTerms"] = false
	})
}

func (s *registrationSteps) registerWithAmount(ctx context.Context, name, email, competition string, amount int) error {
	return s.submit(name, email, competition, func(body map[string]any) {
		body["amount"] = amount
	})
}

func (s *registrationSteps) submit(name, email, competition string, edit func(map[string]any)) error {
	competitionID, err := s.competitionID(competition)
	if err != nil {
		return err
	}

	mobile, aadhaar := identifiersFor(email)
	body := map[string]any{
		"name":          name,
		"email":         email,
		"mobile":        mobile,
		"address":       "12 MG Road",
		"city":          "Bengaluru",
		"state":         "Karnataka",
		"pin":           "560001",
		"aadhaarNumber": aadhaar,
		"competition":   competitionID,
		"acceptedTerms": true,
	}
	if edit != nil {
		edit(body)
	}
	if err := s.tc.POST("/api/registration", body); err != nil {
		return err
	}

	status := s.tc.GetLastResponseStatus()
	if status != 200 && status != 201 {
		return nil
	}
	id, err := s.tc.GetResponseField("registration.registrationId")
	if err != nil {
		return err
	}
	amount, err := s.tc.GetResponseField("registration.amount")
	if err != nil {
		return err
	}
	s.tc.SetRegistration(fmt.Sprint(id), email, amount.(float64))
	return nil
}

func (s *registrationSteps) competitionID(name string) (string, error) {
	if err := s.tc.GET("/api/competitions", nil); err != nil {
		return "", err
	}
	var list []struct {
		ID   string `json:"_id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &list); err != nil {
		return "", fmt.Errorf("failed to parse catalog: %w", err)
	}
	for _, c := range list {
		if c.Name == name {
			return c.ID, nil
		}
	}
	return "", fmt.Errorf("competition %q not in catalog", name)
}

func (s *registrationSteps) lookupByEmail(ctx context.Context, email string) error {
	return s.tc.GET("/api/registration?email="+url.QueryEscape(email), nil)
}

func (s *registrationSteps) registrationShouldBe(ctx context.Context, email, status string) error {
	if err := s.lookupByEmail(ctx, email); err != nil {
		return err
	}
	got, err := s.tc.GetResponseField("registration.paymentStatus")
	if err != nil {
		return err
	}
	if fmt.Sprint(got) != status {
		return fmt.Errorf("registration for %s: expected %s but got %v", email, status, got)
	}
	return nil
}

func (s *registrationSteps) shouldHaveReceivedMails(ctx context.Context, email string, n int) error {
	if got := s.tc.MailsTo(email); got != n {
		return fmt.Errorf("expected %d confirmation emails to %s but got %d", n, email, got)
	}
	return nil
}

// identifiersFor derives a stable mobile number and national ID from email so
// repeated submissions by the same person collide the way real ones do.
func identifiersFor(email string) (mobile, aadhaar string) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(email))
	sum := h.Sum64()
	return fmt.Sprintf("9%09d", sum%1_000_000_000), fmt.Sprintf("%012d", (sum/7)%1_000_000_000_000)
}
