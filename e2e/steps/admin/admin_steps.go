package admin

import (
	"context"

	"github.com/cucumber/godog"
)

const (
	tokenHeader   = "X-Admin-Token"
	actorIDHeader = "X-Admin-Actor-ID"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	PATCHWithHeaders(path string, body any, headers map[string]string) error
	GetRegistrationID() string
	GetAdminToken() string
}

// RegisterSteps registers admin-related step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &adminSteps{tc: tc}

	ctx.Step(`^an operator marks the registration as "([^"]*)"$`, steps.markRegistration)
	ctx.Step(`^an operator marks the registration as "([^"]*)" with payment id "([^"]*)"$`, steps.markRegistrationWithPayment)
	ctx.Step(`^an operator marks registration "([^"]*)" as "([^"]*)"$`, steps.markRegistrationByID)
	ctx.Step(`^an anonymous caller marks the registration as "([^"]*)"$`, steps.markWithoutToken)
}

type adminSteps struct {
	tc TestContext
}

func (s *adminSteps) markRegistration(ctx context.Context, status string) error {
	return s.patch(s.tc.GetRegistrationID(), status, "", s.adminHeaders())
}

func (s *adminSteps) markRegistrationWithPayment(ctx context.Context, status, paymentID string) error {
	return s.patch(s.tc.GetRegistrationID(), status, paymentID, s.adminHeaders())
}

func (s *adminSteps) markRegistrationByID(ctx context.Context, registrationID, status string) error {
	return s.patch(registrationID, status, "", s.adminHeaders())
}

func (s *adminSteps) markWithoutToken(ctx context.Context, status string) error {
	return s.patch(s.tc.GetRegistrationID(), status, "", nil)
}

func (s *adminSteps) adminHeaders() map[string]string {
	return map[string]string{
		tokenHeader:   s.tc.GetAdminToken(),
		actorIDHeader: "e2e-operator",
	}
}

func (s *adminSteps) patch(registrationID, status, paymentID string, headers map[string]string) error {
	body := map[string]any{
		"registrationId": registrationID,
		"paymentStatus":  status,
	}
	if paymentID != "" {
		body["paymentId"] = paymentID
	}
	return s.tc.PATCHWithHeaders("/api/registration", body, headers)
}
