package e2e

import (
	"github.com/cucumber/godog"

	"coffeereg/e2e/steps/admin"
	"coffeereg/e2e/steps/common"
	"coffeereg/e2e/steps/payment"
	"coffeereg/e2e/steps/registration"
)

// RegisterSteps registers all step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	registration.RegisterSteps(ctx, tc)
	payment.RegisterSteps(ctx, tc)
	admin.RegisterSteps(ctx, tc)
}
