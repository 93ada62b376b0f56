package e2e

import (
	"github.com/cucumber/godog"

	"clubhouse/e2e/steps/common"
	"clubhouse/e2e/steps/identity"
	"clubhouse/e2e/steps/ratelimit"
	"clubhouse/e2e/steps/society"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, w *World) {
	common.RegisterSteps(ctx, w)
	identity.RegisterSteps(ctx, w)
	society.RegisterSteps(ctx, w)
	ratelimit.RegisterSteps(ctx, w)
}
