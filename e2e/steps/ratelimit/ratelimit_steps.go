package ratelimit

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(ctx context.Context, path string, body any) error
	As(address string)
	SetClientIP(ip string)
	SetAuthRateLimit(perMinute int) error
	LastStatus() int
	LastBody() []byte
}

// RegisterSteps registers per-client throttling steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &ratelimitSteps{tc: tc}
	ctx.Step(`^the auth rate limit is (\d+) requests per minute$`, tc.SetAuthRateLimit)
	ctx.Step(`^client "([^"]*)" requests (\d+) verification codes for "([^"]*)"$`, steps.requestsCodes)
	ctx.Step(`^(\d+) requests should have succeeded$`, steps.succeeded)
	ctx.Step(`^(\d+) requests should have been rejected with status (\d+)$`, steps.rejected)
	ctx.Step(`^client "([^"]*)" can still request a verification code for "([^"]*)"$`, steps.canStillRequest)
}

type ratelimitSteps struct {
	tc       TestContext
	statuses []int
}

func (s *ratelimitSteps) requestCode(ctx context.Context, ip, address string) error {
	s.tc.As("")
	s.tc.SetClientIP(ip)
	return s.tc.POST(ctx, "/auth/otp/request", map[string]string{"email": address})
}

func (s *ratelimitSteps) requestsCodes(ctx context.Context, ip string, n int, address string) error {
	s.statuses = s.statuses[:0]
	for range n {
		if err := s.requestCode(ctx, ip, address); err != nil {
			return err
		}
		s.statuses = append(s.statuses, s.tc.LastStatus())
	}
	return nil
}

func (s *ratelimitSteps) count(status int) int {
	n := 0
	for _, got := range s.statuses {
		if got == status {
			n++
		}
	}
	return n
}

func (s *ratelimitSteps) succeeded(_ context.Context, want int) error {
	if got := s.count(http.StatusOK); got != want {
		return fmt.Errorf("expected %d successful requests, got %d (%v)", want, got, s.statuses)
	}
	return nil
}

func (s *ratelimitSteps) rejected(_ context.Context, want, status int) error {
	if got := s.count(status); got != want {
		return fmt.Errorf("expected %d requests rejected with %d, got %d (%v)", want, status, got, s.statuses)
	}
	return nil
}

func (s *ratelimitSteps) canStillRequest(ctx context.Context, ip, address string) error {
	if err := s.requestCode(ctx, ip, address); err != nil {
		return err
	}
	if s.tc.LastStatus() != http.StatusOK {
		return fmt.Errorf("expected %s to be let through, got %d: %s", ip, s.tc.LastStatus(), s.tc.LastBody())
	}
	return nil
}
