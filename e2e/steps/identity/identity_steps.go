package identity

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
)

const password = "correct-horse-battery"

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(ctx context.Context, path string, body any) error
	As(address string)
	AllowAdmin(address string) error
	SetSession(address, token, personID string)
	LastStatus() int
	LastBody() []byte
	StringField(path string) (string, error)
	LatestCode(to string) (string, error)
}

// RegisterSteps registers OTP, registration and platform config steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &identitySteps{tc: tc}
	ctx.Step(`^the platform admin allow-list contains "([^"]*)"$`, tc.AllowAdmin)
	ctx.Step(`^"([^"]*)" registers as (admin|faculty|student)$`, steps.registersAs)
	ctx.Step(`^"([^"]*)" tries to register as (admin|faculty|student)$`, steps.triesToRegisterAs)
	ctx.Step(`^"([^"]*)" approves faculty "([^"]*)"$`, steps.approvesFaculty)
	ctx.Step(`^"([^"]*)" logs in$`, steps.logsIn)
	ctx.Step(`^"([^"]*)" should receive a verification code$`, steps.shouldReceiveCode)
}

type identitySteps struct {
	tc TestContext
}

func (s *identitySteps) registersAs(ctx context.Context, address, role string) error {
	if err := s.triesToRegisterAs(ctx, address, role); err != nil {
		return err
	}
	if s.tc.LastStatus() != http.StatusCreated {
		return fmt.Errorf("register %s as %s: status %d: %s", address, role, s.tc.LastStatus(), s.tc.LastBody())
	}
	return s.keepSession(address)
}

// triesToRegisterAs runs the full OTP flow without asserting the outcome.
func (s *identitySteps) triesToRegisterAs(ctx context.Context, address, role string) error {
	s.tc.As("")
	if err := s.tc.POST(ctx, "/auth/otp/request", map[string]string{"email": address}); err != nil {
		return err
	}
	if s.tc.LastStatus() != http.StatusOK {
		return fmt.Errorf("request code for %s: status %d: %s", address, s.tc.LastStatus(), s.tc.LastBody())
	}
	code, err := s.tc.LatestCode(address)
	if err != nil {
		return err
	}
	return s.tc.POST(ctx, "/auth/register/"+role, map[string]string{
		"email":    address,
		"code":     code,
		"password": password,
	})
}

func (s *identitySteps) approvesFaculty(ctx context.Context, admin, address string) error {
	s.tc.As(admin)
	if err := s.tc.POST(ctx, "/admin/config/faculty", map[string][]string{"emails": {address}}); err != nil {
		return err
	}
	if s.tc.LastStatus() != http.StatusOK {
		return fmt.Errorf("approve faculty %s: status %d: %s", address, s.tc.LastStatus(), s.tc.LastBody())
	}
	return nil
}

func (s *identitySteps) logsIn(ctx context.Context, address string) error {
	s.tc.As("")
	if err := s.tc.POST(ctx, "/auth/login", map[string]string{"email": address, "password": password}); err != nil {
		return err
	}
	if s.tc.LastStatus() != http.StatusOK {
		return fmt.Errorf("login %s: status %d: %s", address, s.tc.LastStatus(), s.tc.LastBody())
	}
	return s.keepSession(address)
}

func (s *identitySteps) shouldReceiveCode(_ context.Context, address string) error {
	_, err := s.tc.LatestCode(address)
	return err
}

func (s *identitySteps) keepSession(address string) error {
	token, err := s.tc.StringField("data.token")
	if err != nil {
		return err
	}
	personID, err := s.tc.StringField("data.user.id")
	if err != nil {
		return err
	}
	s.tc.SetSession(address, token, personID)
	return nil
}
