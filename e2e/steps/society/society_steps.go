package society

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/cucumber/godog"

	"clubhouse/internal/mailer"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(ctx context.Context, path string) error
	POST(ctx context.Context, path string, body any) error
	As(address string)
	SetSession(address, token, personID string)
	PersonID(address string) (string, error)
	Remember(key, value string)
	Recall(key string) (string, error)
	LastStatus() int
	LastBody() []byte
	StringField(path string) (string, error)
	LatestMail(to string) (mailer.Message, bool)
}

// RegisterSteps registers college, society, invite and roster steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &societySteps{tc: tc}
	ctx.Step(`^"([^"]*)" creates college "([^"]*)"$`, steps.createsCollege)
	ctx.Step(`^"([^"]*)" creates society "([^"]*)" in college "([^"]*)"$`, steps.createsSociety)
	ctx.Step(`^"([^"]*)" invites "([^"]*)" to "([^"]*)" as (CORE|HEAD|MEMBER|PRESIDENT)$`, steps.invites)
	ctx.Step(`^"([^"]*)" should receive an invitation to "([^"]*)"$`, steps.shouldReceiveInvitation)
	ctx.Step(`^"([^"]*)" signs up with the invite$`, steps.signsUpWithInvite)
	ctx.Step(`^"([^"]*)" accepts the invite again$`, steps.acceptsAgain)
	ctx.Step(`^the roster of "([^"]*)" as seen by "([^"]*)" should list "([^"]*)" as (CORE|HEAD|MEMBER)$`, steps.rosterShouldList)
}

type societySteps struct {
	tc TestContext
}

func (s *societySteps) expect(status int, what string) error {
	if s.tc.LastStatus() != status {
		return fmt.Errorf("%s: expected status %d, got %d: %s", what, status, s.tc.LastStatus(), s.tc.LastBody())
	}
	return nil
}

func (s *societySteps) createsCollege(ctx context.Context, admin, name string) error {
	s.tc.As(admin)
	if err := s.tc.POST(ctx, "/admin/colleges", map[string]string{"name": name, "admin_email": admin}); err != nil {
		return err
	}
	if err := s.expect(http.StatusCreated, "create college"); err != nil {
		return err
	}
	return s.remember("college:"+name, "data.id")
}

func (s *societySteps) createsSociety(ctx context.Context, faculty, name, college string) error {
	collegeID, err := s.tc.Recall("college:" + college)
	if err != nil {
		return err
	}
	s.tc.As(faculty)
	if err := s.tc.POST(ctx, "/societies", map[string]string{"college_id": collegeID, "name": name}); err != nil {
		return err
	}
	if err := s.expect(http.StatusCreated, "create society"); err != nil {
		return err
	}
	return s.remember("society:"+name, "data.id")
}

// invites leaves the response for later assertions and remembers the token
// only when the invite was created.
func (s *societySteps) invites(ctx context.Context, issuer, invitee, society, role string) error {
	societyID, err := s.tc.Recall("society:" + society)
	if err != nil {
		return err
	}
	s.tc.As(issuer)
	if err := s.tc.POST(ctx, "/societies/"+societyID+"/invites", map[string]string{"email": invitee, "role": role}); err != nil {
		return err
	}
	if s.tc.LastStatus() != http.StatusCreated {
		return nil
	}
	return s.remember("invite:"+invitee, "data.invite.token")
}

func (s *societySteps) shouldReceiveInvitation(_ context.Context, invitee, society string) error {
	token, err := s.tc.Recall("invite:" + invitee)
	if err != nil {
		return err
	}
	msg, ok := s.tc.LatestMail(invitee)
	if !ok {
		return fmt.Errorf("no mail sent to %s", invitee)
	}
	if msg.Subject != "Invitation to join "+society {
		return fmt.Errorf("unexpected subject %q", msg.Subject)
	}
	if !strings.Contains(msg.HTMLBody, token) {
		return fmt.Errorf("invitation mail does not carry the invite token")
	}
	return nil
}

func (s *societySteps) signsUpWithInvite(ctx context.Context, invitee string) error {
	token, err := s.tc.Recall("invite:" + invitee)
	if err != nil {
		return err
	}
	s.tc.As("")
	if err := s.tc.POST(ctx, "/auth/signup-invite", map[string]string{
		"token":    token,
		"email":    invitee,
		"password": "correct-horse-battery",
	}); err != nil {
		return err
	}
	if s.tc.LastStatus() != http.StatusCreated {
		return nil
	}
	sessionToken, err := s.tc.StringField("data.token")
	if err != nil {
		return err
	}
	personID, err := s.tc.StringField("data.user.id")
	if err != nil {
		return err
	}
	s.tc.SetSession(invitee, sessionToken, personID)
	return nil
}

func (s *societySteps) acceptsAgain(ctx context.Context, invitee string) error {
	token, err := s.tc.Recall("invite:" + invitee)
	if err != nil {
		return err
	}
	s.tc.As(invitee)
	return s.tc.POST(ctx, "/invites/"+token+"/accept", nil)
}

type membership struct {
	PersonID string `json:"person_id"`
	Role     string `json:"role"`
	Active   bool   `json:"active"`
}

func (s *societySteps) rosterShouldList(ctx context.Context, society, viewer, member, role string) error {
	societyID, err := s.tc.Recall("society:" + society)
	if err != nil {
		return err
	}
	personID, err := s.tc.PersonID(member)
	if err != nil {
		return err
	}
	s.tc.As(viewer)
	if err := s.tc.GET(ctx, "/societies/"+societyID+"/members"); err != nil {
		return err
	}
	if err := s.expect(http.StatusOK, "list members"); err != nil {
		return err
	}
	var body struct {
		Data []membership `json:"data"`
	}
	if err := json.Unmarshal(s.tc.LastBody(), &body); err != nil {
		return err
	}
	for _, m := range body.Data {
		if m.PersonID == personID && m.Active {
			if m.Role != role {
				return fmt.Errorf("%s holds %s, expected %s", member, m.Role, role)
			}
			return nil
		}
	}
	return fmt.Errorf("%s is not on the %s roster", member, society)
}

func (s *societySteps) remember(key, path string) error {
	v, err := s.tc.StringField(path)
	if err != nil {
		return err
	}
	s.tc.Remember(key, v)
	return nil
}
