package handler

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"clubhouse/internal/identity/models"
	"clubhouse/internal/identity/service"
	challengestore "clubhouse/internal/identity/store/challenge"
	personstore "clubhouse/internal/identity/store/person"
	configstore "clubhouse/internal/identity/store/platformconfig"
	jwttoken "clubhouse/internal/jwt_token"
	membershipModels "clubhouse/internal/membership/models"
	id "clubhouse/pkg/domain"
	"clubhouse/pkg/testutil"
)

type noMembership struct{}

func (noMembership) GetActive(context.Context, id.PersonID) (*membershipModels.Membership, error) {
	return nil, nil
}

type fixture struct {
	router *chi.Mux
	config *configstore.InMemoryConfigStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	cfg := configstore.NewInMemory()
	svc := service.New(
		personstore.NewInMemory(),
		challengestore.NewInMemory(),
		cfg,
		jwttoken.NewJWTService("test-key", "clubhouse", time.Hour),
		service.WithLogger(logger),
		service.WithBcryptCost(bcrypt.MinCost),
		service.WithCodeGenerator(func() (string, error) { return "123456", nil }),
	)
	h := New(svc, noMembership{}, logger)
	r := chi.NewRouter()
	h.RegisterPublic(r)
	h.RegisterAdmin(r)
	return &fixture{router: r, config: cfg}
}

func TestStudentRegistrationFlow(t *testing.T) {
	f := newFixture(t)

	rr := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/otp/request",
		map[string]string{"email": "student@uni.edu"}))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.True(t, testutil.DecodeEnvelope[any](t, rr).Success)

	rr = testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/register/student",
		map[string]string{"email": "student@uni.edu", "code": "123456", "password": "password1"}))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	env := testutil.DecodeEnvelope[models.RegisterResult](t, rr)
	require.NotNil(t, env.Data.Person)
	assert.Equal(t, id.RoleStudent, env.Data.Person.RoleHint)
	assert.NotEmpty(t, env.Data.AccessToken)

	rr = testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/otp/request",
		map[string]string{"email": "student@uni.edu"}))
	testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")

	rr = testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/login",
		map[string]string{"email": "student@uni.edu", "password": "password1"}))
	testutil.AssertStatus(t, rr, http.StatusOK)
}

func TestFacultyRegistrationRequiresAllowList(t *testing.T) {
	f := newFixture(t)

	testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/otp/request",
		map[string]string{"email": "prof@uni.edu"}))
	rr := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/register/faculty",
		map[string]string{"email": "prof@uni.edu", "code": "123456", "password": "password1"}))
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
}

func TestVerifyErrors(t *testing.T) {
	f := newFixture(t)

	rr := testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/otp/verify",
		map[string]string{"email": "nobody@uni.edu", "code": "123456"}))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")

	rr = testutil.DoRequest(f.router, testutil.NewRequestWithBody(t, http.MethodPost, "/auth/otp/verify", `{"email":`))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")

	rr = testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/otp/verify",
		map[string]string{"email": "not-an-email", "code": "1"}))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
}

func TestAdminConfigRoutes(t *testing.T) {
	f := newFixture(t)
	admin := id.NewPersonID()

	req := testutil.NewJSONRequest(t, http.MethodPost, "/admin/config/faculty",
		map[string][]string{"emails": {"Prof@Uni.edu"}})
	rr := testutil.DoRequest(f.router, testutil.WithPrincipal(req, admin, "admin@uni.edu", id.RolePlatformAdmin))
	testutil.AssertStatus(t, rr, http.StatusOK)

	cfg, err := f.config.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"prof@uni.edu"}, cfg.FacultyEmails)

	rr = testutil.DoRequest(f.router, testutil.NewJSONRequest(t, http.MethodGet, "/admin/config", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	env := testutil.DecodeEnvelope[models.PlatformConfig](t, rr)
	assert.Equal(t, []string{"prof@uni.edu"}, env.Data.FacultyEmails)
}
