package handler

import (
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubhouse/internal/membership/models"
	"clubhouse/internal/membership/service"
	membershipstore "clubhouse/internal/membership/store"
	id "clubhouse/pkg/domain"
	"clubhouse/pkg/testutil"
)

func newRouter(t *testing.T) (*chi.Mux, *service.Service) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	svc := service.New(membershipstore.NewInMemory(), service.WithLogger(logger))
	r := chi.NewRouter()
	New(svc, logger).RegisterProtected(r)
	return r, svc
}

func TestRoster(t *testing.T) {
	r, svc := newRouter(t)
	ctx := context.Background()
	society := id.NewSocietyID()
	dept := id.NewDepartmentID()

	member := id.NewPersonID()
	_, err := svc.SetActiveMembership(ctx, member, models.Target{SocietyID: society, DepartmentID: &dept, Role: id.RoleMember})
	require.NoError(t, err)
	core := id.NewPersonID()
	_, err = svc.SetActiveMembership(ctx, core, models.Target{SocietyID: society, Role: id.RoleCore})
	require.NoError(t, err)

	t.Run("lists active members leadership first", func(t *testing.T) {
		req := testutil.WithPrincipal(testutil.NewJSONRequest(t, http.MethodGet, "/societies/"+society.String()+"/members", nil),
			member, "m@uni.edu", id.RoleStudent)
		rr := testutil.DoRequest(r, req)
		testutil.AssertStatus(t, rr, http.StatusOK)
		env := testutil.DecodeEnvelope[[]models.Membership](t, rr)
		require.Len(t, env.Data, 2)
		assert.Equal(t, core, env.Data[0].PersonID)
	})

	t.Run("filters by department", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodGet,
			"/societies/"+society.String()+"/members?department="+dept.String(), nil)
		rr := testutil.DoRequest(r, req)
		env := testutil.DecodeEnvelope[[]models.Membership](t, rr)
		require.Len(t, env.Data, 1)
		assert.Equal(t, member, env.Data[0].PersonID)
	})

	t.Run("rejects a malformed society id", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodGet, "/societies/nope/members", nil))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
	})

	t.Run("rejects an unknown role filter", func(t *testing.T) {
		rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodGet,
			"/societies/"+society.String()+"/members?role=OVERLORD", nil))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
	})
}

func TestLeave(t *testing.T) {
	r, svc := newRouter(t)
	person := id.NewPersonID()
	_, err := svc.SetActiveMembership(context.Background(), person, models.Target{SocietyID: id.NewSocietyID(), Role: id.RoleMember})
	require.NoError(t, err)

	leave := func() *http.Request {
		return testutil.WithPrincipal(testutil.NewJSONRequest(t, http.MethodPost, "/memberships/leave", nil),
			person, "p@uni.edu", id.RoleStudent)
	}

	rr := testutil.DoRequest(r, leave())
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.False(t, testutil.DecodeEnvelope[models.Membership](t, rr).Data.Active)

	rr = testutil.DoRequest(r, leave())
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")

	rr = testutil.DoRequest(r, testutil.WithPrincipal(
		testutil.NewJSONRequest(t, http.MethodGet, "/memberships/history", nil), person, "p@uni.edu", id.RoleStudent))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Len(t, testutil.DecodeEnvelope[[]models.Membership](t, rr).Data, 1)
}
