package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	id "clubhouse/pkg/domain"
	"clubhouse/pkg/requestcontext"
)

type stubValidator struct {
	principal *Principal
	err       error
}

func (s stubValidator) ValidateToken(string) (*Principal, error) {
	return s.principal, s.err
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	personID := id.NewPersonID()

	var gotID id.PersonID
	var gotHint string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = requestcontext.PersonID(r.Context())
		gotHint = requestcontext.RoleHint(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name      string
		header    string
		validator stubValidator
		status    int
	}{
		{"missing header", "", stubValidator{}, http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", stubValidator{}, http.StatusUnauthorized},
		{"invalid token", "Bearer bad", stubValidator{err: errors.New("bad")}, http.StatusUnauthorized},
		{"valid token", "Bearer good", stubValidator{principal: &Principal{PersonID: personID, Email: "a@uni.edu", RoleHint: "STUDENT"}}, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			RequireAuth(tt.validator, logger)(next).ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
	assert.Equal(t, personID, gotID)
	assert.Equal(t, "STUDENT", gotHint)
}

func TestRequireRoleHint(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h := RequireRoleHint(logger, "PLATFORM_ADMIN")(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(requestcontext.WithPrincipal(req.Context(), id.NewPersonID(), "x@uni.edu", "STUDENT")))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(requestcontext.WithPrincipal(req.Context(), id.NewPersonID(), "x@uni.edu", "PLATFORM_ADMIN")))
	assert.Equal(t, http.StatusOK, rec.Code)
}
