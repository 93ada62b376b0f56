package testutil

import (
	"net/http"

	id "clubhouse/pkg/domain"
	"clubhouse/pkg/requestcontext"
)

// WithPrincipal simulates what the auth middleware does for authenticated
// requests.
func WithPrincipal(req *http.Request, personID id.PersonID, email string, roleHint id.Role) *http.Request {
	return req.WithContext(requestcontext.WithPrincipal(req.Context(), personID, email, string(roleHint)))
}
