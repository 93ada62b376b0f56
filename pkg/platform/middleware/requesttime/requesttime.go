// Package requesttime pins a single "now" for the whole request so that
// expiry checks and stored timestamps agree.
package requesttime

import (
	"net/http"
	"time"

	"clubhouse/pkg/requestcontext"
)

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
