package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"clubhouse/internal/ratelimit/models"
	id "clubhouse/pkg/domain"
	dErrors "clubhouse/pkg/domain-errors"
	"clubhouse/pkg/platform/httputil"
	"clubhouse/pkg/requestcontext"
)

type RateLimiter interface {
	CheckIP(ctx context.Context, ip string, class models.EndpointClass) (*models.Result, error)
	CheckBoth(ctx context.Context, ip string, personID id.PersonID, class models.EndpointClass) (*models.Result, error)
}

type Middleware struct {
	limiter  RateLimiter
	logger   *slog.Logger
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns every check into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func New(limiter RateLimiter, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter: limiter,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// RateLimit limits unauthenticated routes by client address. Must run after
// the client metadata middleware.
func (m *Middleware) RateLimit(class models.EndpointClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)
			result, err := m.limiter.CheckIP(ctx, ip, class)
			m.handle(w, r, next, result, err)
		})
	}
}

// RateLimitAuthenticated limits by client address and by the authenticated
// person. Must run after RequireAuth.
func (m *Middleware) RateLimitAuthenticated(class models.EndpointClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)
			result, err := m.limiter.CheckBoth(ctx, ip, requestcontext.PersonID(ctx), class)
			m.handle(w, r, next, result, err)
		})
	}
}

// handle fails open on limiter errors: a broken counter must not take the
// API down with it.
func (m *Middleware) handle(w http.ResponseWriter, r *http.Request, next http.Handler, result *models.Result, err error) {
	if err != nil {
		m.logger.ErrorContext(r.Context(), "rate limit check failed",
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
		)
		next.ServeHTTP(w, r)
		return
	}
	addRateLimitHeaders(w, result)
	if !result.Allowed {
		w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
		httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests, try again later"))
		return
	}
	next.ServeHTTP(w, r)
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
