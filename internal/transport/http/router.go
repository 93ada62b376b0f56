// Package httptransport assembles the chi router: the shared middleware
// chain, the operational endpoints, and the route groups each module
// handler mounts itself into.
package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"clubhouse/internal/platform/metrics"
	ratelimitmw "clubhouse/internal/ratelimit/middleware"
	"clubhouse/internal/ratelimit/models"
	id "clubhouse/pkg/domain"
	authmw "clubhouse/pkg/platform/middleware/auth"
	"clubhouse/pkg/platform/middleware/metadata"
	"clubhouse/pkg/platform/middleware/request"
	"clubhouse/pkg/platform/middleware/requesttime"
)

type PublicRoutes interface {
	RegisterPublic(r chi.Router)
}

type ProtectedRoutes interface {
	RegisterProtected(r chi.Router)
}

type AdminRoutes interface {
	RegisterAdmin(r chi.Router)
}

type FacultyRoutes interface {
	RegisterFaculty(r chi.Router)
}

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Routes lists the handlers mounted into each access group.
type Routes struct {
	Public    []PublicRoutes
	Protected []ProtectedRoutes
	// PlatformAdmin routes require the PLATFORM_ADMIN role hint.
	PlatformAdmin []AdminRoutes
	// UniversityAdmin routes accept PLATFORM_ADMIN or UNIVERSITY_ADMIN.
	UniversityAdmin []AdminRoutes
	Faculty         []FacultyRoutes
}

type Config struct {
	Logger   *slog.Logger
	Tokens   authmw.TokenValidator
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	// RateLimit is optional; nil disables throttling.
	RateLimit    *ratelimitmw.Middleware
	HealthChecks map[string]HealthCheck
}

func NewRouter(cfg Config, routes Routes) http.Handler {
	r := chi.NewRouter()

	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(cfg.Logger, observer(cfg.Metrics)))
	r.Use(request.Recovery(cfg.Logger))

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", healthHandler(cfg.HealthChecks))

	r.Group(func(r chi.Router) {
		if cfg.RateLimit != nil {
			r.Use(cfg.RateLimit.RateLimit(models.ClassAuth))
		}
		for _, h := range routes.Public {
			h.RegisterPublic(r)
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(cfg.Tokens, cfg.Logger))
		if cfg.RateLimit != nil {
			r.Use(cfg.RateLimit.RateLimitAuthenticated(models.ClassAPI))
		}

		for _, h := range routes.Protected {
			h.RegisterProtected(r)
		}

		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireRoleHint(cfg.Logger, string(id.RolePlatformAdmin)))
			for _, h := range routes.PlatformAdmin {
				h.RegisterAdmin(r)
			}
		})

		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireRoleHint(cfg.Logger, string(id.RolePlatformAdmin), string(id.RoleUniversityAdmin)))
			for _, h := range routes.UniversityAdmin {
				h.RegisterAdmin(r)
			}
		})

		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireRoleHint(cfg.Logger, string(id.RoleFaculty)))
			for _, h := range routes.Faculty {
				h.RegisterFaculty(r)
			}
		})
	})

	return r
}

// observer avoids handing the logger middleware a typed nil.
func observer(m *metrics.Metrics) request.Observer {
	if m == nil {
		return nil
	}
	return m
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// healthHandler runs every check concurrently and answers 503 if any fails.
func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		var mu sync.Mutex
		results := make(map[string]string, len(checks))
		g, gctx := errgroup.WithContext(ctx)
		for name, check := range checks {
			g.Go(func() error {
				status := "ok"
				if err := check(gctx); err != nil {
					status = err.Error()
				}
				mu.Lock()
				results[name] = status
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()

		resp := healthResponse{Status: "ok", Checks: results}
		code := http.StatusOK
		for _, status := range results {
			if status != "ok" {
				resp.Status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
