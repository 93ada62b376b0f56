// Package app assembles the services and the HTTP router from a set of
// stores and collaborators. The server binary and the end-to-end suite both
// build through New.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"clubhouse/internal/audit"
	auditstore "clubhouse/internal/audit/store"
	"clubhouse/internal/authz"
	identityHandler "clubhouse/internal/identity/handler"
	identityMetrics "clubhouse/internal/identity/metrics"
	identityService "clubhouse/internal/identity/service"
	challengestore "clubhouse/internal/identity/store/challenge"
	personstore "clubhouse/internal/identity/store/person"
	configstore "clubhouse/internal/identity/store/platformconfig"
	inviteHandler "clubhouse/internal/invite/handler"
	inviteMetrics "clubhouse/internal/invite/metrics"
	inviteService "clubhouse/internal/invite/service"
	invitestore "clubhouse/internal/invite/store"
	jwttoken "clubhouse/internal/jwt_token"
	"clubhouse/internal/mailer"
	membershipHandler "clubhouse/internal/membership/handler"
	membershipMetrics "clubhouse/internal/membership/metrics"
	membershipService "clubhouse/internal/membership/service"
	membershipstore "clubhouse/internal/membership/store"
	orgHandler "clubhouse/internal/org/handler"
	orgService "clubhouse/internal/org/service"
	orgstore "clubhouse/internal/org/store"
	"clubhouse/internal/platform/config"
	"clubhouse/internal/platform/metrics"
	ratelimitMetrics "clubhouse/internal/ratelimit/metrics"
	ratelimitmw "clubhouse/internal/ratelimit/middleware"
	"clubhouse/internal/ratelimit/models"
	ratelimitService "clubhouse/internal/ratelimit/service"
	"clubhouse/internal/ratelimit/store/bucket"
	recruitmentHandler "clubhouse/internal/recruitment/handler"
	recruitmentMetrics "clubhouse/internal/recruitment/metrics"
	recruitmentService "clubhouse/internal/recruitment/service"
	recruitmentstore "clubhouse/internal/recruitment/store"
	httptransport "clubhouse/internal/transport/http"
)

// Stores holds one implementation per persistence concern.
type Stores struct {
	Persons     identityService.PersonStore
	Challenges  identityService.ChallengeStore
	Config      identityService.ConfigStore
	Directory   orgService.Directory
	Memberships membershipService.Store
	Invites     inviteService.Store
	Recruitment recruitmentService.Store
	Audit       audit.Store
	Buckets     ratelimitService.BucketStore

	// Nil selects each service's in-process per-person lock.
	MembershipTx  membershipService.StoreTx
	RecruitmentTx recruitmentService.PersonTx
}

func InMemoryStores() Stores {
	return Stores{
		Persons:     personstore.NewInMemory(),
		Challenges:  challengestore.NewInMemory(),
		Config:      configstore.NewInMemory(),
		Directory:   orgstore.NewInMemory(),
		Memberships: membershipstore.NewInMemory(),
		Invites:     invitestore.NewInMemory(),
		Recruitment: recruitmentstore.NewInMemory(),
		Audit:       auditstore.NewInMemory(),
		Buckets:     bucket.NewInMemoryBucketStore(),
	}
}

type Deps struct {
	Stores   Stores
	Mailer   mailer.Sender
	Registry *prometheus.Registry
	Logger   *slog.Logger
	// HealthChecks back /healthz; may be empty.
	HealthChecks map[string]httptransport.HealthCheck
}

type App struct {
	Handler http.Handler
	// Audit must be drained with Run for events to reach the store.
	Audit *audit.Publisher
}

// New wires every module and seeds the bootstrap admin allow-list.
func New(ctx context.Context, cfg config.Server, deps Deps) (*App, error) {
	log := deps.Logger
	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	mail := deps.Mailer
	if mail == nil {
		mail = mailer.NewLogSender(log)
	}
	st := deps.Stores

	auditPublisher := audit.NewPublisher(st.Audit,
		audit.WithLogger(log),
		audit.WithMetrics(audit.NewMetrics(reg)),
		audit.WithBufferSize(cfg.AuditBufferSize),
	)

	jwt := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.TokenTTL)

	identitySvc := identityService.New(st.Persons, st.Challenges, st.Config, jwt,
		identityService.WithLogger(log),
		identityService.WithAuditPublisher(auditPublisher),
		identityService.WithMetrics(identityMetrics.New(reg)),
		identityService.WithMailer(mail),
		identityService.WithChallengeTTL(cfg.OTPTTL),
		identityService.WithBcryptCost(cfg.BcryptCost),
	)
	if err := identitySvc.Bootstrap(ctx, cfg.BootstrapAdminEmails); err != nil {
		return nil, fmt.Errorf("bootstrap admin emails: %w", err)
	}

	membershipSvc := membershipService.New(st.Memberships,
		membershipService.WithLogger(log),
		membershipService.WithAuditPublisher(auditPublisher),
		membershipService.WithMetrics(membershipMetrics.New(reg)),
		membershipService.WithTx(st.MembershipTx),
	)
	resolver := authz.NewResolver(st.Directory, membershipSvc)
	orgSvc := orgService.New(st.Directory, resolver, membershipSvc,
		orgService.WithLogger(log),
		orgService.WithAuditPublisher(auditPublisher),
	)
	inviteSvc := inviteService.New(st.Invites, resolver, orgSvc, membershipSvc, identitySvc,
		inviteService.WithLogger(log),
		inviteService.WithAuditPublisher(auditPublisher),
		inviteService.WithMetrics(inviteMetrics.New(reg)),
		inviteService.WithMailer(mail),
		inviteService.WithClientOrigin(cfg.ClientOrigin),
	)
	recruitmentSvc := recruitmentService.New(st.Recruitment, resolver, orgSvc, membershipSvc,
		recruitmentService.WithLogger(log),
		recruitmentService.WithAuditPublisher(auditPublisher),
		recruitmentService.WithMetrics(recruitmentMetrics.New(reg)),
		recruitmentService.WithTx(st.RecruitmentTx),
	)

	limiter, err := newRateLimiter(cfg.RateLimit, st.Buckets, reg, log)
	if err != nil {
		return nil, err
	}

	identityH := identityHandler.New(identitySvc, membershipSvc, log)
	inviteH := inviteHandler.New(inviteSvc, log)
	membershipH := membershipHandler.New(membershipSvc, log)
	orgH := orgHandler.New(orgSvc, log)
	recruitmentH := recruitmentHandler.New(recruitmentSvc, log)

	router := httptransport.NewRouter(httptransport.Config{
		Logger:       log,
		Tokens:       jwttoken.NewJWTServiceAdapter(jwt),
		Metrics:      metrics.New(reg),
		Gatherer:     reg,
		RateLimit:    limiter,
		HealthChecks: deps.HealthChecks,
	}, httptransport.Routes{
		Public:          []httptransport.PublicRoutes{identityH, inviteH},
		Protected:       []httptransport.ProtectedRoutes{identityH, inviteH, membershipH, orgH, recruitmentH},
		PlatformAdmin:   []httptransport.AdminRoutes{identityH},
		UniversityAdmin: []httptransport.AdminRoutes{orgH},
		Faculty:         []httptransport.FacultyRoutes{orgH},
	})

	return &App{Handler: router, Audit: auditPublisher}, nil
}

// newRateLimiter backs the limiter with the given bucket store. A shared
// store gets an in-process fallback behind a circuit breaker.
func newRateLimiter(cfg config.RateLimitConfig, buckets ratelimitService.BucketStore, reg prometheus.Registerer, log *slog.Logger) (*ratelimitmw.Middleware, error) {
	opts := []ratelimitService.Option{
		ratelimitService.WithLogger(log),
		ratelimitService.WithMetrics(ratelimitMetrics.New(reg)),
		ratelimitService.WithLimit(models.ClassAuth, models.Limit{RequestsPerWindow: cfg.AuthPerMinute, Window: time.Minute}),
		ratelimitService.WithLimit(models.ClassAPI, models.Limit{RequestsPerWindow: cfg.APIPerMinute, Window: time.Minute}),
	}
	if _, inMemory := buckets.(*bucket.InMemoryBucketStore); !inMemory {
		opts = append(opts, ratelimitService.WithFallback(bucket.NewInMemoryBucketStore()))
	}
	svc, err := ratelimitService.New(buckets, opts...)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	return ratelimitmw.New(svc, log, ratelimitmw.WithDisabled(cfg.Disabled)), nil
}
