package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clubhouse/internal/ratelimit/metrics"
	"clubhouse/internal/ratelimit/models"
	id "clubhouse/pkg/domain"
	dErrors "clubhouse/pkg/domain-errors"
	"clubhouse/pkg/platform/circuit"
	"clubhouse/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// BucketStore counts requests in a sliding window ending at now.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (*models.Result, error)
}

// Service applies per-class sliding-window limits. When a fallback store is
// configured, failures of the primary store trip a circuit breaker and checks
// are served locally until the primary recovers.
type Service struct {
	primary  BucketStore
	fallback BucketStore
	breaker  *circuit.Breaker
	limits   map[models.EndpointClass]models.Limit
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithFallback serves checks from store while the primary is unhealthy.
func WithFallback(store BucketStore) Option {
	return func(s *Service) {
		s.fallback = store
	}
}

// WithLimit overrides the budget of one endpoint class.
func WithLimit(class models.EndpointClass, limit models.Limit) Option {
	return func(s *Service) {
		s.limits[class] = limit
	}
}

// DefaultLimits returns the budgets used when none are configured.
func DefaultLimits() map[models.EndpointClass]models.Limit {
	return map[models.EndpointClass]models.Limit{
		models.ClassAuth: {RequestsPerWindow: 10, Window: time.Minute},
		models.ClassAPI:  {RequestsPerWindow: 120, Window: time.Minute},
	}
}

func New(primary BucketStore, opts ...Option) (*Service, error) {
	if primary == nil {
		return nil, errors.New("bucket store is required")
	}
	svc := &Service{
		primary: primary,
		breaker: circuit.New("ratelimit"),
		limits:  DefaultLimits(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CheckIP counts the request against the caller address.
func (s *Service) CheckIP(ctx context.Context, ip string, class models.EndpointClass) (*models.Result, error) {
	limit, ok := s.limits[class]
	if !ok {
		return s.denyUnconfigured(ctx, class), nil
	}
	return s.check(ctx, models.NewKey(models.KeyPrefixIP, ip, class), class, limit)
}

// CheckBoth counts the request against the caller address and the
// authenticated person, returning whichever budget is tighter.
func (s *Service) CheckBoth(ctx context.Context, ip string, personID id.PersonID, class models.EndpointClass) (*models.Result, error) {
	limit, ok := s.limits[class]
	if !ok {
		return s.denyUnconfigured(ctx, class), nil
	}
	ipRes, err := s.check(ctx, models.NewKey(models.KeyPrefixIP, ip, class), class, limit)
	if err != nil || !ipRes.Allowed {
		return ipRes, err
	}
	personRes, err := s.check(ctx, models.NewKey(models.KeyPrefixPerson, personID.String(), class), class, limit)
	if err != nil || !personRes.Allowed {
		return personRes, err
	}
	return moreRestrictive(ipRes, personRes), nil
}

func (s *Service) check(ctx context.Context, key string, class models.EndpointClass, limit models.Limit) (*models.Result, error) {
	now := requestcontext.Now(ctx)
	result, err := s.allow(ctx, key, limit, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check rate limit")
	}
	if result.Allowed {
		s.metrics.IncrementCheck(string(class), "allowed")
	} else {
		s.metrics.IncrementCheck(string(class), "denied")
		s.logger.WarnContext(ctx, "rate limit exceeded",
			"key", key,
			"limit", limit.RequestsPerWindow,
			"window_seconds", int(limit.Window.Seconds()),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return result, nil
}

func (s *Service) allow(ctx context.Context, key string, limit models.Limit, now time.Time) (*models.Result, error) {
	if s.fallback == nil {
		return s.primary.Allow(ctx, key, limit.RequestsPerWindow, limit.Window, now)
	}

	result, err := s.primary.Allow(ctx, key, limit.RequestsPerWindow, limit.Window, now)
	if err != nil {
		s.metrics.IncrementStoreError()
		useFallback, change := s.breaker.RecordFailure()
		if change.Opened {
			s.metrics.IncrementBreakerTransition("open")
			s.metrics.SetFallbackActive(true)
			s.logger.ErrorContext(ctx, "rate limit store unavailable, serving from fallback", "error", err)
		}
		if !useFallback {
			return nil, err
		}
		return s.fallback.Allow(ctx, key, limit.RequestsPerWindow, limit.Window, now)
	}

	usePrimary, change := s.breaker.RecordSuccess()
	if change.Closed {
		s.metrics.IncrementBreakerTransition("closed")
		s.metrics.SetFallbackActive(false)
		s.logger.InfoContext(ctx, "rate limit store recovered")
	}
	if !usePrimary {
		return s.fallback.Allow(ctx, key, limit.RequestsPerWindow, limit.Window, now)
	}
	return result, nil
}

// denyUnconfigured refuses classes with no budget so a routing mistake
// cannot silently disable limiting.
func (s *Service) denyUnconfigured(ctx context.Context, class models.EndpointClass) *models.Result {
	s.logger.ErrorContext(ctx, "no rate limit configured for endpoint class", "class", class)
	s.metrics.IncrementCheck(string(class), "unconfigured")
	return &models.Result{
		Allowed:    false,
		ResetAt:    requestcontext.Now(ctx),
		RetryAfter: 60,
	}
}

// moreRestrictive returns the result with fewer remaining requests, or the
// earlier reset on a tie.
func moreRestrictive(a, b *models.Result) *models.Result {
	if a.Remaining != b.Remaining {
		if a.Remaining < b.Remaining {
			return a
		}
		return b
	}
	if a.ResetAt.Before(b.ResetAt) {
		return a
	}
	return b
}
