package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"clubhouse/internal/platform/logger"
	"clubhouse/internal/ratelimit/models"
	"clubhouse/internal/ratelimit/service"
	"clubhouse/internal/ratelimit/service/mocks"
	"clubhouse/internal/ratelimit/store/bucket"
	id "clubhouse/pkg/domain"
	"clubhouse/pkg/requestcontext"
)

type RateLimitServiceSuite struct {
	suite.Suite
	ctx context.Context
	now time.Time
}

func TestRateLimitServiceSuite(t *testing.T) {
	suite.Run(t, new(RateLimitServiceSuite))
}

func (s *RateLimitServiceSuite) SetupTest() {
	s.now = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *RateLimitServiceSuite) newService(store service.BucketStore, opts ...service.Option) *service.Service {
	opts = append([]service.Option{service.WithLogger(logger.Discard())}, opts...)
	svc, err := service.New(store, opts...)
	s.Require().NoError(err)
	return svc
}

func (s *RateLimitServiceSuite) TestNewRequiresStore() {
	_, err := service.New(nil)
	s.Require().Error(err)
}

func (s *RateLimitServiceSuite) TestCheckIP() {
	svc := s.newService(bucket.NewInMemoryBucketStore(),
		service.WithLimit(models.ClassAuth, models.Limit{RequestsPerWindow: 2, Window: time.Minute}),
	)

	for range 2 {
		res, err := svc.CheckIP(s.ctx, "10.0.0.1", models.ClassAuth)
		s.Require().NoError(err)
		s.True(res.Allowed)
	}
	res, err := svc.CheckIP(s.ctx, "10.0.0.1", models.ClassAuth)
	s.Require().NoError(err)
	s.False(res.Allowed)
	s.Positive(res.RetryAfter)

	s.Run("classes have separate budgets", func() {
		res, err := svc.CheckIP(s.ctx, "10.0.0.1", models.ClassAPI)
		s.Require().NoError(err)
		s.True(res.Allowed)
	})

	s.Run("budget returns once the window passes", func() {
		later := requestcontext.WithTime(context.Background(), s.now.Add(time.Minute))
		res, err := svc.CheckIP(later, "10.0.0.1", models.ClassAuth)
		s.Require().NoError(err)
		s.True(res.Allowed)
	})
}

func (s *RateLimitServiceSuite) TestUnconfiguredClassDenied() {
	svc := s.newService(bucket.NewInMemoryBucketStore())
	res, err := svc.CheckIP(s.ctx, "10.0.0.1", models.EndpointClass("bulk"))
	s.Require().NoError(err)
	s.False(res.Allowed)
	s.Equal(60, res.RetryAfter)
}

func (s *RateLimitServiceSuite) TestCheckBoth() {
	svc := s.newService(bucket.NewInMemoryBucketStore(),
		service.WithLimit(models.ClassAPI, models.Limit{RequestsPerWindow: 3, Window: time.Minute}),
	)
	person := id.PersonID(uuid.New())

	s.Run("person budget follows the person across addresses", func() {
		for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
			res, err := svc.CheckBoth(s.ctx, ip, person, models.ClassAPI)
			s.Require().NoError(err)
			s.True(res.Allowed)
		}
		res, err := svc.CheckBoth(s.ctx, "10.0.0.4", person, models.ClassAPI)
		s.Require().NoError(err)
		s.False(res.Allowed)
	})

	s.Run("tighter budget is reported", func() {
		other := id.PersonID(uuid.New())
		res, err := svc.CheckBoth(s.ctx, "10.0.0.9", other, models.ClassAPI)
		s.Require().NoError(err)
		s.True(res.Allowed)
		s.Equal(2, res.Remaining)

		res, err = svc.CheckBoth(s.ctx, "10.0.0.9", id.PersonID(uuid.New()), models.ClassAPI)
		s.Require().NoError(err)
		s.True(res.Allowed)
		s.Equal(1, res.Remaining, "address has used two of three")
	})
}

func (s *RateLimitServiceSuite) TestPrimaryErrorWithoutFallback() {
	ctrl := gomock.NewController(s.T())
	primary := mocks.NewMockBucketStore(ctrl)
	primary.EXPECT().Allow(gomock.Any(), "rl:ip:10.0.0.1:auth", 10, time.Minute, s.now).
		Return(nil, errors.New("connection refused"))

	svc := s.newService(primary)
	_, err := svc.CheckIP(s.ctx, "10.0.0.1", models.ClassAuth)
	s.Require().Error(err)
}

func (s *RateLimitServiceSuite) TestFallbackWhileBreakerOpen() {
	ctrl := gomock.NewController(s.T())
	primary := mocks.NewMockBucketStore(ctrl)
	fallback := bucket.NewInMemoryBucketStore()
	svc := s.newService(primary, service.WithFallback(fallback))

	down := errors.New("connection refused")
	s.Run("errors surface until the breaker opens", func() {
		primary.EXPECT().Allow(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, down).Times(4)
		for range 4 {
			_, err := svc.CheckIP(s.ctx, "10.0.0.1", models.ClassAuth)
			s.Require().Error(err)
		}
	})

	s.Run("fifth failure opens the breaker and the fallback answers", func() {
		primary.EXPECT().Allow(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, down)
		res, err := svc.CheckIP(s.ctx, "10.0.0.1", models.ClassAuth)
		s.Require().NoError(err)
		s.True(res.Allowed)
		s.Equal(9, res.Remaining)
	})

	s.Run("recovered primary is trusted after three successes", func() {
		healthy := &models.Result{Allowed: true, Limit: 10, Remaining: 5, ResetAt: s.now.Add(time.Minute)}
		primary.EXPECT().Allow(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(healthy, nil).Times(3)

		for i := range 2 {
			res, err := svc.CheckIP(s.ctx, "10.0.0.1", models.ClassAuth)
			s.Require().NoError(err)
			s.Equal(8-i, res.Remaining, "still served by the fallback")
		}
		res, err := svc.CheckIP(s.ctx, "10.0.0.1", models.ClassAuth)
		s.Require().NoError(err)
		s.Equal(5, res.Remaining)
	})
}
