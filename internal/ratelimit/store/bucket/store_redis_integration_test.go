//go:build integration

package bucket_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"clubhouse/internal/ratelimit/store/bucket"
	"clubhouse/pkg/testutil/containers"
)

type RedisBucketStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *bucket.RedisBucketStore
}

func TestRedisBucketStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisBucketStoreSuite))
}

func (s *RedisBucketStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = bucket.NewRedisBucketStore(s.redis.Client)
}

func (s *RedisBucketStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisBucketStoreSuite) TestSlidingWindow() {
	ctx := context.Background()
	now := time.Now().Truncate(time.Millisecond)
	key := "rl:ip:10.0.0.1:auth"

	for i := range 3 {
		res, err := s.store.Allow(ctx, key, 3, time.Minute, now.Add(time.Duration(i)*time.Second))
		s.Require().NoError(err)
		s.True(res.Allowed)
		s.Equal(2-i, res.Remaining)
	}

	denied, err := s.store.Allow(ctx, key, 3, time.Minute, now.Add(10*time.Second))
	s.Require().NoError(err)
	s.False(denied.Allowed)
	s.Equal(now.Add(time.Minute), denied.ResetAt)
	s.Equal(50, denied.RetryAfter)

	s.Run("oldest request leaves the window", func() {
		res, err := s.store.Allow(ctx, key, 3, time.Minute, now.Add(time.Minute))
		s.Require().NoError(err)
		s.True(res.Allowed)
		s.Equal(0, res.Remaining)
	})

	s.Run("key carries an expiry", func() {
		ttl, err := s.redis.Client.PTTL(ctx, key).Result()
		s.Require().NoError(err)
		s.Greater(ttl, time.Duration(0))
		s.LessOrEqual(ttl, time.Minute)
	})
}

func (s *RedisBucketStoreSuite) TestReset() {
	ctx := context.Background()
	now := time.Now()
	key := "rl:person:p1:api"
	_, err := s.store.Allow(ctx, key, 1, time.Minute, now)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Reset(ctx, key))
	keys, err := s.redis.Keys(ctx, "rl:*")
	s.Require().NoError(err)
	s.Empty(keys)

	res, err := s.store.Allow(ctx, key, 1, time.Minute, now)
	s.Require().NoError(err)
	s.True(res.Allowed)
}

func (s *RedisBucketStoreSuite) TestConcurrentAdmitsExactlyLimit() {
	ctx := context.Background()
	now := time.Now()
	var admitted atomic.Int32
	var wg sync.WaitGroup
	for range 40 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.store.Allow(ctx, "rl:ip:burst:auth", 10, time.Minute, now)
			if err == nil && res.Allowed {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(10), admitted.Load())
}
