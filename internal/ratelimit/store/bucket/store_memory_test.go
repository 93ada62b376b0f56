package bucket

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"clubhouse/internal/ratelimit/models"
)

const (
	testLimit  = 10
	testWindow = time.Minute
)

type InMemoryBucketStoreSuite struct {
	suite.Suite
	store *InMemoryBucketStore
	ctx   context.Context
	now   time.Time
}

func TestInMemoryBucketStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryBucketStoreSuite))
}

func (s *InMemoryBucketStoreSuite) SetupTest() {
	s.store = NewInMemoryBucketStore()
	s.ctx = context.Background()
	s.now = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
}

func (s *InMemoryBucketStoreSuite) TestAllow() {
	s.Run("first request allowed", func() {
		result, err := s.store.Allow(s.ctx, "rl:ip:first:auth", testLimit, testWindow, s.now)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit, result.Limit)
		s.Equal(testLimit-1, result.Remaining)
		s.Equal(s.now.Add(testWindow), result.ResetAt)
	})

	s.Run("requests up to limit allowed", func() {
		var result *models.Result
		var err error
		for range testLimit {
			result, err = s.store.Allow(s.ctx, "rl:ip:limit:auth", testLimit, testWindow, s.now)
		}
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(0, result.Remaining)
	})

	s.Run("request over limit denied with retry hint", func() {
		for i := range testLimit {
			_, err := s.store.Allow(s.ctx, "rl:ip:over:auth", testLimit, testWindow, s.now.Add(time.Duration(i)*time.Second))
			s.Require().NoError(err)
		}
		at := s.now.Add(20 * time.Second)
		result, err := s.store.Allow(s.ctx, "rl:ip:over:auth", testLimit, testWindow, at)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Equal(0, result.Remaining)
		s.Equal(s.now.Add(testWindow), result.ResetAt)
		s.Equal(40, result.RetryAfter)
	})

	s.Run("window slides past old requests", func() {
		key := "rl:ip:slide:auth"
		for range testLimit {
			_, err := s.store.Allow(s.ctx, key, testLimit, testWindow, s.now)
			s.Require().NoError(err)
		}
		result, err := s.store.Allow(s.ctx, key, testLimit, testWindow, s.now.Add(testWindow))
		s.Require().NoError(err)
		s.True(result.Allowed, "requests exactly one window old no longer count")
		s.Equal(testLimit-1, result.Remaining)
	})

	s.Run("keys are independent", func() {
		for range testLimit {
			_, err := s.store.Allow(s.ctx, "rl:ip:a:auth", testLimit, testWindow, s.now)
			s.Require().NoError(err)
		}
		result, err := s.store.Allow(s.ctx, "rl:ip:b:auth", testLimit, testWindow, s.now)
		s.Require().NoError(err)
		s.True(result.Allowed)
	})
}

func (s *InMemoryBucketStoreSuite) TestReset() {
	key := "rl:person:reset:api"
	for range testLimit {
		_, err := s.store.Allow(s.ctx, key, testLimit, testWindow, s.now)
		s.Require().NoError(err)
	}
	s.Require().NoError(s.store.Reset(s.ctx, key))

	result, err := s.store.Allow(s.ctx, key, testLimit, testWindow, s.now)
	s.Require().NoError(err)
	s.True(result.Allowed)
	s.Equal(testLimit-1, result.Remaining)
}

func (s *InMemoryBucketStoreSuite) TestConcurrent() {
	limit := 100
	key := "rl:ip:concurrent:api"
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0

	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := s.store.Allow(s.ctx, key, limit, testWindow, s.now)
			if err != nil || !result.Allowed {
				return
			}
			mu.Lock()
			allowedCount++
			mu.Unlock()
		}()
	}

	wg.Wait()
	s.Equal(limit, allowedCount)
}
