package circuit

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type BreakerSuite struct {
	suite.Suite
}

func TestBreakerSuite(t *testing.T) {
	suite.Run(t, new(BreakerSuite))
}

func (s *BreakerSuite) trip(b *Breaker) {
	for !b.IsOpen() {
		b.RecordFailure()
	}
}

func (s *BreakerSuite) TestDefaults() {
	b := New("ratelimit-redis")
	s.Equal("ratelimit-redis", b.Name())
	s.Equal(StateClosed, b.State())

	for range 4 {
		useFallback, _ := b.RecordFailure()
		s.False(useFallback)
	}
	useFallback, change := b.RecordFailure()
	s.True(useFallback, "fifth consecutive failure opens")
	s.True(change.Opened)
}

func (s *BreakerSuite) TestOpening() {
	s.Run("reports the transition once", func() {
		b := New("store", WithFailureThreshold(2))
		_, change := b.RecordFailure()
		s.False(change.Opened)
		_, change = b.RecordFailure()
		s.True(change.Opened)

		useFallback, change := b.RecordFailure()
		s.True(useFallback)
		s.False(change.Opened)
	})

	s.Run("a success clears the failure streak", func() {
		b := New("store", WithFailureThreshold(2))
		b.RecordFailure()
		b.RecordSuccess()
		b.RecordFailure()
		s.False(b.IsOpen())
	})
}

func (s *BreakerSuite) TestClosing() {
	s.Run("needs consecutive successes", func() {
		b := New("store", WithFailureThreshold(1), WithSuccessThreshold(2))
		s.trip(b)

		usePrimary, change := b.RecordSuccess()
		s.False(usePrimary)
		s.False(change.Closed)

		usePrimary, change = b.RecordSuccess()
		s.True(usePrimary)
		s.True(change.Closed)
		s.Equal(StateClosed, b.State())
	})

	s.Run("a failure while open restarts recovery", func() {
		b := New("store", WithFailureThreshold(1), WithSuccessThreshold(2))
		s.trip(b)
		b.RecordSuccess()
		b.RecordFailure()
		b.RecordSuccess()
		s.True(b.IsOpen())
		b.RecordSuccess()
		s.False(b.IsOpen())
	})
}

func (s *BreakerSuite) TestReset() {
	b := New("store", WithFailureThreshold(1))
	s.trip(b)
	s.Equal(StateOpen, b.State())

	b.Reset()
	s.Equal(StateClosed, b.State())
	usePrimary, _ := b.RecordSuccess()
	s.True(usePrimary, "closed breaker keeps using the primary")
}
