//go:build integration

package mailer_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"clubhouse/internal/mailer"
	"clubhouse/pkg/testutil/containers"
)

type KafkaSenderSuite struct {
	suite.Suite
	broker *containers.RedpandaContainer
	sender *mailer.KafkaSender
	topic  string
}

func TestKafkaSenderSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaSenderSuite))
}

func (s *KafkaSenderSuite) SetupSuite() {
	s.broker = containers.GetManager().GetRedpanda(s.T())
	s.topic = "clubhouse.mail.test"
	sender, err := mailer.NewKafkaSender(s.broker.Brokers, s.topic)
	s.Require().NoError(err)
	s.sender = sender
}

func (s *KafkaSenderSuite) TearDownSuite() {
	if s.sender != nil {
		s.sender.Close()
	}
}

func (s *KafkaSenderSuite) TestEnsureTopicIsIdempotent() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.Require().NoError(s.sender.Ping(ctx))
	s.Require().NoError(s.sender.EnsureTopic(ctx, 1, 1))
	s.Require().NoError(s.sender.EnsureTopic(ctx, 1, 1))
}

func (s *KafkaSenderSuite) TestSendPublishesKeyedJob() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.Require().NoError(s.sender.EnsureTopic(ctx, 1, 1))

	msg, err := mailer.ChallengeMessage("ada@uni.edu", "123456", 10)
	s.Require().NoError(err)
	s.Require().NoError(s.sender.Send(ctx, msg))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.broker.Brokers...),
		kgo.ConsumeTopics(s.topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	var got *kgo.Record
	for got == nil {
		fetches := consumer.PollFetches(ctx)
		s.Require().NoError(ctx.Err(), "timed out waiting for mail job")
		fetches.EachRecord(func(r *kgo.Record) {
			if got == nil && string(r.Key) == "ada@uni.edu" {
				got = r
			}
		})
	}

	var job mailer.Message
	s.Require().NoError(json.Unmarshal(got.Value, &job))
	s.Equal("ada@uni.edu", job.To)
	s.Equal("Your verification code", job.Subject)
	s.Contains(job.HTMLBody, "<strong>123456</strong>")
}
