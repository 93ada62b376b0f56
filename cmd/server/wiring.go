package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"clubhouse/internal/app"
	auditstore "clubhouse/internal/audit/store"
	challengestore "clubhouse/internal/identity/store/challenge"
	personstore "clubhouse/internal/identity/store/person"
	configstore "clubhouse/internal/identity/store/platformconfig"
	invitestore "clubhouse/internal/invite/store"
	"clubhouse/internal/mailer"
	membershipstore "clubhouse/internal/membership/store"
	orgstore "clubhouse/internal/org/store"
	"clubhouse/internal/platform/config"
	"clubhouse/internal/platform/postgres"
	"clubhouse/internal/platform/redis"
	"clubhouse/internal/ratelimit/store/bucket"
	recruitmentstore "clubhouse/internal/recruitment/store"
	httptransport "clubhouse/internal/transport/http"
)

// infra holds connections to external systems. Any of them may be nil when
// the matching setting is empty.
type infra struct {
	db     *sql.DB
	redis  *redis.Client
	kafka  *mailer.KafkaSender
	health map[string]httptransport.HealthCheck
}

func openInfra(ctx context.Context, cfg config.Server, log *slog.Logger) (*infra, error) {
	in := &infra{health: map[string]httptransport.HealthCheck{}}

	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		in.db = db
		if err := postgres.Migrate(ctx, db); err != nil {
			in.Close()
			return nil, err
		}
		in.health["postgres"] = db.PingContext
		log.Info("using postgres stores")
	} else {
		log.Warn("CLUBHOUSE_DATABASE_URL not set, using in-memory stores")
	}

	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		in.Close()
		return nil, err
	}
	if client != nil {
		in.redis = client
		in.health["redis"] = client.Health
		log.Info("using redis for challenges and rate limits")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		sender, err := mailer.NewKafkaSender(cfg.Kafka.Brokers, cfg.Kafka.MailTopic)
		if err != nil {
			in.Close()
			return nil, err
		}
		in.kafka = sender
		topicCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := sender.EnsureTopic(topicCtx, 3, 1); err != nil {
			in.Close()
			return nil, fmt.Errorf("ensure mail topic: %w", err)
		}
		in.health["kafka"] = sender.Ping
		log.Info("publishing mail to kafka", "topic", cfg.Kafka.MailTopic)
	}

	return in, nil
}

func (in *infra) Close() {
	if in.kafka != nil {
		in.kafka.Close()
	}
	if in.redis != nil {
		_ = in.redis.Close()
	}
	if in.db != nil {
		_ = in.db.Close()
	}
}

func (in *infra) mailer(log *slog.Logger) mailer.Sender {
	if in.kafka != nil {
		return in.kafka
	}
	return mailer.NewLogSender(log)
}

// stores swaps in Postgres and Redis implementations when configured.
func (in *infra) stores() app.Stores {
	s := app.InMemoryStores()
	if in.db != nil {
		s.Persons = personstore.NewPostgres(in.db)
		s.Config = configstore.NewPostgres(in.db)
		s.Directory = orgstore.NewPostgres(in.db)
		s.Memberships = membershipstore.NewPostgres(in.db)
		s.Invites = invitestore.NewPostgres(in.db)
		s.Recruitment = recruitmentstore.NewPostgres(in.db)
		s.Audit = auditstore.NewPostgres(in.db)
		s.MembershipTx = membershipstore.NewPostgresTx(in.db)
		s.RecruitmentTx = membershipstore.NewPostgresTx(in.db)
	}
	if in.redis != nil {
		s.Challenges = challengestore.NewRedis(in.redis.Client)
		s.Buckets = bucket.NewRedisBucketStore(in.redis.Client)
	}
	return s
}
