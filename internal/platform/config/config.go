package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Server captures process-level configuration. Values come from the
// environment (prefix CLUBHOUSE_), optionally seeded from a .env file.
type Server struct {
	Addr          string        `envconfig:"ADDR" default:":8080"`
	Environment   string        `envconfig:"ENV" default:"dev"`
	ClientOrigin  string        `envconfig:"CLIENT_ORIGIN" default:"http://localhost:3000"`
	JWTSigningKey string        `envconfig:"JWT_SIGNING_KEY"`
	JWTIssuer     string        `envconfig:"JWT_ISSUER" default:"clubhouse"`
	TokenTTL      time.Duration `envconfig:"TOKEN_TTL" default:"24h"`

	// DatabaseURL selects Postgres stores; empty means in-memory.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	Redis     RedisConfig     `envconfig:"REDIS"`
	Kafka     KafkaConfig     `envconfig:"KAFKA"`
	RateLimit RateLimitConfig `envconfig:"RATELIMIT"`

	OTPTTL               time.Duration `envconfig:"OTP_TTL" default:"10m"`
	BcryptCost           int           `envconfig:"BCRYPT_COST" default:"10"`
	BootstrapAdminEmails []string      `envconfig:"BOOTSTRAP_ADMIN_EMAILS"`
	AuditBufferSize      int           `envconfig:"AUDIT_BUFFER_SIZE" default:"10000"`
}

// RedisConfig configures the challenge store (CLUBHOUSE_REDIS_*). Empty URL
// means in-memory.
type RedisConfig struct {
	URL          string        `envconfig:"URL"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

// KafkaConfig configures outbound mail publishing (CLUBHOUSE_KAFKA_*). Empty
// brokers means mail is logged instead of published.
type KafkaConfig struct {
	Brokers   []string `envconfig:"BROKERS"`
	MailTopic string   `envconfig:"MAIL_TOPIC" default:"clubhouse.mail"`
}

// RateLimitConfig sets per-minute budgets (CLUBHOUSE_RATELIMIT_*). Buckets
// live in Redis when it is configured.
type RateLimitConfig struct {
	Disabled      bool `envconfig:"DISABLED"`
	AuthPerMinute int  `envconfig:"AUTH_PER_MINUTE" default:"10"`
	APIPerMinute  int  `envconfig:"API_PER_MINUTE" default:"120"`
}

const devSigningKey = "dev-secret-key-change-in-production"

// FromEnv loads .env (when present) then processes the environment.
func FromEnv() (Server, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return Server{}, fmt.Errorf("load .env: %w", err)
		}
	}

	var cfg Server
	if err := envconfig.Process("clubhouse", &cfg); err != nil {
		return Server{}, fmt.Errorf("process environment: %w", err)
	}
	if cfg.JWTSigningKey == "" {
		if cfg.IsProduction() {
			return Server{}, errors.New("CLUBHOUSE_JWT_SIGNING_KEY is required in production")
		}
		cfg.JWTSigningKey = devSigningKey
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return Server{}, fmt.Errorf("bcrypt cost %d out of range", cfg.BcryptCost)
	}
	return cfg, nil
}

func (s Server) IsProduction() bool {
	return s.Environment == "prod"
}
