package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
		assert.Equal(t, 10, cfg.BcryptCost)
		assert.Equal(t, devSigningKey, cfg.JWTSigningKey)
		assert.Empty(t, cfg.DatabaseURL)
		assert.Equal(t, 10, cfg.RateLimit.AuthPerMinute)
		assert.False(t, cfg.RateLimit.Disabled)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("CLUBHOUSE_ADDR", ":9090")
		t.Setenv("CLUBHOUSE_BOOTSTRAP_ADMIN_EMAILS", "root@uni.edu,dean@uni.edu")
		t.Setenv("CLUBHOUSE_KAFKA_BROKERS", "k1:9092,k2:9092")
		t.Setenv("CLUBHOUSE_OTP_TTL", "5m")
		t.Setenv("CLUBHOUSE_RATELIMIT_API_PER_MINUTE", "30")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.Addr)
		assert.Equal(t, []string{"root@uni.edu", "dean@uni.edu"}, cfg.BootstrapAdminEmails)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, 5*time.Minute, cfg.OTPTTL)
		assert.Equal(t, 30, cfg.RateLimit.APIPerMinute)
	})

	t.Run("production requires signing key", func(t *testing.T) {
		t.Setenv("CLUBHOUSE_ENV", "prod")
		_, err := FromEnv()
		assert.Error(t, err)
	})
}
