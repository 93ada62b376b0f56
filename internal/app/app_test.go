package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"clubhouse/internal/platform/config"
	"clubhouse/internal/platform/logger"
	"clubhouse/pkg/testutil"
)

func testConfig() config.Server {
	return config.Server{
		JWTSigningKey:        "test-key",
		JWTIssuer:            "clubhouse",
		TokenTTL:             time.Hour,
		OTPTTL:               time.Minute,
		BcryptCost:           bcrypt.MinCost,
		AuditBufferSize:      16,
		BootstrapAdminEmails: []string{"Root@Uni.edu"},
		RateLimit:            config.RateLimitConfig{AuthPerMinute: 2, APIPerMinute: 10},
	}
}

func TestNewServesAssembledRouter(t *testing.T) {
	stores := InMemoryStores()
	application, err := New(context.Background(), testConfig(), Deps{
		Stores: stores,
		Logger: logger.Discard(),
	})
	require.NoError(t, err)
	require.NotNil(t, application.Audit)

	cfg, err := stores.Config.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"root@uni.edu"}, cfg.AdminEmails, "bootstrap seeds the admin allow-list")

	rr := testutil.DoRequest(application.Handler, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	otp := func() int {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/otp/request", map[string]string{"email": "new@uni.edu"})
		return testutil.DoRequest(application.Handler, req).Code
	}
	assert.Equal(t, http.StatusOK, otp())
	assert.Equal(t, http.StatusOK, otp())
	assert.Equal(t, http.StatusTooManyRequests, otp(), "auth budget comes from config")
}
