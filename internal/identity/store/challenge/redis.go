package challenge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"clubhouse/internal/identity/models"
	"clubhouse/pkg/email"
	"clubhouse/pkg/platform/sentinel"
)

const (
	codeKeyPrefix  = "otp:code:"
	emailKeyPrefix = "otp:email:"
	// Keys outlive the logical expiry slightly so an expired challenge is
	// still reported as Expired rather than NotFound.
	expiryGrace = time.Minute
)

// consumeScript deletes the email pointer and its code key only when the
// stored code matches, so two concurrent consumers cannot both succeed.
var consumeScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
	return 0
end
local stored = cjson.decode(raw)
if stored.code ~= ARGV[1] then
	return 0
end
redis.call('DEL', KEYS[1])
redis.call('DEL', KEYS[2])
return 1
`)

// RedisChallengeStore keeps challenges in Redis with native TTLs. The code
// key is claimed with SET NX, which gives system-wide code uniqueness.
type RedisChallengeStore struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *RedisChallengeStore {
	return &RedisChallengeStore{client: client}
}

type storedChallenge struct {
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *RedisChallengeStore) Create(ctx context.Context, c *models.Challenge) error {
	address := email.Normalize(c.Email)
	ttl := time.Until(c.ExpiresAt) + expiryGrace
	if ttl <= 0 {
		ttl = expiryGrace
	}

	claimed, err := s.client.SetNX(ctx, codeKeyPrefix+c.Code, address, ttl).Result()
	if err != nil {
		return fmt.Errorf("claim otp code: %w", err)
	}
	if !claimed {
		return sentinel.ErrConflict
	}

	payload, err := json.Marshal(storedChallenge{
		Email:     address,
		Code:      c.Code,
		CreatedAt: c.CreatedAt,
		ExpiresAt: c.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("encode challenge: %w", err)
	}
	if err := s.client.Set(ctx, emailKeyPrefix+address, payload, ttl).Err(); err != nil {
		_ = s.client.Del(ctx, codeKeyPrefix+c.Code).Err()
		return fmt.Errorf("store challenge: %w", err)
	}
	return nil
}

func (s *RedisChallengeStore) Latest(ctx context.Context, address string) (*models.Challenge, error) {
	raw, err := s.client.Get(ctx, emailKeyPrefix+email.Normalize(address)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load challenge: %w", err)
	}
	var stored storedChallenge
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode challenge: %w", err)
	}
	return &models.Challenge{
		Email:     stored.Email,
		Code:      stored.Code,
		CreatedAt: stored.CreatedAt,
		ExpiresAt: stored.ExpiresAt,
	}, nil
}

func (s *RedisChallengeStore) Consume(ctx context.Context, address, code string) error {
	address = email.Normalize(address)
	deleted, err := consumeScript.Run(ctx, s.client,
		[]string{emailKeyPrefix + address, codeKeyPrefix + code}, code).Int()
	if err != nil {
		return fmt.Errorf("consume challenge: %w", err)
	}
	if deleted == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
