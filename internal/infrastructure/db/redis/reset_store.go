package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vetapi/clinic-api/internal/core/domain"
)

const defaultResetTTL = 30 * time.Minute

// ResetTokenStore keeps password reset tokens in Redis so they survive
// restarts and are shared across instances.
// Key format: reset:<token> -> email, expiring after ttl.
type ResetTokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResetTokenStore wraps client. A non-positive ttl falls back to defaultResetTTL.
func NewResetTokenStore(client *redis.Client, ttl time.Duration) *ResetTokenStore {
	if ttl <= 0 {
		ttl = defaultResetTTL
	}
	return &ResetTokenStore{client: client, ttl: ttl}
}

// Create stores a new random token for email. SET NX guards against the (theoretical) uuid collision.
func (s *ResetTokenStore) Create(ctx context.Context, email string) (string, error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, s.key(token), email, s.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("store reset token: key collision")
	}
	return token, nil
}

// Resolve looks up the email for token without consuming it.
func (s *ResetTokenStore) Resolve(ctx context.Context, token string) (string, error) {
	email, err := s.client.Get(ctx, s.key(token)).Result()
	return s.result(email, err, "resolve")
}

// Consume atomically reads and deletes token with GETDEL.
func (s *ResetTokenStore) Consume(ctx context.Context, token string) (string, error) {
	email, err := s.client.GetDel(ctx, s.key(token)).Result()
	return s.result(email, err, "consume")
}

func (s *ResetTokenStore) result(email string, err error, op string) (string, error) {
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrResetTokenInvalid
		}
		return "", fmt.Errorf("%s reset token: %w", op, err)
	}
	return email, nil
}

func (s *ResetTokenStore) key(token string) string {
	return "reset:" + token
}
