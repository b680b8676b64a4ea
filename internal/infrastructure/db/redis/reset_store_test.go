package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/vetapi/clinic-api/internal/core/domain"
)

// newTestStore connects to TEST_REDIS_ADDR or skips.
func newTestStore(t *testing.T) *ResetTokenStore {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client, err := Connect(context.Background(), Config{Addr: addr, DB: 15})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return NewResetTokenStore(client, time.Minute)
}

func TestResetTokenStore_Key(t *testing.T) {
	s := NewResetTokenStore(nil, 0)
	if got := s.key("abc"); got != "reset:abc" {
		t.Fatalf("unexpected key %q", got)
	}
	if s.ttl != defaultResetTTL {
		t.Fatalf("expected default ttl, got %v", s.ttl)
	}
}

func TestResetTokenStore_ConsumeOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	token, err := s.Create(ctx, "vet@clinic.test")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if email, err := s.Resolve(ctx, token); err != nil || email != "vet@clinic.test" {
		t.Fatalf("resolve: %q %v", email, err)
	}
	if email, err := s.Consume(ctx, token); err != nil || email != "vet@clinic.test" {
		t.Fatalf("consume: %q %v", email, err)
	}
	if _, err := s.Consume(ctx, token); !errors.Is(err, domain.ErrResetTokenInvalid) {
		t.Fatalf("expected ErrResetTokenInvalid, got %v", err)
	}
}
