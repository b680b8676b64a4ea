// Package resetstore holds the in-process password reset token store.
package resetstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vetapi/clinic-api/internal/core/domain"
)

const (
	defaultTTL = 30 * time.Minute
	// purgeThreshold bounds how many entries accumulate before Create sweeps expired ones.
	purgeThreshold = 1024
)

type entry struct {
	email     string
	expiresAt time.Time
}

// MemoryStore is a mutex-guarded token -> email map with per-entry expiry.
// Entries are single-use: Consume removes them atomically.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates a store whose entries live for ttl (defaultTTL when ttl <= 0).
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &MemoryStore{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock replaces time.Now, for tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// Create stores a fresh random token for email. Earlier tokens for the same email stay valid.
func (s *MemoryStore) Create(_ context.Context, email string) (string, error) {
	token := uuid.NewString()
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) >= purgeThreshold {
		s.purgeLocked(now)
	}
	s.entries[token] = entry{email: email, expiresAt: now.Add(s.ttl)}
	return token, nil
}

func (s *MemoryStore) Resolve(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[token]
	if !ok {
		return "", domain.ErrResetTokenInvalid
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, token)
		return "", domain.ErrResetTokenInvalid
	}
	return e.email, nil
}

func (s *MemoryStore) Consume(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[token]
	if !ok {
		return "", domain.ErrResetTokenInvalid
	}
	delete(s.entries, token)
	if !s.now().Before(e.expiresAt) {
		return "", domain.ErrResetTokenInvalid
	}
	return e.email, nil
}

// Len reports the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) purgeLocked(now time.Time) {
	for token, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, token)
		}
	}
}
