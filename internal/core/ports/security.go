package ports

import (
	"context"
	"time"

	"github.com/vetapi/clinic-api/internal/core/domain"
)

// PasswordHasher produces and checks salted adaptive password hashes.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify returns false for a mismatch and for any malformed hash.
	Verify(plaintext, hash string) bool
}

// TokenCodec issues and validates signed self-contained tokens.
//
// Extract* and ExpiryOf decode claims without checking the signature; callers
// must call Validate first. They fail with domain.ErrTokenDecode on malformed input.
type TokenCodec interface {
	IssueAccessToken(subjectEmail, accountID, role string) (string, error)
	IssueRefreshToken(subjectEmail string) (string, error)
	Validate(token string) bool
	Claims(token string) (*domain.TokenClaims, error)
	ExtractSubjectEmail(token string) (string, error)
	ExtractAccountID(token string) (string, error)
	ExtractRole(token string) (string, error)
	ExpiryOf(token string) (time.Time, error)
}

// ResetTokenStore maps one-time reset tokens to account emails.
// Resolve and Consume return domain.ErrResetTokenInvalid for unknown,
// consumed, or expired tokens. Consume is an atomic check-and-remove.
type ResetTokenStore interface {
	Create(ctx context.Context, email string) (string, error)
	Resolve(ctx context.Context, token string) (string, error)
	Consume(ctx context.Context, token string) (string, error)
}

// ResetNotifier delivers a reset token to its owner out-of-band.
type ResetNotifier interface {
	NotifyPasswordReset(ctx context.Context, email, token string)
}
