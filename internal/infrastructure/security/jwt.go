package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vetapi/clinic-api/internal/core/domain"
)

const (
	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour

	// MinSecretLength is the shortest HS256 secret accepted at startup.
	MinSecretLength = 32
)

var ErrWeakSecret = errors.New("jwt secret must be at least 32 bytes")

// tokenClaims is the signed payload. Refresh tokens omit account_id and role.
type tokenClaims struct {
	AccountID string `json:"account_id,omitempty"`
	Role      string `json:"role,omitempty"`
	Type      string `json:"typ"`
	jwt.RegisteredClaims
}

// JWTCodec issues and validates HS256 tokens with a process-wide secret.
// It holds no mutable state and is safe for concurrent use.
type JWTCodec struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// CodecOption customises a JWTCodec.
type CodecOption func(*JWTCodec)

// WithIssuer sets the iss claim on issued tokens.
func WithIssuer(issuer string) CodecOption {
	return func(c *JWTCodec) { c.issuer = issuer }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CodecOption {
	return func(c *JWTCodec) { c.now = now }
}

// NewJWTCodec builds a codec. Non-positive TTLs fall back to the defaults;
// a secret shorter than MinSecretLength is rejected.
func NewJWTCodec(secret string, accessTTL, refreshTTL time.Duration, opts ...CodecOption) (*JWTCodec, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	c := &JWTCodec{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *JWTCodec) AccessTTL() time.Duration { return c.accessTTL }

func (c *JWTCodec) IssueAccessToken(subjectEmail, accountID, role string) (string, error) {
	return c.sign(tokenClaims{
		AccountID:        accountID,
		Role:             role,
		Type:             domain.TokenTypeAccess,
		RegisteredClaims: c.registered(subjectEmail, c.accessTTL),
	})
}

func (c *JWTCodec) IssueRefreshToken(subjectEmail string) (string, error) {
	return c.sign(tokenClaims{
		Type:             domain.TokenTypeRefresh,
		RegisteredClaims: c.registered(subjectEmail, c.refreshTTL),
	})
}

// Validate reports whether token carries a valid HS256 signature and has not expired.
func (c *JWTCodec) Validate(token string) bool {
	return c.verify(token) == nil
}

// verify returns domain.ErrTokenExpired or domain.ErrTokenInvalid on failure.
func (c *JWTCodec) verify(token string) error {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.ErrTokenExpired
		}
		return fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return domain.ErrTokenInvalid
	}
	return nil
}

// Claims decodes token without verifying its signature.
func (c *JWTCodec) Claims(token string) (*domain.TokenClaims, error) {
	claims := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenDecode, err)
	}
	out := &domain.TokenClaims{
		Subject:   claims.Subject,
		AccountID: claims.AccountID,
		Role:      claims.Role,
		Type:      claims.Type,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func (c *JWTCodec) ExtractSubjectEmail(token string) (string, error) {
	claims, err := c.Claims(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (c *JWTCodec) ExtractAccountID(token string) (string, error) {
	claims, err := c.Claims(token)
	if err != nil {
		return "", err
	}
	return claims.AccountID, nil
}

func (c *JWTCodec) ExtractRole(token string) (string, error) {
	claims, err := c.Claims(token)
	if err != nil {
		return "", err
	}
	return claims.Role, nil
}

func (c *JWTCodec) ExpiryOf(token string) (time.Time, error) {
	claims, err := c.Claims(token)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt.IsZero() {
		return time.Time{}, fmt.Errorf("%w: missing exp claim", domain.ErrTokenDecode)
	}
	return claims.ExpiresAt, nil
}

func (c *JWTCodec) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := c.now()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    c.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (c *JWTCodec) sign(claims tokenClaims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}
