package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vetapi/clinic-api/internal/core/domain"
	"github.com/vetapi/clinic-api/internal/core/ports"
)

// AuthService implements login, token refresh and password reset.
type AuthService struct {
	accounts ports.AccountRepository
	hasher   ports.PasswordHasher
	tokens   ports.TokenCodec
	resets   ports.ResetTokenStore
	notifier ports.ResetNotifier
	log      zerolog.Logger

	exposeResetToken bool
	now              func() time.Time
}

// AuthOption customises an AuthService.
type AuthOption func(*AuthService)

// WithResetTokenExposure echoes the raw reset token in forgot-password
// results. Intended for local development only.
func WithResetTokenExposure(expose bool) AuthOption {
	return func(s *AuthService) { s.exposeResetToken = expose }
}

// WithNotifier sets the out-of-band reset token delivery.
func WithNotifier(n ports.ResetNotifier) AuthOption {
	return func(s *AuthService) { s.notifier = n }
}

// WithLogger sets the service logger. The default discards everything.
func WithLogger(log zerolog.Logger) AuthOption {
	return func(s *AuthService) { s.log = log }
}

// WithServiceClock overrides the clock used for last-access timestamps.
func WithServiceClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

func NewAuthService(
	accounts ports.AccountRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenCodec,
	resets ports.ResetTokenStore,
	opts ...AuthOption,
) *AuthService {
	s := &AuthService{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
		resets:   resets,
		log:      zerolog.Nop(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ports.AuthService = (*AuthService)(nil)

func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	account, err := s.accounts.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return domain.FailedLogin(domain.MsgUserNotFound), nil
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		return domain.FailedLogin(domain.MsgInvalidCredentials), nil
	}

	// last_access must be durable before any token leaves the service.
	now := s.now()
	if err := s.accounts.UpdateLastAccess(ctx, account.ID, now); err != nil {
		return nil, fmt.Errorf("update last access: %w", err)
	}
	account.LastAccess = &now

	result, err := s.issue(account)
	if err != nil {
		return nil, err
	}
	result.Message = domain.MsgLoginSuccessful
	return result, nil
}

// Refresh never returns an error: every failure becomes a failed result.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (result *domain.LoginResult) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("refresh token exchange panicked")
			result = domain.FailedLogin(domain.MsgRefreshError)
		}
	}()

	if !s.tokens.Validate(refreshToken) {
		s.log.Warn().Msg("refresh rejected: invalid or expired token")
		return domain.FailedLogin(domain.MsgInvalidRefreshToken)
	}

	claims, err := s.tokens.Claims(refreshToken)
	if err != nil {
		s.log.Error().Err(err).Msg("refresh: decode claims")
		return domain.FailedLogin(domain.MsgRefreshError)
	}
	if claims.Type != domain.TokenTypeRefresh {
		s.log.Warn().Str("typ", claims.Type).Msg("refresh rejected: not a refresh token")
		return domain.FailedLogin(domain.MsgInvalidRefreshToken)
	}

	account, err := s.accounts.FindByEmail(ctx, claims.Subject)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return domain.FailedLogin(domain.MsgUserNotFound)
	}
	if err != nil {
		s.log.Error().Err(err).Msg("refresh: find account")
		return domain.FailedLogin(domain.MsgRefreshError)
	}

	result, err = s.issue(account)
	if err != nil {
		s.log.Error().Err(err).Msg("refresh: issue tokens")
		return domain.FailedLogin(domain.MsgRefreshError)
	}
	result.Message = domain.MsgTokenRenewed
	return result
}

// ForgotPassword acknowledges every request the same way, whether or not the
// email belongs to an account.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (*domain.PasswordResetResult, error) {
	result := &domain.PasswordResetResult{Success: true, Message: domain.MsgResetRequested}

	account, err := s.accounts.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}

	token, err := s.resets.Create(ctx, account.Email)
	if err != nil {
		return nil, fmt.Errorf("create reset token: %w", err)
	}
	if s.notifier != nil {
		s.notifier.NotifyPasswordReset(ctx, account.Email, token)
	}
	if s.exposeResetToken {
		result.ResetToken = token
	}
	return result, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) (*domain.PasswordResetResult, error) {
	// Checked before the store so a typo does not burn the token.
	if newPassword != confirmPassword {
		return domain.FailedReset(domain.MsgPasswordsMismatch), nil
	}
	if len(newPassword) > domain.MaxPasswordBytes {
		return domain.FailedReset(domain.MsgPasswordTooLong), nil
	}

	email, err := s.resets.Consume(ctx, token)
	if errors.Is(err, domain.ErrResetTokenInvalid) {
		return domain.FailedReset(domain.MsgInvalidResetToken), nil
	}
	if err != nil {
		return nil, fmt.Errorf("consume reset token: %w", err)
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return domain.FailedReset(domain.MsgUserNotFound), nil
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.UpdatePassword(ctx, account.ID, hash); err != nil {
		return nil, fmt.Errorf("update password: %w", err)
	}

	return &domain.PasswordResetResult{Success: true, Message: domain.MsgPasswordReset}, nil
}

func (s *AuthService) issue(account *domain.Account) (*domain.LoginResult, error) {
	access, err := s.tokens.IssueAccessToken(account.Email, account.ID, account.Role)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(account.Email)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	expiresAt, err := s.tokens.ExpiryOf(access)
	if err != nil {
		return nil, fmt.Errorf("read access token expiry: %w", err)
	}

	return &domain.LoginResult{
		Success:      true,
		AccountID:    account.ID,
		Name:         account.Name,
		LastName:     account.LastName,
		Email:        account.Email,
		Role:         account.Role,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}, nil
}
