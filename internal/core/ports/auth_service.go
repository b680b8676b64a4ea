package ports

import (
	"context"

	"github.com/vetapi/clinic-api/internal/core/domain"
)

// AuthService coordinates the login, refresh and password-reset use cases.
// Contractual failures are reported through the result values; a non-nil
// error means something unexpected happened.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*domain.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) *domain.LoginResult
	ForgotPassword(ctx context.Context, email string) (*domain.PasswordResetResult, error)
	ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) (*domain.PasswordResetResult, error)
}

// CreateAccountInput carries the fields needed to register a staff account.
type CreateAccountInput struct {
	Name     string
	LastName string
	Email    string
	Password string
	Role     string
}

// AccountService exposes the account operations the auth surface depends on.
type AccountService interface {
	Create(ctx context.Context, input CreateAccountInput) (*domain.Account, error)
	EnsureAdmin(ctx context.Context, email, password string) error
}
