package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenDecode        = errors.New("token cannot be decoded")
	ErrResetTokenInvalid  = errors.New("invalid or expired reset token")
	ErrPasswordMismatch   = errors.New("passwords do not match")
)

// Messages surfaced to clients through LoginResult and PasswordResetResult.
const (
	MsgLoginSuccessful     = "Login successful"
	MsgTokenRenewed        = "Token renewed"
	MsgUserNotFound        = "User not found"
	MsgInvalidCredentials  = "Invalid credentials"
	MsgInvalidRefreshToken = "Invalid or expired refresh token"
	MsgRefreshError        = "Error refreshing token"
	MsgResetRequested      = "If the email exists, reset instructions have been sent"
	MsgPasswordsMismatch   = "Passwords do not match"
	MsgPasswordTooLong     = "Password must be at most 72 bytes"
	MsgInvalidResetToken   = "Invalid or expired reset token"
	MsgPasswordReset       = "Password reset successful"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenClaims is the decoded payload of an access or refresh token.
// AccountID and Role are empty on refresh tokens.
type TokenClaims struct {
	Subject   string
	AccountID string
	Role      string
	Type      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// LoginResult is returned by login and refresh. Failures carry only Success and Message.
type LoginResult struct {
	Success      bool
	Message      string
	AccountID    string
	Name         string
	LastName     string
	Email        string
	Role         string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// PasswordResetResult is returned by forgot-password and reset-password.
// ResetToken is only populated when token echo is explicitly enabled.
type PasswordResetResult struct {
	Success    bool
	Message    string
	ResetToken string
}

func FailedLogin(message string) *LoginResult {
	return &LoginResult{Success: false, Message: message}
}

func FailedReset(message string) *PasswordResetResult {
	return &PasswordResetResult{Success: false, Message: message}
}
