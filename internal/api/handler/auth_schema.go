package handler

import (
	"time"

	"github.com/vetapi/clinic-api/internal/core/domain"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// loginResponse is returned by login and refresh. Only success and message
// are present on failure.
type loginResponse struct {
	Success      bool       `json:"success"`
	Message      string     `json:"message"`
	UserID       string     `json:"userId,omitempty"`
	Name         string     `json:"name,omitempty"`
	LastName     string     `json:"lastName,omitempty"`
	Email        string     `json:"email,omitempty"`
	Role         string     `json:"role,omitempty"`
	Token        string     `json:"token,omitempty"`
	RefreshToken string     `json:"refreshToken,omitempty"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
}

type passwordResetResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	ResetToken string `json:"resetToken,omitempty"`
}

type createAccountRequest struct {
	Name     string `json:"name" validate:"required"`
	LastName string `json:"lastName"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"required,oneof=ADMIN VETERINARIAN RECEPTIONIST"`
}

type tokenClaimsResponse struct {
	Subject   string    `json:"subject"`
	AccountID string    `json:"accountId,omitempty"`
	Role      string    `json:"role,omitempty"`
	Type      string    `json:"type"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type debugTokenResponse struct {
	Valid  bool                 `json:"valid"`
	Claims *tokenClaimsResponse `json:"claims,omitempty"`
	Error  string               `json:"error,omitempty"`
}

func toLoginResponse(r *domain.LoginResult) loginResponse {
	resp := loginResponse{Success: r.Success, Message: r.Message}
	if !r.Success {
		return resp
	}
	expiresAt := r.ExpiresAt
	resp.UserID = r.AccountID
	resp.Name = r.Name
	resp.LastName = r.LastName
	resp.Email = r.Email
	resp.Role = r.Role
	resp.Token = r.AccessToken
	resp.RefreshToken = r.RefreshToken
	resp.ExpiresAt = &expiresAt
	return resp
}

func toPasswordResetResponse(r *domain.PasswordResetResult) passwordResetResponse {
	return passwordResetResponse{Success: r.Success, Message: r.Message, ResetToken: r.ResetToken}
}

func toClaimsResponse(c *domain.TokenClaims) *tokenClaimsResponse {
	return &tokenClaimsResponse{
		Subject:   c.Subject,
		AccountID: c.AccountID,
		Role:      c.Role,
		Type:      c.Type,
		IssuedAt:  c.IssuedAt,
		ExpiresAt: c.ExpiresAt,
	}
}
