package domain

import (
	"errors"
	"time"
)

const (
	RoleAdmin        = "ADMIN"
	RoleVeterinarian = "VETERINARIAN"
	RoleReceptionist = "RECEPTIONIST"
)

const (
	// MinPasswordLength mirrors the clinic's minimum password policy.
	MinPasswordLength = 6
	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
	ErrInvalidRole     = errors.New("invalid role")
	ErrWeakPassword    = errors.New("password must be between 6 and 72 bytes")
	ErrInvalidAccount  = errors.New("name and email are required")
	ErrForbidden       = errors.New("access forbidden")
	ErrUnauthenticated = errors.New("authentication required")
)

// Account models a clinic staff member able to sign in.
// PasswordHash never leaves the service boundary.
type Account struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	LastName     string     `json:"lastName"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	Active       bool       `json:"active"`
	LastAccess   *time.Time `json:"lastAccess,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// ValidRole reports whether role belongs to the closed set of clinic roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleVeterinarian, RoleReceptionist:
		return true
	}
	return false
}

// Authority is the role-derived grant attached to an authenticated principal.
func (a *Account) Authority() string {
	return "ROLE_" + a.Role
}

func (a *Account) FullName() string {
	return a.Name + " " + a.LastName
}
