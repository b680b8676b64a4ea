package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/vetapi/clinic-api/internal/core/domain"
	"github.com/vetapi/clinic-api/internal/core/ports"
)

// AccountService registers staff accounts.
type AccountService struct {
	repo   ports.AccountRepository
	hasher ports.PasswordHasher
}

func NewAccountService(repo ports.AccountRepository, hasher ports.PasswordHasher) *AccountService {
	return &AccountService{repo: repo, hasher: hasher}
}

var _ ports.AccountService = (*AccountService)(nil)

func (s *AccountService) Create(ctx context.Context, input ports.CreateAccountInput) (*domain.Account, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || strings.TrimSpace(input.Name) == "" {
		return nil, domain.ErrInvalidAccount
	}
	if len(input.Password) < domain.MinPasswordLength || len(input.Password) > domain.MaxPasswordBytes {
		return nil, domain.ErrWeakPassword
	}
	if !domain.ValidRole(input.Role) {
		return nil, domain.ErrInvalidRole
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return s.repo.Create(ctx, &domain.Account{
		Name:         strings.TrimSpace(input.Name),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        email,
		PasswordHash: hash,
		Role:         input.Role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// EnsureAdmin creates an ADMIN account for email unless one already exists.
func (s *AccountService) EnsureAdmin(ctx context.Context, email, password string) error {
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return err
	}

	_, err := s.Create(ctx, ports.CreateAccountInput{
		Name:     "Administrator",
		Email:    email,
		Password: password,
		Role:     domain.RoleAdmin,
	})
	if errors.Is(err, domain.ErrAccountExists) {
		return nil
	}
	return err
}
