package service

import (
	"context"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/vetapi/clinic-api/internal/core/domain"
	"github.com/vetapi/clinic-api/internal/core/ports"
	"github.com/vetapi/clinic-api/internal/infrastructure/security"
)

func createInput(email, password, role string) ports.CreateAccountInput {
	return ports.CreateAccountInput{Name: "Ana", LastName: "Ruiz", Email: email, Password: password, Role: role}
}

func newAccountService() (*AccountService, *stubAccountRepo) {
	repo := newStubAccountRepo()
	return NewAccountService(repo, security.NewBcryptHasher(bcrypt.MinCost)), repo
}

func TestAccountService_Create_Success(t *testing.T) {
	svc, _ := newAccountService()

	a, err := svc.Create(context.Background(), createInput("ana@clinic.test", "pass123", domain.RoleVeterinarian))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if a.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if !a.Active || a.CreatedAt.IsZero() {
		t.Fatalf("expected active account with timestamps: %+v", a)
	}
}

func TestAccountService_Create_Validation(t *testing.T) {
	svc, _ := newAccountService()

	tests := []struct {
		name  string
		input ports.CreateAccountInput
		want  error
	}{
		{"missing email", createInput("", "pass123", domain.RoleAdmin), domain.ErrInvalidAccount},
		{"short password", createInput("a@clinic.test", "12345", domain.RoleAdmin), domain.ErrWeakPassword},
		{"overlong password", createInput("a@clinic.test", strings.Repeat("p", domain.MaxPasswordBytes+1), domain.RoleAdmin), domain.ErrWeakPassword},
		{"unknown role", createInput("a@clinic.test", "pass123", "GROOMER"), domain.ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tt.input); err != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestAccountService_Create_Duplicate(t *testing.T) {
	svc, _ := newAccountService()

	_, _ = svc.Create(context.Background(), createInput("ana@clinic.test", "pass123", domain.RoleAdmin))
	if _, err := svc.Create(context.Background(), createInput("ana@clinic.test", "pass456", domain.RoleAdmin)); err != domain.ErrAccountExists {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestAccountService_EnsureAdmin_Idempotent(t *testing.T) {
	svc, repo := newAccountService()

	if err := svc.EnsureAdmin(context.Background(), "root@clinic.test", "bootstrap-pw"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	first := repo.accounts["root@clinic.test"]
	if first == nil || first.Role != domain.RoleAdmin {
		t.Fatalf("expected admin account, got %+v", first)
	}

	if err := svc.EnsureAdmin(context.Background(), "root@clinic.test", "different-pw"); err != nil {
		t.Fatalf("EnsureAdmin (second): %v", err)
	}
	if repo.accounts["root@clinic.test"].PasswordHash != first.PasswordHash {
		t.Fatalf("existing admin must not be overwritten")
	}
}
