package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/vetapi/clinic-api/internal/core/domain"
	"github.com/vetapi/clinic-api/internal/core/ports"
)

type stubAccountService struct {
	createFn func(ctx context.Context, input ports.CreateAccountInput) (*domain.Account, error)
}

func (s *stubAccountService) Create(ctx context.Context, input ports.CreateAccountInput) (*domain.Account, error) {
	return s.createFn(ctx, input)
}

func (s *stubAccountService) EnsureAdmin(context.Context, string, string) error { return nil }

func TestAccountHandler_Create(t *testing.T) {
	stub := &stubAccountService{
		createFn: func(_ context.Context, in ports.CreateAccountInput) (*domain.Account, error) {
			if in.Email == "taken@clinic.test" {
				return nil, domain.ErrAccountExists
			}
			return &domain.Account{ID: "11", Name: in.Name, Email: in.Email, Role: in.Role, Active: true}, nil
		},
	}
	h := NewAccountHandler(stub)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"created", `{"name":"Ana","email":"ana@clinic.test","password":"pass123","role":"VETERINARIAN"}`, http.StatusCreated},
		{"duplicate", `{"name":"Ana","email":"taken@clinic.test","password":"pass123","role":"ADMIN"}`, http.StatusConflict},
		{"short password", `{"name":"Ana","email":"ana@clinic.test","password":"123","role":"ADMIN"}`, http.StatusBadRequest},
		{"unknown role", `{"name":"Ana","email":"ana@clinic.test","password":"pass123","role":"GROOMER"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, c, rec := newJSONContext(http.MethodPost, "/users", tt.body)
			serve(t, e, c, h.Create)
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
		})
	}
}
