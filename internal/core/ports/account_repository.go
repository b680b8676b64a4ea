package ports

import (
	"context"
	"time"

	"github.com/vetapi/clinic-api/internal/core/domain"
)

// AccountRepository is the read/write boundary to the user-management store.
// Lookups by email are exact and case-sensitive. Missing accounts yield domain.ErrAccountNotFound.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	UpdateLastAccess(ctx context.Context, id string, at time.Time) error
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
}
