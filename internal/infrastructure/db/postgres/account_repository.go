package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vetapi/clinic-api/internal/core/domain"
)

const uniqueViolation = "23505"

const selectAccount = `
SELECT id, name, last_name, email, password_hash, role, active, last_access, created_at, updated_at
FROM users`

// AccountRepository implements ports.AccountRepository on Postgres.
type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, selectAccount+` WHERE email = $1 AND active`, email)
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, domain.ErrAccountNotFound
	}
	return r.findOne(ctx, selectAccount+` WHERE id = $1 AND active`, n)
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, last_name, email, password_hash, role, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		account.Name, account.LastName, account.Email, account.PasswordHash,
		account.Role, account.Active, account.CreatedAt.UTC(), account.UpdatedAt.UTC(),
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrAccountExists
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}

	created := *account
	created.ID = strconv.FormatInt(id, 10)
	return &created, nil
}

func (r *AccountRepository) UpdateLastAccess(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, `UPDATE users SET last_access = $2, updated_at = NOW() WHERE id = $1`, id, at.UTC())
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
}

func (r *AccountRepository) exec(ctx context.Context, sql, id string, arg any) error {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return domain.ErrAccountNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, sql, n, arg)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) findOne(ctx context.Context, sql string, arg any) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var (
		a  domain.Account
		id int64
	)
	err := r.pool.QueryRow(ctx, sql, arg).Scan(
		&id, &a.Name, &a.LastName, &a.Email, &a.PasswordHash,
		&a.Role, &a.Active, &a.LastAccess, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	a.ID = strconv.FormatInt(id, 10)
	return &a, nil
}

// Pinger adapts the pool to the readiness probe.
type Pinger struct {
	pool *pgxpool.Pool
}

func NewPinger(pool *pgxpool.Pool) *Pinger {
	return &Pinger{pool: pool}
}

func (p *Pinger) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}
