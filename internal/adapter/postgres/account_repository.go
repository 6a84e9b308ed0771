package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yukyra-eren/flarum-ext-money/internal/domain"
)

// accountColumns must match the Scan order in scanAccount.
const accountColumns = `id, username, money, created_at, updated_at`

// AccountRepo implements domain.AccountRepository backed by PostgreSQL.
type AccountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	err := row.Scan(
		&account.ID, &account.Username, &account.Balance,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	return &account, nil
}

func (r *AccountRepo) GetByID(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, accountID))
}

// AdjustBalance applies the delta in a single UPDATE so concurrent mutations
// of the same account never lose increments.
func (r *AccountRepo) AdjustBalance(ctx context.Context, accountID uuid.UUID, delta float64) (*domain.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, `
		UPDATE accounts
		SET money = money + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+accountColumns, accountID, delta))
}

func (r *AccountRepo) SetBalance(ctx context.Context, accountID uuid.UUID, balance float64) (*domain.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, `
		UPDATE accounts
		SET money = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+accountColumns, accountID, balance))
}

// CreateAccount inserts a new account with a zero balance. Used by tests and
// by deployments that provision accounts out of band.
func (r *AccountRepo) CreateAccount(ctx context.Context, username string) (*domain.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, `
		INSERT INTO accounts (username)
		VALUES ($1)
		RETURNING `+accountColumns, username))
}
