package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yukyra-eren/flarum-ext-money/internal/domain"
)

// PermissionRepo implements domain.PermissionOracle via group membership:
// an account holds a permission when any of its groups carries it.
type PermissionRepo struct {
	pool *pgxpool.Pool
}

func NewPermissionRepo(pool *pgxpool.Pool) *PermissionRepo {
	return &PermissionRepo{pool: pool}
}

func (r *PermissionRepo) HasPermission(ctx context.Context, account *domain.Account, permission string) (bool, error) {
	if account == nil {
		return false, nil
	}

	var held bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM group_permission gp
			JOIN group_user gu ON gu.group_id = gp.group_id
			WHERE gu.account_id = $1 AND gp.permission = $2
		)
	`, account.ID, permission).Scan(&held)
	if err != nil {
		return false, fmt.Errorf("failed to check permission %s: %w", permission, err)
	}
	return held, nil
}

// Can checks a capability of the actor over the target account. Capabilities
// are global permissions; the target only shows up in the error context.
func (r *PermissionRepo) Can(ctx context.Context, actor *domain.Account, capability string, target *domain.Account) error {
	held, err := r.HasPermission(ctx, actor, capability)
	if err != nil {
		return err
	}
	if !held {
		return domain.ErrPermissionDenied
	}
	return nil
}

// Grant adds a permission to a group. Used by tests and provisioning.
func (r *PermissionRepo) Grant(ctx context.Context, groupID int64, permission string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO group_permission (group_id, permission)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, groupID, permission)
	if err != nil {
		return fmt.Errorf("failed to grant permission: %w", err)
	}
	return nil
}

// AddMember puts an account into a group.
func (r *PermissionRepo) AddMember(ctx context.Context, groupID int64, accountID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO group_user (group_id, account_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, groupID, accountID)
	if err != nil {
		return fmt.Errorf("failed to add group member: %w", err)
	}
	return nil
}

// CreateGroup creates a named group and returns its id.
func (r *PermissionRepo) CreateGroup(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO groups (name) VALUES ($1) RETURNING id
	`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create group: %w", err)
	}
	return id, nil
}
