package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Account is a forum user identity holding a currency balance. Balance is
// only ever written through the rule engine; no other code path mutates it.
type Account struct {
	ID        uuid.UUID
	Username  string
	Balance   float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type AccountRepository interface {
	GetByID(ctx context.Context, accountID uuid.UUID) (*Account, error)
	// AdjustBalance applies a signed delta as a single atomic update and
	// returns the account with its new balance. Balances may go negative.
	AdjustBalance(ctx context.Context, accountID uuid.UUID, delta float64) (*Account, error)
	// SetBalance overwrites the balance with an absolute value (direct edit).
	SetBalance(ctx context.Context, accountID uuid.UUID, balance float64) (*Account, error)
}
