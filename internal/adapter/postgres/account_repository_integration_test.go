package postgres

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukyra-eren/flarum-ext-money/internal/domain"
)

func TestCreateAccount(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewAccountRepo(pool)
	ctx := context.Background()

	account, err := repo.CreateAccount(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, account.ID)
	assert.Equal(t, "alice", account.Username)
	assert.Zero(t, account.Balance)
}

func TestGetByID_NotFound(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewAccountRepo(pool)
	ctx := context.Background()

	account, err := repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.Nil(t, account)
}

func TestAdjustBalance_AppliesSignedDelta(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewAccountRepo(pool)
	ctx := context.Background()

	account, err := repo.CreateAccount(ctx, "bob")
	require.NoError(t, err)

	updated, err := repo.AdjustBalance(ctx, account.ID, 12.5)
	require.NoError(t, err)
	assert.Equal(t, 12.5, updated.Balance)

	updated, err = repo.AdjustBalance(ctx, account.ID, -20)
	require.NoError(t, err)
	assert.Equal(t, -7.5, updated.Balance)
}

func TestAdjustBalance_NotFound(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewAccountRepo(pool)
	ctx := context.Background()

	_, err := repo.AdjustBalance(ctx, uuid.New(), 1)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAdjustBalance_ConcurrentDeltasAllLand(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewAccountRepo(pool)
	ctx := context.Background()

	account, err := repo.CreateAccount(ctx, "carol")
	require.NoError(t, err)

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			_, err := repo.AdjustBalance(ctx, account.ID, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	final, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(workers), final.Balance)
}

func TestSetBalance_Overwrites(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewAccountRepo(pool)
	ctx := context.Background()

	account, err := repo.CreateAccount(ctx, "dave")
	require.NoError(t, err)

	_, err = repo.AdjustBalance(ctx, account.ID, 42)
	require.NoError(t, err)

	updated, err := repo.SetBalance(ctx, account.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, 100.0, updated.Balance)
}
