package store

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankdemo/transaction-service/internal/models"
)

func newTx(from, to int64) *models.Transaction {
	return &models.Transaction{
		FromAccount: from,
		ToAccount:   to,
		Amount:      decimal.RequireFromString("1000.00"),
		Status:      models.StatusPending,
	}
}

func TestMemoryStore_CreateAssignsIdentityAndTimestamp(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	tx := newTx(1, 2)
	require.NoError(t, st.Create(ctx, tx))

	assert.NotZero(t, tx.ID)
	assert.False(t, tx.CreatedAt.IsZero())

	got, err := st.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestMemoryStore_GetByIDUnknown(t *testing.T) {
	st := NewMemoryStore()
	_, err := st.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ListByAccountMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	first := newTx(1, 2)
	second := newTx(3, 1)
	third := newTx(1, 4)
	unrelated := newTx(7, 8)
	for _, tx := range []*models.Transaction{first, second, third, unrelated} {
		require.NoError(t, st.Create(ctx, tx))
	}

	txs, err := st.ListByAccount(ctx, 1)
	require.NoError(t, err)
	require.Len(t, txs, 3)

	// Most recent first; insertion order breaks timestamp ties.
	assert.Equal(t, third.ID, txs[0].ID)
	assert.Equal(t, second.ID, txs[1].ID)
	assert.Equal(t, first.ID, txs[2].ID)
}

func TestMemoryStore_ListByAccountEmpty(t *testing.T) {
	txs, err := NewMemoryStore().ListByAccount(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, txs)
	assert.Empty(t, txs)
}

func TestMemoryStore_UpdateStatusHonorsPrecondition(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	tx := newTx(1, 2)
	require.NoError(t, st.Create(ctx, tx))

	err := st.UpdateStatus(ctx, tx.ID, []models.Status{models.StatusPending}, models.StatusProcessing, "")
	require.NoError(t, err)

	// A PROCESSING-only transition cannot run against a completed record.
	err = st.UpdateStatus(ctx, tx.ID, []models.Status{models.StatusProcessing}, models.StatusCompleted, "")
	require.NoError(t, err)

	err = st.UpdateStatus(ctx, tx.ID, []models.Status{models.StatusProcessing}, models.StatusFailed, "late failure")
	assert.ErrorIs(t, err, ErrStaleTransition)

	got, err := st.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Empty(t, got.ErrorMessage)
}

func TestMemoryStore_UpdateStatusIdempotentOnSameStatus(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	tx := newTx(1, 2)
	require.NoError(t, st.Create(ctx, tx))
	require.NoError(t, st.UpdateStatus(ctx, tx.ID, []models.Status{models.StatusPending}, models.StatusProcessing, ""))
	require.NoError(t, st.UpdateStatus(ctx, tx.ID, []models.Status{models.StatusProcessing}, models.StatusCompleted, ""))

	// Re-applying the same terminal outcome is a no-op, not an error.
	err := st.UpdateStatus(ctx, tx.ID, []models.Status{models.StatusProcessing}, models.StatusCompleted, "")
	require.NoError(t, err)

	got, err := st.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
}

func TestMemoryStore_UpdateStatusStoresErrorOnlyForFailed(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	tx := newTx(1, 2)
	require.NoError(t, st.Create(ctx, tx))
	require.NoError(t, st.UpdateStatus(ctx, tx.ID, []models.Status{models.StatusPending}, models.StatusProcessing, ""))
	require.NoError(t, st.UpdateStatus(ctx, tx.ID, []models.Status{models.StatusProcessing}, models.StatusFailed, "downstream rejected"))

	got, err := st.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, got.Status)
	assert.Equal(t, "downstream rejected", got.ErrorMessage)
}

func TestMemoryStore_UpdateStatusUnknownTransaction(t *testing.T) {
	err := NewMemoryStore().UpdateStatus(context.Background(), 404,
		[]models.Status{models.StatusProcessing}, models.StatusCompleted, "")
	assert.ErrorIs(t, err, ErrNotFound)
}
