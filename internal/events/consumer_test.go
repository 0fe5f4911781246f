package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bankdemo/transaction-service/internal/models"
	"github.com/bankdemo/transaction-service/internal/store"
)

func processingTx(t *testing.T, st *store.MemoryStore) *models.Transaction {
	t.Helper()
	ctx := context.Background()
	tx := &models.Transaction{
		FromAccount: 1001,
		ToAccount:   2001,
		Amount:      decimal.RequireFromString("1000.00"),
		Status:      models.StatusPending,
	}
	require.NoError(t, st.Create(ctx, tx))
	require.NoError(t, st.UpdateStatus(ctx, tx.ID,
		[]models.Status{models.StatusPending}, models.StatusProcessing, ""))
	tx.Status = models.StatusProcessing
	return tx
}

func newTestConsumer(st *store.MemoryStore) *Consumer {
	return &Consumer{store: st, logger: zap.NewNop()}
}

func resultPayload(t *testing.T, id int64, status, errMsg string) []byte {
	t.Helper()
	payload, err := json.Marshal(models.TransactionResult{ID: id, Status: status, ErrorMessage: errMsg})
	require.NoError(t, err)
	return payload
}

func TestProcess_CompletedOutcomeApplied(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	tx := processingTx(t, st)
	c := newTestConsumer(st)

	c.process(ctx, resultPayload(t, tx.ID, "COMPLETED", ""))

	got, err := st.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Empty(t, got.ErrorMessage)
}

func TestProcess_FailedOutcomeCarriesErrorMessage(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	tx := processingTx(t, st)
	c := newTestConsumer(st)

	c.process(ctx, resultPayload(t, tx.ID, "FAILED", "destination account frozen"))

	got, err := st.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, got.Status)
	assert.Equal(t, "destination account frozen", got.ErrorMessage)
}

func TestProcess_DuplicateTerminalOutcomeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	tx := processingTx(t, st)
	c := newTestConsumer(st)

	c.process(ctx, resultPayload(t, tx.ID, "COMPLETED", ""))
	c.process(ctx, resultPayload(t, tx.ID, "COMPLETED", ""))

	got, err := st.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
}

func TestProcess_UnknownTransactionIsDropped(t *testing.T) {
	st := store.NewMemoryStore()
	c := newTestConsumer(st)

	// Must not panic or surface anything to the transport layer.
	c.process(context.Background(), resultPayload(t, 77, "COMPLETED", ""))
}

func TestProcess_MalformedPayloadIsDropped(t *testing.T) {
	st := store.NewMemoryStore()
	c := newTestConsumer(st)

	c.process(context.Background(), []byte("not json"))
	c.process(context.Background(), []byte(`{"id": "wrong type"}`))
}

func TestProcess_NonTerminalStatusIsDropped(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	tx := processingTx(t, st)
	c := newTestConsumer(st)

	c.process(ctx, resultPayload(t, tx.ID, "PROCESSING", ""))

	got, err := st.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, got.Status)
}

func TestProcess_StaleOutcomeDoesNotOverwrite(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	tx := processingTx(t, st)
	c := newTestConsumer(st)

	c.process(ctx, resultPayload(t, tx.ID, "COMPLETED", ""))
	// A contradictory late result must not rewind the terminal state.
	c.process(ctx, resultPayload(t, tx.ID, "FAILED", "late duplicate"))

	got, err := st.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Empty(t, got.ErrorMessage)
}
