package store

import (
	"context"
	"errors"

	"github.com/bankdemo/transaction-service/internal/models"
)

var (
	ErrNotFound = errors.New("transaction not found")
	// ErrStaleTransition is returned when a status update finds the record in
	// a state it was not expected to be in. The caller decides whether to log
	// and drop (reconciler) or surface the error (orchestrator).
	ErrStaleTransition = errors.New("transaction not in expected status")
)

// TransactionStore is the durable record of transaction state. It is the only
// component mutated by both the orchestrator and the result consumer, so all
// status changes go through UpdateStatus with an explicit precondition.
type TransactionStore interface {
	// Create persists the record and assigns ID and CreatedAt.
	Create(ctx context.Context, tx *models.Transaction) error

	GetByID(ctx context.Context, id int64) (*models.Transaction, error)

	// ListByAccount returns every transaction where the account is source or
	// destination, most recent first.
	ListByAccount(ctx context.Context, accountID int64) ([]models.Transaction, error)

	// UpdateStatus transitions the record to the given status only if it is
	// currently in one of the from statuses. Re-applying the status the record
	// already has is a no-op. errMsg is stored only for FAILED.
	UpdateStatus(ctx context.Context, id int64, from []models.Status, to models.Status, errMsg string) error
}
