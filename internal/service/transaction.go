package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bankdemo/transaction-service/internal/gateway"
	"github.com/bankdemo/transaction-service/internal/models"
	"github.com/bankdemo/transaction-service/internal/store"
)

var (
	ErrBelowMinimum        = errors.New("amount is below the minimum transfer amount")
	ErrAccountNotFound     = errors.New("account does not exist")
	ErrInsufficientFunds   = errors.New("source account has insufficient funds")
	ErrUpstreamUnavailable = errors.New("account service is unavailable")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrPublishFailed       = errors.New("failed to publish transaction event")
)

// AccountGateway validates accounts against the account service.
type AccountGateway interface {
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	ValidateFunds(ctx context.Context, id int64, amount decimal.Decimal) bool
}

// EventPublisher hands a transaction snapshot to the downstream stream.
// Only synchronous enqueue faults are reported.
type EventPublisher interface {
	Publish(ctx context.Context, tx *models.Transaction) error
}

// TransactionService orchestrates the transfer saga: remote validation,
// durable PENDING record, asynchronous publish, PROCESSING hand-off. The
// result consumer finishes the lifecycle independently.
type TransactionService struct {
	store     store.TransactionStore
	accounts  AccountGateway
	events    EventPublisher
	minAmount decimal.Decimal
	logger    *zap.Logger
}

func NewTransactionService(
	st store.TransactionStore,
	accounts AccountGateway,
	events EventPublisher,
	minAmount decimal.Decimal,
	logger *zap.Logger,
) *TransactionService {
	return &TransactionService{
		store:     st,
		accounts:  accounts,
		events:    events,
		minAmount: minAmount,
		logger:    logger,
	}
}

// Create runs the transfer pipeline. Every step is a hard gate: validation
// and gateway faults abort before anything is persisted. Once the PENDING
// record exists the flow commits to returning it as PROCESSING or FAILED,
// never discarding it silently.
func (s *TransactionService) Create(ctx context.Context, req models.TransactionRequest) (*models.TransactionResponse, error) {
	// 1. Policy gate
	if req.Amount.LessThan(s.minAmount) {
		return nil, fmt.Errorf("%w (%s)", ErrBelowMinimum, s.minAmount.StringFixed(2))
	}

	// 2-3. Both accounts must exist; source first, destination always checked
	// even when it equals the source.
	if err := s.verifyAccount(ctx, req.FromAccount, "source"); err != nil {
		return nil, err
	}
	if err := s.verifyAccount(ctx, req.ToAccount, "destination"); err != nil {
		return nil, err
	}

	// 4. Funds check: a debit of the full amount must be covered. The gateway
	// already degrades faults to deny.
	if !s.accounts.ValidateFunds(ctx, req.FromAccount, req.Amount.Neg()) {
		return nil, ErrInsufficientFunds
	}

	// 5. First durable side effect.
	tx := &models.Transaction{
		FromAccount: req.FromAccount,
		ToAccount:   req.ToAccount,
		Amount:      req.Amount,
		Status:      models.StatusPending,
	}
	if err := s.store.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("persisting transaction: %w", err)
	}

	// 6. Publish. A synchronous enqueue fault leaves an auditable FAILED
	// record before the error reaches the caller.
	if err := s.events.Publish(ctx, tx); err != nil {
		s.logger.Error("transaction event publish failed",
			zap.Int64("transaction", tx.ID), zap.Error(err))
		msg := "failed to publish transaction event: " + err.Error()
		if uerr := s.store.UpdateStatus(ctx, tx.ID,
			[]models.Status{models.StatusPending}, models.StatusFailed, msg); uerr != nil {
			s.logger.Error("marking transaction failed",
				zap.Int64("transaction", tx.ID), zap.Error(uerr))
		}
		return nil, fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}

	// 7. The caller never sees PENDING as a terminal response.
	if err := s.store.UpdateStatus(ctx, tx.ID,
		[]models.Status{models.StatusPending}, models.StatusProcessing, ""); err != nil {
		return nil, fmt.Errorf("advancing transaction %d to PROCESSING: %w", tx.ID, err)
	}
	tx.Status = models.StatusProcessing

	s.logger.Info("transaction accepted",
		zap.Int64("transaction", tx.ID),
		zap.Int64("from", tx.FromAccount),
		zap.Int64("to", tx.ToAccount),
		zap.String("amount", tx.Amount.String()))
	return tx.Response(), nil
}

// Get returns the current snapshot of one transaction.
func (s *TransactionService) Get(ctx context.Context, id int64) (*models.TransactionResponse, error) {
	tx, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrTransactionNotFound, id)
		}
		return nil, fmt.Errorf("loading transaction %d: %w", id, err)
	}
	return tx.Response(), nil
}

// ListByAccount returns every transaction the account participates in,
// most recent first.
func (s *TransactionService) ListByAccount(ctx context.Context, accountID int64) ([]models.TransactionResponse, error) {
	txs, err := s.store.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("listing transactions for account %d: %w", accountID, err)
	}
	views := make([]models.TransactionResponse, 0, len(txs))
	for i := range txs {
		views = append(views, *txs[i].Response())
	}
	return views, nil
}

func (s *TransactionService) verifyAccount(ctx context.Context, id int64, role string) error {
	if _, err := s.accounts.GetAccount(ctx, id); err != nil {
		if errors.Is(err, gateway.ErrAccountNotFound) {
			return fmt.Errorf("%s account %d: %w", role, id, ErrAccountNotFound)
		}
		// Auth faults are configuration-class; keep them distinguishable from
		// ordinary upstream unavailability.
		if errors.Is(err, gateway.ErrAuthFailed) {
			return fmt.Errorf("verifying %s account %d: %w", role, id, err)
		}
		return fmt.Errorf("verifying %s account %d: %w", role, id, ErrUpstreamUnavailable)
	}
	return nil
}
