package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a transaction. Transitions are monotonic:
// PENDING -> PROCESSING -> COMPLETED|FAILED, or PENDING -> FAILED when the
// event publish fails synchronously.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Transaction is the durable record of a transfer intent. The account service
// owns the actual money movement; this record tracks the orchestration state.
type Transaction struct {
	ID           int64           `json:"id"`
	FromAccount  int64           `json:"from_account"`
	ToAccount    int64           `json:"to_account"`
	Amount       decimal.Decimal `json:"amount"`
	CreatedAt    time.Time       `json:"created_at"`
	Status       Status          `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// TransactionRequest is the payload from the client.
type TransactionRequest struct {
	FromAccount int64           `json:"from_account"`
	ToAccount   int64           `json:"to_account"`
	Amount      decimal.Decimal `json:"amount"`
}

// TransactionResponse is the client-facing view of a transaction.
type TransactionResponse struct {
	TransactionID int64           `json:"transaction_id"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	FromAccount   int64           `json:"from_account"`
	ToAccount     int64           `json:"to_account"`
	Amount        decimal.Decimal `json:"amount"`
	ErrorMessage  string          `json:"error_message,omitempty"`
}

// Response maps the record to its client-facing view.
func (t *Transaction) Response() *TransactionResponse {
	return &TransactionResponse{
		TransactionID: t.ID,
		Status:        string(t.Status),
		CreatedAt:     t.CreatedAt,
		FromAccount:   t.FromAccount,
		ToAccount:     t.ToAccount,
		Amount:        t.Amount,
		ErrorMessage:  t.ErrorMessage,
	}
}

// Account is a point-in-time snapshot fetched from the account service.
// It is never cached beyond a single validation call.
type Account struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

// TransactionResult is the outcome notification consumed from the downstream
// processor. Status carries only the terminal states.
type TransactionResult struct {
	ID           int64  `json:"id"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}
