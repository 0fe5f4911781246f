package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bankdemo/transaction-service/internal/models"
)

// PostgresStore implements TransactionStore on a pgx connection pool.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &PostgresStore{db: pool}, nil
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

func (s *PostgresStore) Create(ctx context.Context, tx *models.Transaction) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO transactions (from_account, to_account, amount, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		tx.FromAccount, tx.ToAccount, tx.Amount, string(tx.Status),
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("transaction insert failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	var t models.Transaction
	var errMsg *string
	err := s.db.QueryRow(ctx,
		`SELECT id, from_account, to_account, amount, created_at, status, error_message
		 FROM transactions WHERE id = $1`,
		id).Scan(&t.ID, &t.FromAccount, &t.ToAccount, &t.Amount, &t.CreatedAt, &t.Status, &errMsg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("transaction query failed: %w", err)
	}
	if errMsg != nil {
		t.ErrorMessage = *errMsg
	}
	return &t, nil
}

func (s *PostgresStore) ListByAccount(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	// id DESC breaks timestamp ties in insertion order.
	rows, err := s.db.Query(ctx,
		`SELECT id, from_account, to_account, amount, created_at, status, error_message
		 FROM transactions
		 WHERE from_account = $1 OR to_account = $1
		 ORDER BY created_at DESC, id DESC`,
		accountID)
	if err != nil {
		return nil, fmt.Errorf("transaction list query failed: %w", err)
	}
	defer rows.Close()

	txs := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		var errMsg *string
		if err := rows.Scan(&t.ID, &t.FromAccount, &t.ToAccount, &t.Amount, &t.CreatedAt, &t.Status, &errMsg); err != nil {
			return nil, fmt.Errorf("transaction row scan failed: %w", err)
		}
		if errMsg != nil {
			t.ErrorMessage = *errMsg
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id int64, from []models.Status, to models.Status, errMsg string) error {
	expected := make([]string, len(from))
	for i, st := range from {
		expected[i] = string(st)
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE transactions
		 SET status = $2, error_message = NULLIF($3, '')
		 WHERE id = $1 AND status = ANY($4)`,
		id, string(to), errMsg, expected)
	if err != nil {
		return fmt.Errorf("transaction status update failed: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// No row matched the precondition: distinguish missing, already-applied
	// and genuinely conflicting states.
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == to {
		return nil
	}
	return fmt.Errorf("%w: id %d is %s, expected one of %v", ErrStaleTransition, id, current.Status, from)
}
