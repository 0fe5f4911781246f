package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bankdemo/transaction-service/internal/models"
)

// MemoryStore is an in-memory TransactionStore used by tests and local runs
// without a database.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	txs    map[int64]models.Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{txs: make(map[int64]models.Transaction)}
}

func (s *MemoryStore) Create(_ context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	tx.ID = s.nextID
	tx.CreatedAt = time.Now()
	s.txs[tx.ID] = *tx
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id int64) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.txs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &tx, nil
}

func (s *MemoryStore) ListByAccount(_ context.Context, accountID int64) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txs := []models.Transaction{}
	for _, tx := range s.txs {
		if tx.FromAccount == accountID || tx.ToAccount == accountID {
			txs = append(txs, tx)
		}
	}
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].CreatedAt.Equal(txs[j].CreatedAt) {
			return txs[i].CreatedAt.After(txs[j].CreatedAt)
		}
		return txs[i].ID > txs[j].ID
	})
	return txs, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id int64, from []models.Status, to models.Status, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.txs[id]
	if !ok {
		return ErrNotFound
	}
	if tx.Status == to {
		return nil
	}
	for _, st := range from {
		if tx.Status == st {
			tx.Status = to
			if to == models.StatusFailed {
				tx.ErrorMessage = errMsg
			} else {
				tx.ErrorMessage = ""
			}
			s.txs[id] = tx
			return nil
		}
	}
	return fmt.Errorf("%w: id %d is %s, expected one of %v", ErrStaleTransition, id, tx.Status, from)
}
