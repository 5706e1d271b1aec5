// Package memstore backs the component store interfaces with in-process
// maps guarded by bounded-wait per-key locks. It serves the test suites and
// small single-node deployments; the pgx repositories provide durability.
package memstore

import (
	"context"
	"sync"
	"time"

	"voicehub/internal/domain"
	"voicehub/internal/store"
)

// AccountStore implements economy.Store.
type AccountStore struct {
	locks *store.KeyedLocks

	mu       sync.Mutex
	accounts map[int64]domain.Account
	txs      map[int64][]domain.Transaction
	nextTxID int64
}

func NewAccountStore(lockWait time.Duration) *AccountStore {
	return &AccountStore{
		locks:    store.NewKeyedLocks(lockWait),
		accounts: make(map[int64]domain.Account),
		txs:      make(map[int64][]domain.Transaction),
	}
}

func (s *AccountStore) Account(ctx context.Context, userID int64) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[userID]
	if !ok {
		return domain.Account{UserID: userID}, nil
	}
	return acc, nil
}

func (s *AccountStore) Update(ctx context.Context, userID int64, apply func(acc *domain.Account) error, txs ...*domain.Transaction) error {
	if err := s.locks.Lock(userID); err != nil {
		return err
	}
	defer s.locks.Unlock(userID)

	s.mu.Lock()
	acc, ok := s.accounts[userID]
	s.mu.Unlock()
	if !ok {
		acc = domain.Account{UserID: userID}
	}

	if err := apply(&acc); err != nil {
		return err
	}

	s.mu.Lock()
	s.accounts[userID] = acc
	s.appendLocked(txs)
	s.mu.Unlock()
	return nil
}

func (s *AccountStore) UpdatePair(ctx context.Context, aID, bID int64, apply func(a, b *domain.Account) error, txs ...*domain.Transaction) error {
	if err := s.locks.LockPair(aID, bID); err != nil {
		return err
	}
	defer s.locks.UnlockPair(aID, bID)

	s.mu.Lock()
	a, ok := s.accounts[aID]
	if !ok {
		a = domain.Account{UserID: aID}
	}
	b, ok := s.accounts[bID]
	if !ok {
		b = domain.Account{UserID: bID}
	}
	s.mu.Unlock()

	if aID == bID {
		// Self-directed pair: both legs act on one account.
		if err := apply(&a, &a); err != nil {
			return err
		}
		b = a
	} else if err := apply(&a, &b); err != nil {
		return err
	}

	s.mu.Lock()
	s.accounts[aID] = a
	s.accounts[bID] = b
	s.appendLocked(txs)
	s.mu.Unlock()
	return nil
}

func (s *AccountStore) Transactions(ctx context.Context, userID int64, limit int) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.txs[userID]
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}
	// Stored oldest-first; return newest-first.
	out := make([]domain.Transaction, 0, limit)
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, list[i])
	}
	return out, nil
}

func (s *AccountStore) appendLocked(txs []*domain.Transaction) {
	now := time.Now().UTC()
	for _, tx := range txs {
		s.nextTxID++
		tx.ID = s.nextTxID
		if tx.CreatedAt.IsZero() {
			tx.CreatedAt = now
		}
		s.txs[tx.UserID] = append(s.txs[tx.UserID], *tx)
	}
}
