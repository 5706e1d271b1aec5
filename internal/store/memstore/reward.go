package memstore

import (
	"context"
	"sync"
	"time"

	"voicehub/internal/domain"
	"voicehub/internal/store"
)

// RewardStore implements reward.Store.
type RewardStore struct {
	locks *store.KeyedLocks

	mu     sync.Mutex
	cycles map[int64]domain.RewardCycleState
}

func NewRewardStore(lockWait time.Duration) *RewardStore {
	return &RewardStore{
		locks:  store.NewKeyedLocks(lockWait),
		cycles: make(map[int64]domain.RewardCycleState),
	}
}

func (s *RewardStore) CycleState(ctx context.Context, userID int64) (domain.RewardCycleState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.cycles[userID]
	if !ok {
		return domain.RewardCycleState{UserID: userID, CurrentDay: 1}, nil
	}
	return st, nil
}

func (s *RewardStore) UpdateCycleState(ctx context.Context, userID int64, apply func(st *domain.RewardCycleState) error) error {
	if err := s.locks.Lock(userID); err != nil {
		return err
	}
	defer s.locks.Unlock(userID)

	s.mu.Lock()
	st, ok := s.cycles[userID]
	s.mu.Unlock()
	if !ok {
		st = domain.RewardCycleState{UserID: userID, CurrentDay: 1}
	}

	if err := apply(&st); err != nil {
		return err
	}

	s.mu.Lock()
	s.cycles[userID] = st
	s.mu.Unlock()
	return nil
}
