package memstore

import (
	"context"
	"sync"
	"time"

	"voicehub/internal/domain"
	"voicehub/internal/referral"
	"voicehub/internal/store"
)

// ReferralStore implements referral.Store.
type ReferralStore struct {
	locks *store.KeyedLocks

	mu         sync.Mutex
	byInvitee  map[int64]*domain.ReferralEdge
	byInviter  map[int64][]int64 // inviter → invitee ids
	codes      map[int64]string
	codeOwners map[string]int64
	earnings   map[int64]domain.ReferralEarnings
	nextEdgeID int64
}

func NewReferralStore(lockWait time.Duration) *ReferralStore {
	return &ReferralStore{
		locks:      store.NewKeyedLocks(lockWait),
		byInvitee:  make(map[int64]*domain.ReferralEdge),
		byInviter:  make(map[int64][]int64),
		codes:      make(map[int64]string),
		codeOwners: make(map[string]int64),
		earnings:   make(map[int64]domain.ReferralEarnings),
	}
}

func (s *ReferralStore) EdgeByInvitee(ctx context.Context, inviteeID int64) (*domain.ReferralEdge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byInvitee[inviteeID]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (s *ReferralStore) EdgesByInviter(ctx context.Context, inviterID int64) ([]domain.ReferralEdge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ReferralEdge
	for _, inviteeID := range s.byInviter[inviterID] {
		if e, ok := s.byInvitee[inviteeID]; ok {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *ReferralStore) CreateEdge(ctx context.Context, edge *domain.ReferralEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byInvitee[edge.InviteeID]; ok {
		return referral.ErrAlreadyBound
	}
	s.nextEdgeID++
	edge.ID = s.nextEdgeID
	cp := *edge
	s.byInvitee[edge.InviteeID] = &cp
	s.byInviter[edge.InviterID] = append(s.byInviter[edge.InviterID], edge.InviteeID)
	return nil
}

func (s *ReferralStore) UpdateEdge(ctx context.Context, inviteeID int64, apply func(e *domain.ReferralEdge) error) error {
	if err := s.locks.Lock(inviteeID); err != nil {
		return err
	}
	defer s.locks.Unlock(inviteeID)

	s.mu.Lock()
	e, ok := s.byInvitee[inviteeID]
	s.mu.Unlock()
	if !ok {
		return referral.ErrEdgeNotFound
	}

	cp := *e
	if err := apply(&cp); err != nil {
		return err
	}

	s.mu.Lock()
	s.byInvitee[inviteeID] = &cp
	s.mu.Unlock()
	return nil
}

func (s *ReferralStore) CodeFor(ctx context.Context, userID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if code, ok := s.codes[userID]; ok {
		return code, nil
	}
	code := referral.NewCode()
	s.codes[userID] = code
	s.codeOwners[code] = userID
	return code, nil
}

func (s *ReferralStore) CodeOwner(ctx context.Context, code string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codeOwners[code], nil
}

func (s *ReferralStore) Earnings(ctx context.Context, userID int64) (domain.ReferralEarnings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.earnings[userID]
	if !ok {
		return domain.ReferralEarnings{UserID: userID}, nil
	}
	return e, nil
}

func (s *ReferralStore) UpdateEarnings(ctx context.Context, userID int64, apply func(e *domain.ReferralEarnings) error) error {
	if err := s.locks.Lock(userID); err != nil {
		return err
	}
	defer s.locks.Unlock(userID)

	s.mu.Lock()
	e, ok := s.earnings[userID]
	s.mu.Unlock()
	if !ok {
		e = domain.ReferralEarnings{UserID: userID}
	}

	if err := apply(&e); err != nil {
		return err
	}

	s.mu.Lock()
	s.earnings[userID] = e
	s.mu.Unlock()
	return nil
}
