package memstore

import (
	"context"
	"sync"
	"time"

	"voicehub/internal/domain"
)

// VipStore implements vip.ProfileStore. Profiles are written when a tier is
// purchased or granted; reads are by value.
type VipStore struct {
	mu       sync.RWMutex
	profiles map[int64]domain.VipProfile
}

func NewVipStore() *VipStore {
	return &VipStore{profiles: make(map[int64]domain.VipProfile)}
}

func (s *VipStore) VipProfile(ctx context.Context, userID int64) (domain.VipProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return domain.VipProfile{UserID: userID}, nil
	}
	return p, nil
}

// SetProfile grants a tier until expiresAt.
func (s *VipStore) SetProfile(userID int64, tier int, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[userID] = domain.VipProfile{UserID: userID, Tier: tier, ExpiresAt: expiresAt}
}
