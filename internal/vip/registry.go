// Package vip is the read-only tier table consulted by the reward scheduler
// and the gift engine. The table is loaded once and never mutated.
package vip

import (
	"context"
	"time"

	"voicehub/internal/domain"
)

// ProfileStore resolves a user's purchased tier and its expiry. A missing
// profile is reported as tier 0 with a zero expiry.
type ProfileStore interface {
	VipProfile(ctx context.Context, userID int64) (domain.VipProfile, error)
}

// defaultTiers is the single authoritative tier table. Clients read it over
// the API instead of shipping their own copy.
var defaultTiers = []domain.VipTier{
	{Tier: 1, DailyRewardMultiplier: 1.2, ExpMultiplier: 1.1, GiftBonusPercent: 5, MonthlyCoins: 10000},
	{Tier: 2, DailyRewardMultiplier: 1.4, ExpMultiplier: 1.2, GiftBonusPercent: 10, MonthlyCoins: 20000},
	{Tier: 3, DailyRewardMultiplier: 1.6, ExpMultiplier: 1.3, GiftBonusPercent: 15, MonthlyCoins: 30000},
	{Tier: 4, DailyRewardMultiplier: 1.8, ExpMultiplier: 1.4, GiftBonusPercent: 20, MonthlyCoins: 40000},
	{Tier: 5, DailyRewardMultiplier: 2.0, ExpMultiplier: 1.5, GiftBonusPercent: 25, MonthlyCoins: 50000},
	{Tier: 6, DailyRewardMultiplier: 2.2, ExpMultiplier: 1.6, GiftBonusPercent: 30, MonthlyCoins: 60000},
	{Tier: 7, DailyRewardMultiplier: 2.4, ExpMultiplier: 1.7, GiftBonusPercent: 35, MonthlyCoins: 70000},
	{Tier: 8, DailyRewardMultiplier: 2.6, ExpMultiplier: 1.8, GiftBonusPercent: 40, MonthlyCoins: 80000},
	{Tier: 9, DailyRewardMultiplier: 2.8, ExpMultiplier: 1.9, GiftBonusPercent: 45, MonthlyCoins: 90000},
	{Tier: 10, DailyRewardMultiplier: 3.0, ExpMultiplier: 2.0, GiftBonusPercent: 50, MonthlyCoins: 100000},
}

// Registry is safe for concurrent use; it is immutable after construction.
type Registry struct {
	tiers map[int]domain.VipTier
	order []domain.VipTier
}

func NewRegistry() *Registry {
	r := &Registry{tiers: make(map[int]domain.VipTier, len(defaultTiers))}
	for _, t := range defaultTiers {
		r.tiers[t.Tier] = t
	}
	r.order = append(r.order, defaultTiers...)
	return r
}

// Tiers returns the full table in ascending tier order.
func (r *Registry) Tiers() []domain.VipTier {
	out := make([]domain.VipTier, len(r.order))
	copy(out, r.order)
	return out
}

// Lookup returns the tier row, or false for tier 0 and unknown tiers.
func (r *Registry) Lookup(tier int) (domain.VipTier, bool) {
	t, ok := r.tiers[tier]
	return t, ok
}

// Multiplier returns the daily-reward multiplier for tier. Tier 0 and
// unknown tiers get 1.0; this never fails.
func (r *Registry) Multiplier(tier int) float64 {
	if t, ok := r.tiers[tier]; ok {
		return t.DailyRewardMultiplier
	}
	return 1.0
}

// GiftBonusPercent returns the gift bonus for tier, 0 for tier 0 or unknown.
func (r *Registry) GiftBonusPercent(tier int) int {
	if t, ok := r.tiers[tier]; ok {
		return t.GiftBonusPercent
	}
	return 0
}

// Expired reports whether a purchased tier has lapsed. A zero expiry means
// the tier was never purchased.
func (r *Registry) Expired(expiresAt time.Time, now time.Time) bool {
	return expiresAt.IsZero() || !expiresAt.After(now)
}

// Effective resolves the tier all callers should act on: the purchased tier
// if unexpired, otherwise 0.
func (r *Registry) Effective(tier int, expiresAt time.Time, now time.Time) int {
	if tier <= 0 || r.Expired(expiresAt, now) {
		return 0
	}
	if _, ok := r.tiers[tier]; !ok {
		return 0
	}
	return tier
}

// EffectiveFor looks up the user's profile and resolves the effective tier.
func (r *Registry) EffectiveFor(ctx context.Context, profiles ProfileStore, userID int64, now time.Time) (int, error) {
	p, err := profiles.VipProfile(ctx, userID)
	if err != nil {
		return 0, err
	}
	return r.Effective(p.Tier, p.ExpiresAt, now), nil
}
