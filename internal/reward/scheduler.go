// Package reward implements the 7-day login reward cycle. Day resets happen
// at midnight UTC; a claim is allowed at most once per UTC calendar day.
package reward

import (
	"context"
	"errors"
	"math"
	"time"

	"voicehub/internal/domain"
	"voicehub/internal/economy"
	"voicehub/internal/store"
	"voicehub/internal/vip"
)

var ErrAlreadyClaimed = errors.New("already claimed today")

// The ledger credit is retried on lock contention so a committed cycle
// advance is never left unpaid.
const (
	creditAttempts   = 5
	creditRetryDelay = 20 * time.Millisecond
)

// Day 1 pays 5000 coins, each day adds 5000 through day 6. Day 7 pays its
// base plus a cycle-completion bonus.
const (
	day1Coins     = 5000
	dayStepCoins  = 5000
	day7BaseCoins = 35000
	day7Bonus     = 15000
)

// BaseCoins returns the schedule value for a cycle day (1..7).
func BaseCoins(day int) int64 {
	if day >= 7 {
		return day7BaseCoins + day7Bonus
	}
	if day < 1 {
		day = 1
	}
	return int64(day1Coins + (day-1)*dayStepCoins)
}

// Store persists per-user reward cycle state. Update must be atomic per
// user; a missing user is presented as a fresh cycle (day 1, no streak).
type Store interface {
	CycleState(ctx context.Context, userID int64) (domain.RewardCycleState, error)
	UpdateCycleState(ctx context.Context, userID int64, apply func(st *domain.RewardCycleState) error) error
}

// Scheduler computes claim eligibility and executes claims, crediting coins
// through the ledger.
type Scheduler struct {
	store    Store
	ledger   *economy.Ledger
	registry *vip.Registry
	profiles vip.ProfileStore
}

func NewScheduler(store Store, ledger *economy.Ledger, registry *vip.Registry, profiles vip.ProfileStore) *Scheduler {
	return &Scheduler{store: store, ledger: ledger, registry: registry, profiles: profiles}
}

// Status returns the user's cycle position and whether a claim is available.
func (s *Scheduler) Status(ctx context.Context, userID int64, now time.Time) (domain.DailyStatus, error) {
	st, err := s.store.CycleState(ctx, userID)
	if err != nil {
		return domain.DailyStatus{}, err
	}
	day := st.CurrentDay
	if day < 1 {
		day = 1
	}
	return domain.DailyStatus{
		CurrentDay:   day,
		Claimable:    st.LastClaimAt.IsZero() || !sameUTCDay(st.LastClaimAt, now),
		Streak:       st.Streak,
		NextResetUTC: nextMidnightUTC(now),
	}, nil
}

// Claim executes today's claim: credits the schedule value times the user's
// effective VIP multiplier, advances the cycle day (wrapping 7→1) and bumps
// the streak. A gap of more than one calendar day since the last claim
// zeroes the streak but leaves the cycle day untouched.
func (s *Scheduler) Claim(ctx context.Context, userID int64, now time.Time) (domain.ClaimResult, error) {
	tier, err := s.registry.EffectiveFor(ctx, s.profiles, userID, now)
	if err != nil {
		return domain.ClaimResult{}, err
	}
	mult := s.registry.Multiplier(tier)

	var res domain.ClaimResult
	var prev domain.RewardCycleState
	err = s.store.UpdateCycleState(ctx, userID, func(st *domain.RewardCycleState) error {
		prev = *st
		if !st.LastClaimAt.IsZero() && sameUTCDay(st.LastClaimAt, now) {
			return ErrAlreadyClaimed
		}
		if !st.LastClaimAt.IsZero() && calendarDaysBetween(st.LastClaimAt, now) > 1 {
			st.Streak = 0
		}
		day := st.CurrentDay
		if day < 1 {
			day = 1
		}
		base := BaseCoins(day)
		total := int64(math.Floor(float64(base) * mult))

		st.CurrentDay = day%7 + 1
		st.Streak++
		st.LastClaimAt = now.UTC()

		res = domain.ClaimResult{
			Day:           day,
			BaseCoins:     base,
			VipMultiplier: mult,
			TotalCoins:    total,
			Streak:        st.Streak,
		}
		return nil
	})
	if err != nil {
		return domain.ClaimResult{}, err
	}

	// A consumed day must always pay. Lock contention on the account retries
	// here; if the credit still cannot land, the cycle advance is rolled back
	// so the caller's retry starts a fresh claim.
	if err := s.credit(ctx, userID, res.TotalCoins); err != nil {
		s.restore(ctx, userID, prev)
		return domain.ClaimResult{}, err
	}
	return res, nil
}

func (s *Scheduler) credit(ctx context.Context, userID, coins int64) error {
	var err error
	for attempt := 0; attempt < creditAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(creditRetryDelay)
		}
		_, err = s.ledger.Apply(ctx, userID, coins, 0, domain.TxDailyReward, 0)
		if err == nil || !errors.Is(err, store.ErrBusy) {
			return err
		}
	}
	return err
}

func (s *Scheduler) restore(ctx context.Context, userID int64, prev domain.RewardCycleState) {
	for attempt := 0; attempt < creditAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(creditRetryDelay)
		}
		err := s.store.UpdateCycleState(ctx, userID, func(st *domain.RewardCycleState) error {
			*st = prev
			return nil
		})
		if err == nil || !errors.Is(err, store.ErrBusy) {
			return
		}
	}
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// calendarDaysBetween counts UTC date boundaries crossed between a and b.
func calendarDaysBetween(a, b time.Time) int {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da) / (24 * time.Hour))
}

func nextMidnightUTC(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
}
