// Package referral tracks inviter→invitee edges and the withdrawable cash
// earned from rewarded invites.
package referral

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"voicehub/internal/domain"
	"voicehub/internal/economy"
)

var (
	ErrAlreadyBound   = errors.New("already bound to an inviter")
	ErrInvalidCode    = errors.New("invalid referral code")
	ErrBelowMinimum   = errors.New("amount below withdrawal minimum")
	ErrCooldownActive = errors.New("withdrawal cooldown active")
	ErrEdgeNotFound   = errors.New("referral edge not found")
	ErrBadTransition  = errors.New("invalid status transition")
)

// Config carries the withdrawal gates and reward sizes.
type Config struct {
	WithdrawMin      int64
	WithdrawCooldown time.Duration
	RewardCoins      int64 // credited to the inviter's coin balance
	RewardCash       int64 // accrued to the inviter's withdrawable balance
}

// Store persists edges, codes and earnings. UpdateEarnings must be atomic
// per user.
type Store interface {
	EdgeByInvitee(ctx context.Context, inviteeID int64) (*domain.ReferralEdge, error)
	EdgesByInviter(ctx context.Context, inviterID int64) ([]domain.ReferralEdge, error)
	CreateEdge(ctx context.Context, edge *domain.ReferralEdge) error
	UpdateEdge(ctx context.Context, inviteeID int64, apply func(e *domain.ReferralEdge) error) error

	CodeFor(ctx context.Context, userID int64) (string, error) // get-or-create
	CodeOwner(ctx context.Context, code string) (int64, error) // 0 if unknown

	Earnings(ctx context.Context, userID int64) (domain.ReferralEarnings, error)
	UpdateEarnings(ctx context.Context, userID int64, apply func(e *domain.ReferralEarnings) error) error
}

// Ledger owns all referral state transitions.
type Ledger struct {
	store  Store
	wallet *economy.Ledger
	cfg    Config
}

func NewLedger(store Store, wallet *economy.Ledger, cfg Config) *Ledger {
	return &Ledger{store: store, wallet: wallet, cfg: cfg}
}

// NewCode generates a referral code the way invite codes are minted
// elsewhere in the platform.
func NewCode() string {
	b := make([]byte, 6)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Code returns the user's shareable code, creating one on first use.
func (l *Ledger) Code(ctx context.Context, userID int64) (string, error) {
	return l.store.CodeFor(ctx, userID)
}

// Bind resolves code to its owner and records userID as their invitee.
// Self-referral and unknown codes fail with ErrInvalidCode.
func (l *Ledger) Bind(ctx context.Context, userID int64, code string, now time.Time) (*domain.ReferralEdge, error) {
	inviterID, err := l.store.CodeOwner(ctx, code)
	if err != nil {
		return nil, err
	}
	if inviterID == 0 || inviterID == userID {
		return nil, ErrInvalidCode
	}
	return l.RecordJoin(ctx, inviterID, userID, now)
}

// RecordJoin creates the pending edge for an invitee. At most one edge per
// invitee ever exists.
func (l *Ledger) RecordJoin(ctx context.Context, inviterID, inviteeID int64, now time.Time) (*domain.ReferralEdge, error) {
	existing, err := l.store.EdgeByInvitee(ctx, inviteeID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyBound
	}
	edge := &domain.ReferralEdge{
		InviterID: inviterID,
		InviteeID: inviteeID,
		JoinedAt:  now.UTC(),
		Status:    domain.ReferralPending,
	}
	if err := l.store.CreateEdge(ctx, edge); err != nil {
		return nil, err
	}
	return edge, nil
}

// Activate marks the invitee's edge active once the (external) activation
// condition is met. Activating a non-pending edge fails.
func (l *Ledger) Activate(ctx context.Context, inviteeID int64) error {
	return l.transition(ctx, inviteeID, domain.ReferralActive, nil)
}

// Expire marks a pending edge expired when the activation window lapses.
func (l *Ledger) Expire(ctx context.Context, inviteeID int64) error {
	return l.transition(ctx, inviteeID, domain.ReferralExpired, nil)
}

// Reward settles an active edge: the inviter's coin balance is credited
// through the wallet ledger and the cash reward accrues as withdrawable.
func (l *Ledger) Reward(ctx context.Context, inviteeID int64) error {
	var inviterID int64
	err := l.transition(ctx, inviteeID, domain.ReferralRewarded, func(e *domain.ReferralEdge) {
		e.CoinsRewarded = l.cfg.RewardCoins
		inviterID = e.InviterID
	})
	if err != nil {
		return err
	}
	if l.cfg.RewardCoins > 0 {
		if _, err := l.wallet.Apply(ctx, inviterID, l.cfg.RewardCoins, 0, domain.TxReferralBonus, inviteeID); err != nil {
			return err
		}
	}
	if l.cfg.RewardCash > 0 {
		return l.store.UpdateEarnings(ctx, inviterID, func(e *domain.ReferralEarnings) error {
			e.Withdrawable += l.cfg.RewardCash
			return nil
		})
	}
	return nil
}

func (l *Ledger) transition(ctx context.Context, inviteeID int64, to domain.ReferralStatus, mutate func(e *domain.ReferralEdge)) error {
	return l.store.UpdateEdge(ctx, inviteeID, func(e *domain.ReferralEdge) error {
		switch {
		case to == domain.ReferralActive && e.Status != domain.ReferralPending:
			return ErrBadTransition
		case to == domain.ReferralExpired && e.Status != domain.ReferralPending:
			return ErrBadTransition
		case to == domain.ReferralRewarded && e.Status != domain.ReferralActive:
			return ErrBadTransition
		}
		e.Status = to
		if mutate != nil {
			mutate(e)
		}
		return nil
	})
}

// Withdraw debits the user's withdrawable cash. Gates: configured minimum,
// cooldown since the last withdrawal, and the available balance.
func (l *Ledger) Withdraw(ctx context.Context, userID int64, amount int64, now time.Time) error {
	if amount <= 0 {
		return economy.ErrInvalidAmount
	}
	if amount < l.cfg.WithdrawMin {
		return ErrBelowMinimum
	}
	return l.store.UpdateEarnings(ctx, userID, func(e *domain.ReferralEarnings) error {
		if !e.LastWithdrawAt.IsZero() && now.Sub(e.LastWithdrawAt) < l.cfg.WithdrawCooldown {
			return ErrCooldownActive
		}
		if e.Withdrawable < amount {
			return economy.ErrInsufficientFunds
		}
		e.Withdrawable -= amount
		e.TotalWithdrawn += amount
		e.LastWithdrawAt = now.UTC()
		return nil
	})
}

// Stats aggregates the inviter's view: invite counts, coin earnings and the
// withdrawable cash balance.
func (l *Ledger) Stats(ctx context.Context, userID int64) (domain.ReferralStats, error) {
	code, err := l.store.CodeFor(ctx, userID)
	if err != nil {
		return domain.ReferralStats{}, err
	}
	edges, err := l.store.EdgesByInviter(ctx, userID)
	if err != nil {
		return domain.ReferralStats{}, err
	}
	earn, err := l.store.Earnings(ctx, userID)
	if err != nil {
		return domain.ReferralStats{}, err
	}
	st := domain.ReferralStats{
		Code:           code,
		TotalInvites:   len(edges),
		Withdrawable:   earn.Withdrawable,
		LastWithdrawAt: earn.LastWithdrawAt,
	}
	for _, e := range edges {
		if e.Status == domain.ReferralRewarded {
			st.TotalRewarded++
			st.CoinsEarned += e.CoinsRewarded
		}
	}
	return st, nil
}
