package referral_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"voicehub/internal/domain"
	"voicehub/internal/economy"
	"voicehub/internal/referral"
	"voicehub/internal/store/memstore"
)

var testNow = time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

func newLedger(t *testing.T) (*referral.Ledger, *economy.Ledger) {
	t.Helper()
	wallet := economy.NewLedger(memstore.NewAccountStore(250 * time.Millisecond))
	l := referral.NewLedger(memstore.NewReferralStore(250*time.Millisecond), wallet, referral.Config{
		WithdrawMin:      1000,
		WithdrawCooldown: 24 * time.Hour,
		RewardCoins:      5000,
		RewardCash:       100,
	})
	return l, wallet
}

func TestCodeStable(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	code, err := l.Code(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if code == "" {
		t.Fatal("empty code")
	}
	again, _ := l.Code(ctx, 1)
	if again != code {
		t.Fatalf("code changed between calls: %q vs %q", code, again)
	}
	other, _ := l.Code(ctx, 2)
	if other == code {
		t.Fatal("two users share a code")
	}
}

func TestBind(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	code, _ := l.Code(ctx, 1)

	edge, err := l.Bind(ctx, 2, code, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if edge.InviterID != 1 || edge.InviteeID != 2 || edge.Status != domain.ReferralPending {
		t.Fatalf("bad edge: %+v", edge)
	}

	// An invitee binds at most once, ever
	if _, err := l.Bind(ctx, 2, code, testNow); !errors.Is(err, referral.ErrAlreadyBound) {
		t.Fatalf("expected ErrAlreadyBound, got %v", err)
	}

	// Unknown code and self-referral
	if _, err := l.Bind(ctx, 3, "nope", testNow); !errors.Is(err, referral.ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
	if _, err := l.Bind(ctx, 1, code, testNow); !errors.Is(err, referral.ErrInvalidCode) {
		t.Fatalf("self-referral: expected ErrInvalidCode, got %v", err)
	}
}

func TestTransitionsMonotonic(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	code, _ := l.Code(ctx, 1)
	if _, err := l.Bind(ctx, 2, code, testNow); err != nil {
		t.Fatal(err)
	}

	// pending → rewarded skips active
	if err := l.Reward(ctx, 2); !errors.Is(err, referral.ErrBadTransition) {
		t.Fatalf("expected ErrBadTransition, got %v", err)
	}

	if err := l.Activate(ctx, 2); err != nil {
		t.Fatal(err)
	}
	// active → active and active → expired both invalid
	if err := l.Activate(ctx, 2); !errors.Is(err, referral.ErrBadTransition) {
		t.Fatalf("double activate: %v", err)
	}
	if err := l.Expire(ctx, 2); !errors.Is(err, referral.ErrBadTransition) {
		t.Fatalf("expire active edge: %v", err)
	}

	if err := l.Reward(ctx, 2); err != nil {
		t.Fatal(err)
	}
	// rewarded is terminal
	if err := l.Reward(ctx, 2); !errors.Is(err, referral.ErrBadTransition) {
		t.Fatalf("double reward: %v", err)
	}

	if err := l.Activate(ctx, 99); !errors.Is(err, referral.ErrEdgeNotFound) {
		t.Fatalf("expected ErrEdgeNotFound, got %v", err)
	}
}

func TestExpirePendingEdge(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	code, _ := l.Code(ctx, 1)
	if _, err := l.Bind(ctx, 2, code, testNow); err != nil {
		t.Fatal(err)
	}
	if err := l.Expire(ctx, 2); err != nil {
		t.Fatal(err)
	}
	// Expired is terminal
	if err := l.Activate(ctx, 2); !errors.Is(err, referral.ErrBadTransition) {
		t.Fatalf("activate expired edge: %v", err)
	}
}

func TestRewardCreditsInviter(t *testing.T) {
	l, wallet := newLedger(t)
	ctx := context.Background()

	code, _ := l.Code(ctx, 1)
	if _, err := l.Bind(ctx, 2, code, testNow); err != nil {
		t.Fatal(err)
	}
	if err := l.Activate(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if err := l.Reward(ctx, 2); err != nil {
		t.Fatal(err)
	}

	acc, _ := wallet.Balances(ctx, 1)
	if acc.Coins != 5000 {
		t.Fatalf("inviter coins = %d, want 5000", acc.Coins)
	}
	txs, _ := wallet.History(ctx, 1, 10)
	if len(txs) != 1 || txs[0].Type != domain.TxReferralBonus || txs[0].RelatedUserID != 2 {
		t.Fatalf("bad bonus transaction: %+v", txs)
	}

	st, err := l.Stats(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalInvites != 1 || st.TotalRewarded != 1 {
		t.Fatalf("bad counts: %+v", st)
	}
	if st.CoinsEarned != 5000 || st.Withdrawable != 100 {
		t.Fatalf("bad earnings: %+v", st)
	}
}

func TestWithdrawGates(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	// Accrue 11 rewarded referrals worth 100 cash each
	for i := int64(2); i <= 12; i++ {
		code, _ := l.Code(ctx, 1)
		if _, err := l.Bind(ctx, i, code, testNow); err != nil {
			t.Fatal(err)
		}
		if err := l.Activate(ctx, i); err != nil {
			t.Fatal(err)
		}
		if err := l.Reward(ctx, i); err != nil {
			t.Fatal(err)
		}
	}
	// Withdrawable is now 1100

	if err := l.Withdraw(ctx, 1, 0, testNow); !errors.Is(err, economy.ErrInvalidAmount) {
		t.Fatalf("zero amount: %v", err)
	}
	if err := l.Withdraw(ctx, 1, 999, testNow); !errors.Is(err, referral.ErrBelowMinimum) {
		t.Fatalf("below minimum: %v", err)
	}
	if err := l.Withdraw(ctx, 1, 2000, testNow); !errors.Is(err, economy.ErrInsufficientFunds) {
		t.Fatalf("over balance: %v", err)
	}

	if err := l.Withdraw(ctx, 1, 1000, testNow); err != nil {
		t.Fatal(err)
	}

	// Cooldown blocks a second withdrawal inside the window
	if err := l.Withdraw(ctx, 1, 1000, testNow.Add(time.Hour)); !errors.Is(err, referral.ErrCooldownActive) {
		t.Fatalf("inside cooldown: %v", err)
	}

	st, _ := l.Stats(ctx, 1)
	if st.Withdrawable != 100 {
		t.Fatalf("withdrawable = %d, want 100", st.Withdrawable)
	}

	// After the cooldown the balance gate still applies
	later := testNow.Add(25 * time.Hour)
	if err := l.Withdraw(ctx, 1, 1000, later); !errors.Is(err, economy.ErrInsufficientFunds) {
		t.Fatalf("after cooldown with 100 left: %v", err)
	}
}
