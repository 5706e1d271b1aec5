package reward_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"voicehub/internal/domain"
	"voicehub/internal/economy"
	"voicehub/internal/reward"
	"voicehub/internal/store"
	"voicehub/internal/store/memstore"
	"voicehub/internal/vip"
)

func newScheduler(t *testing.T) (*reward.Scheduler, *economy.Ledger, *memstore.VipStore) {
	t.Helper()
	accounts := memstore.NewAccountStore(250 * time.Millisecond)
	ledger := economy.NewLedger(accounts)
	profiles := memstore.NewVipStore()
	s := reward.NewScheduler(memstore.NewRewardStore(250*time.Millisecond), ledger, vip.NewRegistry(), profiles)
	return s, ledger, profiles
}

func day(n int) time.Time {
	return time.Date(2026, 8, n, 12, 0, 0, 0, time.UTC)
}

func TestBaseCoinsSchedule(t *testing.T) {
	want := []int64{5000, 10000, 15000, 20000, 25000, 30000, 50000}
	for d := 1; d <= 7; d++ {
		if got := reward.BaseCoins(d); got != want[d-1] {
			t.Errorf("BaseCoins(%d) = %d, want %d", d, got, want[d-1])
		}
	}
}

func TestClaimFullCycle(t *testing.T) {
	s, ledger, _ := newScheduler(t)
	ctx := context.Background()

	var total int64
	for d := 1; d <= 7; d++ {
		res, err := s.Claim(ctx, 1, day(d))
		if err != nil {
			t.Fatalf("day %d: %v", d, err)
		}
		if res.Day != d {
			t.Fatalf("expected cycle day %d, got %d", d, res.Day)
		}
		if res.Streak != d {
			t.Fatalf("expected streak %d, got %d", d, res.Streak)
		}
		total += res.TotalCoins
	}

	// 5000+10000+...+30000 + 50000
	if total != 155000 {
		t.Fatalf("full cycle paid %d coins", total)
	}
	acc, _ := ledger.Balances(ctx, 1)
	if acc.Coins != total {
		t.Fatalf("ledger credited %d, claims reported %d", acc.Coins, total)
	}

	// Day 8 wraps back to day 1
	res, err := s.Claim(ctx, 1, day(8))
	if err != nil {
		t.Fatal(err)
	}
	if res.Day != 1 || res.BaseCoins != 5000 {
		t.Fatalf("expected wrap to day 1, got %+v", res)
	}
	if res.Streak != 8 {
		t.Fatalf("streak must keep counting across cycles, got %d", res.Streak)
	}
}

func TestClaimAtMostOncePerUTCDay(t *testing.T) {
	s, _, _ := newScheduler(t)
	ctx := context.Background()

	if _, err := s.Claim(ctx, 1, day(1)); err != nil {
		t.Fatal(err)
	}
	// Later the same UTC day
	later := day(1).Add(11 * time.Hour)
	if _, err := s.Claim(ctx, 1, later); !errors.Is(err, reward.ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}
	// One second past midnight UTC is a new day
	next := time.Date(2026, 8, 2, 0, 0, 1, 0, time.UTC)
	if _, err := s.Claim(ctx, 1, next); err != nil {
		t.Fatalf("claim just after midnight: %v", err)
	}
}

func TestStreakResetsOnGapButDayAdvances(t *testing.T) {
	s, _, _ := newScheduler(t)
	ctx := context.Background()

	for d := 1; d <= 3; d++ {
		if _, err := s.Claim(ctx, 1, day(d)); err != nil {
			t.Fatal(err)
		}
	}

	// Skip day 4, claim on day 5
	res, err := s.Claim(ctx, 1, day(5))
	if err != nil {
		t.Fatal(err)
	}
	if res.Streak != 1 {
		t.Fatalf("streak must reset after a missed day, got %d", res.Streak)
	}
	if res.Day != 4 {
		t.Fatalf("cycle day must not reset on a gap, got %d", res.Day)
	}
}

func TestClaimAppliesVipMultiplier(t *testing.T) {
	s, ledger, profiles := newScheduler(t)
	ctx := context.Background()

	// Tier 5 multiplies daily rewards by 2.0
	profiles.SetProfile(1, 5, day(30))

	// Advance to cycle day 4 (base 20000)
	for d := 1; d <= 3; d++ {
		if _, err := s.Claim(ctx, 1, day(d)); err != nil {
			t.Fatal(err)
		}
	}
	acc, _ := ledger.Balances(ctx, 1)

	res, err := s.Claim(ctx, 1, day(4))
	if err != nil {
		t.Fatal(err)
	}
	if res.BaseCoins != 20000 || res.TotalCoins != 40000 {
		t.Fatalf("tier 5 day 4 should pay 40000, got %+v", res)
	}
	after, _ := ledger.Balances(ctx, 1)
	if after.Coins-acc.Coins != 40000 {
		t.Fatalf("ledger credited %d", after.Coins-acc.Coins)
	}
}

func TestExpiredVipPaysBase(t *testing.T) {
	s, _, profiles := newScheduler(t)
	ctx := context.Background()

	profiles.SetProfile(1, 5, day(1)) // expires before the claim

	res, err := s.Claim(ctx, 1, day(2))
	if err != nil {
		t.Fatal(err)
	}
	if res.VipMultiplier != 1.0 || res.TotalCoins != res.BaseCoins {
		t.Fatalf("expired tier must pay base, got %+v", res)
	}
}

func TestStatus(t *testing.T) {
	s, _, _ := newScheduler(t)
	ctx := context.Background()

	st, err := s.Status(ctx, 1, day(1))
	if err != nil {
		t.Fatal(err)
	}
	if st.CurrentDay != 1 || !st.Claimable || st.Streak != 0 {
		t.Fatalf("fresh user status: %+v", st)
	}

	if _, err := s.Claim(ctx, 1, day(1)); err != nil {
		t.Fatal(err)
	}

	st, err = s.Status(ctx, 1, day(1).Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if st.Claimable {
		t.Fatal("status must show not claimable after today's claim")
	}
	if st.CurrentDay != 2 {
		t.Fatalf("cycle should sit on day 2, got %d", st.CurrentDay)
	}
	wantReset := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
	if !st.NextResetUTC.Equal(wantReset) {
		t.Fatalf("next reset = %v, want %v", st.NextResetUTC, wantReset)
	}
}

// contendedScheduler builds a scheduler over an account store the test can
// hold locks on directly.
func contendedScheduler(t *testing.T) (*reward.Scheduler, *economy.Ledger, *memstore.AccountStore) {
	t.Helper()
	accounts := memstore.NewAccountStore(10 * time.Millisecond)
	ledger := economy.NewLedger(accounts)
	s := reward.NewScheduler(memstore.NewRewardStore(250*time.Millisecond), ledger, vip.NewRegistry(), memstore.NewVipStore())
	return s, ledger, accounts
}

// holdAccount blocks userID's account lock until the returned func is called.
func holdAccount(t *testing.T, accounts *memstore.AccountStore, userID int64) func() {
	t.Helper()
	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = accounts.Update(context.Background(), userID, func(acc *domain.Account) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	return func() { close(release) }
}

func TestClaimRetriesCreditOnContention(t *testing.T) {
	s, ledger, accounts := contendedScheduler(t)
	ctx := context.Background()

	release := holdAccount(t, accounts, 1)
	go func() {
		time.Sleep(30 * time.Millisecond)
		release()
	}()

	res, err := s.Claim(ctx, 1, day(1))
	if err != nil {
		t.Fatalf("claim must ride out brief contention: %v", err)
	}
	if res.TotalCoins != 5000 {
		t.Fatalf("claim paid %d", res.TotalCoins)
	}
	acc, _ := ledger.Balances(ctx, 1)
	if acc.Coins != 5000 {
		t.Fatalf("ledger credited %d", acc.Coins)
	}
}

func TestFailedCreditRollsBackCycleState(t *testing.T) {
	s, ledger, accounts := contendedScheduler(t)
	ctx := context.Background()

	release := holdAccount(t, accounts, 1)
	if _, err := s.Claim(ctx, 1, day(1)); !errors.Is(err, store.ErrBusy) {
		release()
		t.Fatalf("expected ErrBusy while the account is held, got %v", err)
	}
	release()

	acc, _ := ledger.Balances(ctx, 1)
	if acc.Coins != 0 {
		t.Fatalf("failed claim credited %d coins", acc.Coins)
	}

	// The day was not consumed: a same-day retry claims day 1 and pays.
	res, err := s.Claim(ctx, 1, day(1))
	if err != nil {
		t.Fatalf("retry after failed credit: %v", err)
	}
	if res.Day != 1 || res.TotalCoins != 5000 || res.Streak != 1 {
		t.Fatalf("retry result: %+v", res)
	}
	after, _ := ledger.Balances(ctx, 1)
	if after.Coins != 5000 {
		t.Fatalf("retry credited %d", after.Coins)
	}
}

func TestFailedClaimDoesNotCredit(t *testing.T) {
	s, ledger, _ := newScheduler(t)
	ctx := context.Background()

	if _, err := s.Claim(ctx, 1, day(1)); err != nil {
		t.Fatal(err)
	}
	acc, _ := ledger.Balances(ctx, 1)

	if _, err := s.Claim(ctx, 1, day(1)); !errors.Is(err, reward.ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}
	after, _ := ledger.Balances(ctx, 1)
	if after.Coins != acc.Coins {
		t.Fatalf("rejected claim credited coins: %d -> %d", acc.Coins, after.Coins)
	}
	if txs, _ := ledger.History(ctx, 1, 10); len(txs) != 1 {
		t.Fatalf("expected exactly one reward transaction, got %d", len(txs))
	}
}
