package domain

import "time"

// RewardCycleState tracks a user's position in the 7-day login reward cycle.
// CurrentDay and Streak are independent counters: a missed day zeroes the
// streak but leaves the cycle day where it was.
type RewardCycleState struct {
	UserID      int64     `db:"user_id" json:"user_id"`
	CurrentDay  int       `db:"current_day" json:"current_day"` // 1..7, wraps
	LastClaimAt time.Time `db:"last_claim_at" json:"last_claim_at"`
	Streak      int       `db:"streak" json:"streak"`
}

// DailyStatus is the read-only view of a user's reward cycle.
type DailyStatus struct {
	CurrentDay   int       `json:"current_day"`
	Claimable    bool      `json:"claimable"`
	Streak       int       `json:"streak"`
	NextResetUTC time.Time `json:"next_reset_utc"`
}

// ClaimResult reports a successful daily-reward claim.
type ClaimResult struct {
	Day           int     `json:"day"`
	BaseCoins     int64   `json:"base_coins"`
	VipMultiplier float64 `json:"vip_multiplier"`
	TotalCoins    int64   `json:"total_coins"`
	Streak        int     `json:"streak"`
}
