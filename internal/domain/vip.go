package domain

import "time"

// VipTier is one row of the static VIP configuration table. Tier 0 is the
// implicit "no VIP" tier with all multipliers at 1.0.
type VipTier struct {
	Tier                  int     `json:"tier"`
	DailyRewardMultiplier float64 `json:"daily_reward_multiplier"`
	ExpMultiplier         float64 `json:"exp_multiplier"`
	GiftBonusPercent      int     `json:"gift_bonus_percent"`
	MonthlyCoins          int64   `json:"monthly_coins"`
}

// VipProfile is a user's purchased tier with its expiry. An expired profile
// behaves as tier 0 everywhere.
type VipProfile struct {
	UserID    int64     `db:"user_id" json:"user_id"`
	Tier      int       `db:"vip_tier" json:"tier"`
	ExpiresAt time.Time `db:"vip_expires_at" json:"expires_at"`
}
