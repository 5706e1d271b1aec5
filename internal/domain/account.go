package domain

import "time"

// Currency of a transaction amount.
type Currency string

const (
	CurrencyCoins    Currency = "coins"
	CurrencyDiamonds Currency = "diamonds"
	CurrencyUSD      Currency = "usd"
)

// TxType classifies balance mutations.
type TxType string

const (
	TxGiftSent         TxType = "gift_sent"
	TxGiftReceived     TxType = "gift_received"
	TxDailyReward      TxType = "daily_reward"
	TxExchange         TxType = "exchange"
	TxReferralBonus    TxType = "referral_bonus"
	TxTransferIn       TxType = "transfer_in"
	TxTransferOut      TxType = "transfer_out"
	TxReferralWithdraw TxType = "referral_withdraw"
	TxAdminAdjust      TxType = "admin_adjust"
)

// Account holds a user's coin and diamond balances. Accounts are created on
// first reference with zero balances and are never deleted.
type Account struct {
	UserID   int64 `db:"user_id" json:"user_id"`
	Coins    int64 `db:"coins" json:"coins"`
	Diamonds int64 `db:"diamonds" json:"diamonds"`
}

// Transaction is an immutable record of a single balance mutation.
type Transaction struct {
	ID            int64     `db:"id" json:"id"`
	UserID        int64     `db:"user_id" json:"user_id"`
	Type          TxType    `db:"type" json:"type"`
	Amount        int64     `db:"amount" json:"amount"`
	Currency      Currency  `db:"currency" json:"currency"`
	RelatedUserID int64     `db:"related_user_id" json:"related_user_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// ExchangeResult reports a completed diamond-to-coin exchange.
type ExchangeResult struct {
	DiamondsSpent int64   `json:"diamonds_spent"`
	CoinsCredited int64   `json:"coins_credited"`
	Account       Account `json:"account"`
}
