package domain

import "time"

// ReferralStatus is the lifecycle of an inviter→invitee edge. Transitions are
// monotonic: pending → active → rewarded, or pending → expired.
type ReferralStatus string

const (
	ReferralPending  ReferralStatus = "pending"
	ReferralActive   ReferralStatus = "active"
	ReferralRewarded ReferralStatus = "rewarded"
	ReferralExpired  ReferralStatus = "expired"
)

// Rank orders statuses for the monotonic-transition check.
func (s ReferralStatus) Rank() int {
	switch s {
	case ReferralPending:
		return 0
	case ReferralActive:
		return 1
	case ReferralRewarded, ReferralExpired:
		return 2
	}
	return -1
}

// ReferralEdge records that invitee joined through inviter's code. Created
// once per successful bind; never reverts to pending.
type ReferralEdge struct {
	ID            int64          `db:"id" json:"id"`
	InviterID     int64          `db:"inviter_id" json:"inviter_id"`
	InviteeID     int64          `db:"invitee_id" json:"invitee_id"`
	JoinedAt      time.Time      `db:"joined_at" json:"joined_at"`
	CoinsRewarded int64          `db:"coins_rewarded" json:"coins_rewarded"`
	Status        ReferralStatus `db:"status" json:"status"`
}

// ReferralEarnings is the per-user withdrawable cash balance accrued from
// rewarded referrals, separate from the coin balance in the ledger.
type ReferralEarnings struct {
	UserID         int64     `db:"user_id" json:"user_id"`
	Withdrawable   int64     `db:"withdrawable" json:"withdrawable"`
	TotalWithdrawn int64     `db:"total_withdrawn" json:"total_withdrawn"`
	LastWithdrawAt time.Time `db:"last_withdraw_at" json:"last_withdraw_at"`
}

// ReferralStats is the aggregate view returned to the inviter.
type ReferralStats struct {
	Code           string    `json:"code"`
	TotalInvites   int       `json:"total_invites"`
	TotalRewarded  int       `json:"total_rewarded"`
	CoinsEarned    int64     `json:"coins_earned"`
	Withdrawable   int64     `json:"withdrawable"`
	LastWithdrawAt time.Time `json:"last_withdraw_at,omitempty"`
}
