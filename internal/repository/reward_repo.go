package repository

import (
	"context"
	"errors"
	"time"

	"voicehub/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RewardRepository implements reward.Store on Postgres.
type RewardRepository struct {
	db *pgxpool.Pool
}

func NewRewardRepository(db *pgxpool.Pool) *RewardRepository {
	return &RewardRepository{db: db}
}

func (r *RewardRepository) CycleState(ctx context.Context, userID int64) (domain.RewardCycleState, error) {
	st := domain.RewardCycleState{UserID: userID, CurrentDay: 1}
	var lastClaim *time.Time
	err := r.db.QueryRow(ctx,
		`SELECT current_day, last_claim_at, streak FROM reward_cycles WHERE user_id = $1`,
		userID,
	).Scan(&st.CurrentDay, &lastClaim, &st.Streak)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return st, nil
		}
		return domain.RewardCycleState{}, err
	}
	if lastClaim != nil {
		st.LastClaimAt = *lastClaim
	}
	return st, nil
}

func (r *RewardRepository) UpdateCycleState(ctx context.Context, userID int64, apply func(st *domain.RewardCycleState) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SET LOCAL lock_timeout = '`+lockTimeout+`'`); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO reward_cycles (user_id, current_day, streak) VALUES ($1, 1, 0)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID,
	); err != nil {
		return busyOr(err)
	}

	st := domain.RewardCycleState{UserID: userID}
	var lastClaim *time.Time
	err = tx.QueryRow(ctx,
		`SELECT current_day, last_claim_at, streak FROM reward_cycles WHERE user_id = $1 FOR UPDATE`,
		userID,
	).Scan(&st.CurrentDay, &lastClaim, &st.Streak)
	if err != nil {
		return busyOr(err)
	}
	if lastClaim != nil {
		st.LastClaimAt = *lastClaim
	}

	if err := apply(&st); err != nil {
		return err
	}

	var claimAt any
	if !st.LastClaimAt.IsZero() {
		claimAt = st.LastClaimAt
	}
	if _, err := tx.Exec(ctx,
		`UPDATE reward_cycles SET current_day = $2, last_claim_at = $3, streak = $4 WHERE user_id = $1`,
		userID, st.CurrentDay, claimAt, st.Streak,
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
