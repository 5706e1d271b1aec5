package repository

import (
	"context"
	"errors"
	"time"

	"voicehub/internal/domain"
	"voicehub/internal/referral"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReferralRepository implements referral.Store on Postgres.
type ReferralRepository struct {
	db *pgxpool.Pool
}

func NewReferralRepository(db *pgxpool.Pool) *ReferralRepository {
	return &ReferralRepository{db: db}
}

func (r *ReferralRepository) EdgeByInvitee(ctx context.Context, inviteeID int64) (*domain.ReferralEdge, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, inviter_id, invitee_id, joined_at, coins_rewarded, status
		 FROM referral_edges
		 WHERE invitee_id = $1`,
		inviteeID,
	)
	var e domain.ReferralEdge
	if err := row.Scan(&e.ID, &e.InviterID, &e.InviteeID, &e.JoinedAt, &e.CoinsRewarded, &e.Status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *ReferralRepository) EdgesByInviter(ctx context.Context, inviterID int64) ([]domain.ReferralEdge, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, inviter_id, invitee_id, joined_at, coins_rewarded, status
		 FROM referral_edges
		 WHERE inviter_id = $1
		 ORDER BY joined_at DESC`,
		inviterID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ReferralEdge
	for rows.Next() {
		var e domain.ReferralEdge
		if err := rows.Scan(&e.ID, &e.InviterID, &e.InviteeID, &e.JoinedAt, &e.CoinsRewarded, &e.Status); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *ReferralRepository) CreateEdge(ctx context.Context, edge *domain.ReferralEdge) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO referral_edges (inviter_id, invitee_id, joined_at, coins_rewarded, status)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (invitee_id) DO NOTHING
		 RETURNING id`,
		edge.InviterID, edge.InviteeID, edge.JoinedAt, edge.CoinsRewarded, edge.Status,
	).Scan(&edge.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return referral.ErrAlreadyBound
	}
	return err
}

func (r *ReferralRepository) UpdateEdge(ctx context.Context, inviteeID int64, apply func(e *domain.ReferralEdge) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SET LOCAL lock_timeout = '`+lockTimeout+`'`); err != nil {
		return err
	}

	var e domain.ReferralEdge
	err = tx.QueryRow(ctx,
		`SELECT id, inviter_id, invitee_id, joined_at, coins_rewarded, status
		 FROM referral_edges
		 WHERE invitee_id = $1 FOR UPDATE`,
		inviteeID,
	).Scan(&e.ID, &e.InviterID, &e.InviteeID, &e.JoinedAt, &e.CoinsRewarded, &e.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return referral.ErrEdgeNotFound
		}
		return busyOr(err)
	}

	if err := apply(&e); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE referral_edges SET coins_rewarded = $2, status = $3 WHERE id = $1`,
		e.ID, e.CoinsRewarded, e.Status,
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *ReferralRepository) CodeFor(ctx context.Context, userID int64) (string, error) {
	var code string
	err := r.db.QueryRow(ctx,
		`SELECT code FROM referral_codes WHERE user_id = $1`,
		userID,
	).Scan(&code)
	if err == nil {
		return code, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	// Retry a few times in case of code collision.
	for i := 0; i < 5; i++ {
		code = referral.NewCode()
		_, err = r.db.Exec(ctx,
			`INSERT INTO referral_codes (user_id, code) VALUES ($1, $2)
			 ON CONFLICT (user_id) DO NOTHING`,
			userID, code,
		)
		if err != nil {
			continue
		}
		// A concurrent writer may have won the upsert; read back the winner.
		if err = r.db.QueryRow(ctx, `SELECT code FROM referral_codes WHERE user_id = $1`, userID).Scan(&code); err == nil {
			return code, nil
		}
	}
	if err == nil {
		err = errors.New("referral code allocation failed")
	}
	return "", err
}

func (r *ReferralRepository) CodeOwner(ctx context.Context, code string) (int64, error) {
	var userID int64
	err := r.db.QueryRow(ctx,
		`SELECT user_id FROM referral_codes WHERE code = $1`,
		code,
	).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return userID, err
}

func (r *ReferralRepository) Earnings(ctx context.Context, userID int64) (domain.ReferralEarnings, error) {
	e := domain.ReferralEarnings{UserID: userID}
	var lastWithdraw *time.Time
	err := r.db.QueryRow(ctx,
		`SELECT withdrawable, total_withdrawn, last_withdraw_at
		 FROM referral_earnings
		 WHERE user_id = $1`,
		userID,
	).Scan(&e.Withdrawable, &e.TotalWithdrawn, &lastWithdraw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return e, nil
		}
		return domain.ReferralEarnings{}, err
	}
	if lastWithdraw != nil {
		e.LastWithdrawAt = *lastWithdraw
	}
	return e, nil
}

func (r *ReferralRepository) UpdateEarnings(ctx context.Context, userID int64, apply func(e *domain.ReferralEarnings) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SET LOCAL lock_timeout = '`+lockTimeout+`'`); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO referral_earnings (user_id, withdrawable, total_withdrawn)
		 VALUES ($1, 0, 0)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID,
	); err != nil {
		return busyOr(err)
	}

	e := domain.ReferralEarnings{UserID: userID}
	var lastWithdraw *time.Time
	err = tx.QueryRow(ctx,
		`SELECT withdrawable, total_withdrawn, last_withdraw_at
		 FROM referral_earnings
		 WHERE user_id = $1 FOR UPDATE`,
		userID,
	).Scan(&e.Withdrawable, &e.TotalWithdrawn, &lastWithdraw)
	if err != nil {
		return busyOr(err)
	}
	if lastWithdraw != nil {
		e.LastWithdrawAt = *lastWithdraw
	}

	if err := apply(&e); err != nil {
		return err
	}

	var withdrawAt any
	if !e.LastWithdrawAt.IsZero() {
		withdrawAt = e.LastWithdrawAt
	}
	if _, err := tx.Exec(ctx,
		`UPDATE referral_earnings SET withdrawable = $2, total_withdrawn = $3, last_withdraw_at = $4
		 WHERE user_id = $1`,
		userID, e.Withdrawable, e.TotalWithdrawn, withdrawAt,
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
