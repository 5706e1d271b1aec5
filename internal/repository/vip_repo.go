package repository

import (
	"context"
	"errors"
	"time"

	"voicehub/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VipRepository implements vip.ProfileStore on Postgres. A missing row is a
// tier-0 profile.
type VipRepository struct {
	db *pgxpool.Pool
}

func NewVipRepository(db *pgxpool.Pool) *VipRepository {
	return &VipRepository{db: db}
}

func (r *VipRepository) VipProfile(ctx context.Context, userID int64) (domain.VipProfile, error) {
	p := domain.VipProfile{UserID: userID}
	var expires *time.Time
	err := r.db.QueryRow(ctx,
		`SELECT vip_tier, vip_expires_at FROM vip_profiles WHERE user_id = $1`,
		userID,
	).Scan(&p.Tier, &expires)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return p, nil
		}
		return domain.VipProfile{}, err
	}
	if expires != nil {
		p.ExpiresAt = *expires
	}
	return p, nil
}

// SetProfile grants a tier until expiresAt (used by purchase flows and ops).
func (r *VipRepository) SetProfile(ctx context.Context, userID int64, tier int, expiresAt time.Time) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO vip_profiles (user_id, vip_tier, vip_expires_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE SET vip_tier = $2, vip_expires_at = $3`,
		userID, tier, expiresAt,
	)
	return err
}
