package repository

import (
	"context"
	"errors"

	"voicehub/internal/domain"
	"voicehub/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// lockTimeout bounds row-lock waits so contended keys fail with ErrBusy
// instead of queueing behind each other.
const lockTimeout = "250ms"

// AccountRepository implements economy.Store on Postgres. Accounts are
// created lazily on first mutation; reads of unknown users return a
// zero-balance snapshot.
type AccountRepository struct {
	db *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Account(ctx context.Context, userID int64) (domain.Account, error) {
	acc := domain.Account{UserID: userID}
	err := r.db.QueryRow(ctx,
		`SELECT coins, diamonds FROM accounts WHERE user_id = $1`,
		userID,
	).Scan(&acc.Coins, &acc.Diamonds)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return acc, nil
		}
		return domain.Account{}, err
	}
	return acc, nil
}

func (r *AccountRepository) Update(ctx context.Context, userID int64, apply func(acc *domain.Account) error, txs ...*domain.Transaction) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SET LOCAL lock_timeout = '`+lockTimeout+`'`); err != nil {
		return err
	}

	acc, err := lockAccount(ctx, tx, userID)
	if err != nil {
		return err
	}
	if err := apply(&acc); err != nil {
		return err
	}
	if err := writeAccount(ctx, tx, acc); err != nil {
		return err
	}
	if err := insertTransactions(ctx, tx, txs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *AccountRepository) UpdatePair(ctx context.Context, aID, bID int64, apply func(a, b *domain.Account) error, txs ...*domain.Transaction) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SET LOCAL lock_timeout = '`+lockTimeout+`'`); err != nil {
		return err
	}

	if aID == bID {
		acc, err := lockAccount(ctx, tx, aID)
		if err != nil {
			return err
		}
		if err := apply(&acc, &acc); err != nil {
			return err
		}
		if err := writeAccount(ctx, tx, acc); err != nil {
			return err
		}
		if err := insertTransactions(ctx, tx, txs); err != nil {
			return err
		}
		return tx.Commit(ctx)
	}

	// Lock rows in ascending id order to avoid deadlocks.
	firstID, secondID := aID, bID
	if firstID > secondID {
		firstID, secondID = secondID, firstID
	}
	first, err := lockAccount(ctx, tx, firstID)
	if err != nil {
		return err
	}
	second, err := lockAccount(ctx, tx, secondID)
	if err != nil {
		return err
	}

	a, b := &first, &second
	if aID != firstID {
		a, b = &second, &first
	}
	if err := apply(a, b); err != nil {
		return err
	}
	if err := writeAccount(ctx, tx, *a); err != nil {
		return err
	}
	if err := writeAccount(ctx, tx, *b); err != nil {
		return err
	}
	if err := insertTransactions(ctx, tx, txs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *AccountRepository) Transactions(ctx context.Context, userID int64, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, type, amount, currency, COALESCE(related_user_id, 0), created_at
		 FROM transactions
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Currency, &t.RelatedUserID, &t.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func lockAccount(ctx context.Context, tx pgx.Tx, userID int64) (domain.Account, error) {
	// Ensure the row exists so FOR UPDATE has something to lock.
	if _, err := tx.Exec(ctx,
		`INSERT INTO accounts (user_id, coins, diamonds) VALUES ($1, 0, 0)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID,
	); err != nil {
		return domain.Account{}, busyOr(err)
	}

	acc := domain.Account{UserID: userID}
	err := tx.QueryRow(ctx,
		`SELECT coins, diamonds FROM accounts WHERE user_id = $1 FOR UPDATE`,
		userID,
	).Scan(&acc.Coins, &acc.Diamonds)
	if err != nil {
		return domain.Account{}, busyOr(err)
	}
	return acc, nil
}

func writeAccount(ctx context.Context, tx pgx.Tx, acc domain.Account) error {
	_, err := tx.Exec(ctx,
		`UPDATE accounts SET coins = $2, diamonds = $3 WHERE user_id = $1`,
		acc.UserID, acc.Coins, acc.Diamonds,
	)
	return err
}

func insertTransactions(ctx context.Context, tx pgx.Tx, txs []*domain.Transaction) error {
	for _, t := range txs {
		var related any
		if t.RelatedUserID != 0 {
			related = t.RelatedUserID
		}
		err := tx.QueryRow(ctx,
			`INSERT INTO transactions (user_id, type, amount, currency, related_user_id)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, created_at`,
			t.UserID, t.Type, t.Amount, t.Currency, related,
		).Scan(&t.ID, &t.CreatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

// busyOr maps a lock_timeout failure (SQLSTATE 55P03) to store.ErrBusy.
func busyOr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "55P03" {
		return store.ErrBusy
	}
	return err
}
