// Package economy owns account balances and the transaction log. Every
// balance mutation in the system goes through the Ledger; no component
// touches accounts directly.
package economy

import (
	"context"
	"errors"

	"voicehub/internal/domain"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrSameAccount       = errors.New("same account")
)

// DiamondToCoin converts diamonds to coins at the fixed 0.30 rate, floored.
func DiamondToCoin(diamonds int64) int64 {
	return diamonds * 30 / 100
}

// Store is the persistence boundary for accounts and transactions. Update
// and UpdatePair must apply their mutation as a single observable state
// transition per key; contended keys fail with store.ErrBusy. Missing
// accounts are presented to the apply func as zero-balance accounts and
// persisted only when the update commits.
type Store interface {
	Account(ctx context.Context, userID int64) (domain.Account, error)
	Update(ctx context.Context, userID int64, apply func(acc *domain.Account) error, txs ...*domain.Transaction) error
	UpdatePair(ctx context.Context, aID, bID int64, apply func(a, b *domain.Account) error, txs ...*domain.Transaction) error
	Transactions(ctx context.Context, userID int64, limit int) ([]domain.Transaction, error)
}

// Ledger enforces non-negative balances and conservation of value across
// transfers and exchanges.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Balances returns the account snapshot for userID. Unknown users get a
// default zero-balance account; nothing is persisted.
func (l *Ledger) Balances(ctx context.Context, userID int64) (domain.Account, error) {
	return l.store.Account(ctx, userID)
}

// History returns the most recent transactions for userID, newest first.
func (l *Ledger) History(ctx context.Context, userID int64, limit int) ([]domain.Transaction, error) {
	return l.store.Transactions(ctx, userID, limit)
}

// Apply mutates a single account by the given deltas, recording one
// transaction per non-zero delta. Fails with ErrInsufficientFunds if either
// balance would go negative.
func (l *Ledger) Apply(ctx context.Context, userID int64, deltaCoins, deltaDiamonds int64, txType domain.TxType, relatedUserID int64) ([]*domain.Transaction, error) {
	if deltaCoins == 0 && deltaDiamonds == 0 {
		return nil, ErrInvalidAmount
	}
	txs := deltaTransactions(userID, deltaCoins, deltaDiamonds, txType, relatedUserID)
	err := l.store.Update(ctx, userID, func(acc *domain.Account) error {
		if acc.Coins+deltaCoins < 0 || acc.Diamonds+deltaDiamonds < 0 {
			return ErrInsufficientFunds
		}
		acc.Coins += deltaCoins
		acc.Diamonds += deltaDiamonds
		return nil
	}, txs...)
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// Transfer moves coins between two accounts. Both legs commit or neither is
// observable.
func (l *Ledger) Transfer(ctx context.Context, fromID, toID, coins int64) error {
	if coins <= 0 {
		return ErrInvalidAmount
	}
	if fromID == toID {
		return ErrSameAccount
	}
	txs := []*domain.Transaction{
		{UserID: fromID, Type: domain.TxTransferOut, Amount: -coins, Currency: domain.CurrencyCoins, RelatedUserID: toID},
		{UserID: toID, Type: domain.TxTransferIn, Amount: coins, Currency: domain.CurrencyCoins, RelatedUserID: fromID},
	}
	return l.store.UpdatePair(ctx, fromID, toID, func(from, to *domain.Account) error {
		if from.Coins < coins {
			return ErrInsufficientFunds
		}
		from.Coins -= coins
		to.Coins += coins
		return nil
	}, txs...)
}

// CrossCredit debits coins from one account and credits diamonds to another
// as one atomic unit. This is the gift primitive; fromID == toID is allowed
// (self-gift) and resolves to a single-account update.
func (l *Ledger) CrossCredit(ctx context.Context, fromID, toID, coins, diamonds int64, fromType, toType domain.TxType) error {
	if coins <= 0 || diamonds < 0 {
		return ErrInvalidAmount
	}
	txs := []*domain.Transaction{
		{UserID: fromID, Type: fromType, Amount: -coins, Currency: domain.CurrencyCoins, RelatedUserID: toID},
		{UserID: toID, Type: toType, Amount: diamonds, Currency: domain.CurrencyDiamonds, RelatedUserID: fromID},
	}
	return l.store.UpdatePair(ctx, fromID, toID, func(from, to *domain.Account) error {
		if from.Coins < coins {
			return ErrInsufficientFunds
		}
		from.Coins -= coins
		to.Diamonds += diamonds
		return nil
	}, txs...)
}

// Exchange converts diamonds to coins at the fixed 0.30 rate, floored.
func (l *Ledger) Exchange(ctx context.Context, userID, diamonds int64) (domain.ExchangeResult, error) {
	if diamonds <= 0 {
		return domain.ExchangeResult{}, ErrInvalidAmount
	}
	coins := DiamondToCoin(diamonds)
	var after domain.Account
	txs := deltaTransactions(userID, coins, -diamonds, domain.TxExchange, 0)
	err := l.store.Update(ctx, userID, func(acc *domain.Account) error {
		if acc.Diamonds < diamonds {
			return ErrInsufficientFunds
		}
		acc.Diamonds -= diamonds
		acc.Coins += coins
		after = *acc
		return nil
	}, txs...)
	if err != nil {
		return domain.ExchangeResult{}, err
	}
	return domain.ExchangeResult{
		DiamondsSpent: diamonds,
		CoinsCredited: coins,
		Account:       after,
	}, nil
}

func deltaTransactions(userID, deltaCoins, deltaDiamonds int64, txType domain.TxType, relatedUserID int64) []*domain.Transaction {
	var txs []*domain.Transaction
	if deltaCoins != 0 {
		txs = append(txs, &domain.Transaction{
			UserID: userID, Type: txType, Amount: deltaCoins,
			Currency: domain.CurrencyCoins, RelatedUserID: relatedUserID,
		})
	}
	if deltaDiamonds != 0 {
		txs = append(txs, &domain.Transaction{
			UserID: userID, Type: txType, Amount: deltaDiamonds,
			Currency: domain.CurrencyDiamonds, RelatedUserID: relatedUserID,
		})
	}
	return txs
}
