// Package gift validates and executes gift sends: coins leave the sender,
// diamonds reach the receiver, atomically per recipient leg.
package gift

import (
	"context"
	"errors"
	"time"

	"voicehub/internal/domain"
	"voicehub/internal/economy"
	"voicehub/internal/vip"
)

var (
	ErrUnknownGift     = errors.New("unknown gift")
	ErrGiftDisabled    = errors.New("gift disabled")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrNoRecipients    = errors.New("no recipients")
	ErrSelfGift        = errors.New("self gift not allowed")
)

// FanoutMode controls how quantity is applied on multi-recipient sends.
type FanoutMode string

const (
	// FanoutReplicate sends the full quantity to every recipient.
	FanoutReplicate FanoutMode = "replicate"
	// FanoutSplit divides the quantity evenly; it must divide exactly.
	FanoutSplit FanoutMode = "split"
)

// Config carries deployment-tunable gifting rules.
type Config struct {
	AllowSelfGift bool
	Fanout        FanoutMode
}

// Engine executes gift sends against the ledger.
type Engine struct {
	catalog  *Catalog
	ledger   *economy.Ledger
	registry *vip.Registry
	profiles vip.ProfileStore
	cfg      Config
}

func NewEngine(catalog *Catalog, ledger *economy.Ledger, registry *vip.Registry, profiles vip.ProfileStore, cfg Config) *Engine {
	if cfg.Fanout == "" {
		cfg.Fanout = FanoutReplicate
	}
	return &Engine{catalog: catalog, ledger: ledger, registry: registry, profiles: profiles, cfg: cfg}
}

// Catalog returns the sendable gift table.
func (e *Engine) Catalog() []domain.Gift {
	return e.catalog.Enabled()
}

// Send executes a gift from sender to one or more recipients. Each recipient
// leg is a single atomic debit+credit; on insufficient funds neither side of
// the failing leg applies. The sender's VIP gift bonus raises the diamond
// value delivered.
func (e *Engine) Send(ctx context.Context, senderID int64, recipientIDs []int64, giftID string, quantity int64, now time.Time) (domain.GiftSendResult, error) {
	if quantity < 1 {
		return domain.GiftSendResult{}, ErrInvalidQuantity
	}
	if len(recipientIDs) == 0 {
		return domain.GiftSendResult{}, ErrNoRecipients
	}
	g, ok := e.catalog.Lookup(giftID)
	if !ok {
		return domain.GiftSendResult{}, ErrUnknownGift
	}
	if !g.Enabled {
		return domain.GiftSendResult{}, ErrGiftDisabled
	}
	if !e.cfg.AllowSelfGift {
		for _, id := range recipientIDs {
			if id == senderID {
				return domain.GiftSendResult{}, ErrSelfGift
			}
		}
	}

	perRecipient := quantity
	if e.cfg.Fanout == FanoutSplit && len(recipientIDs) > 1 {
		n := int64(len(recipientIDs))
		if quantity%n != 0 {
			return domain.GiftSendResult{}, ErrInvalidQuantity
		}
		perRecipient = quantity / n
	}

	bonus := 0
	if e.registry != nil && e.profiles != nil {
		tier, err := e.registry.EffectiveFor(ctx, e.profiles, senderID, now)
		if err != nil {
			return domain.GiftSendResult{}, err
		}
		bonus = e.registry.GiftBonusPercent(tier)
	}

	coinsPer, ok := mul64(g.Price, perRecipient)
	if !ok {
		return domain.GiftSendResult{}, ErrInvalidQuantity
	}
	diamondsRaw, ok := mul64(g.DiamondValue, perRecipient)
	if !ok {
		return domain.GiftSendResult{}, ErrInvalidQuantity
	}
	diamondsScaled, ok := mul64(diamondsRaw, int64(100+bonus))
	if !ok {
		return domain.GiftSendResult{}, ErrInvalidQuantity
	}
	diamondsPer := diamondsScaled / 100
	totalCoins, ok := mul64(coinsPer, int64(len(recipientIDs)))
	if !ok {
		return domain.GiftSendResult{}, ErrInvalidQuantity
	}

	// Fail fast before touching any leg; the per-leg check still holds under
	// concurrent spends.
	acc, err := e.ledger.Balances(ctx, senderID)
	if err != nil {
		return domain.GiftSendResult{}, err
	}
	if acc.Coins < totalCoins {
		return domain.GiftSendResult{}, economy.ErrInsufficientFunds
	}

	res := domain.GiftSendResult{GiftID: g.ID, Recipients: len(recipientIDs)}
	for _, rcpt := range recipientIDs {
		if err := e.ledger.CrossCredit(ctx, senderID, rcpt, coinsPer, diamondsPer, domain.TxGiftSent, domain.TxGiftReceived); err != nil {
			return res, err
		}
		res.Delivered++
		res.TotalCoinsSpent += coinsPer
		res.DiamondsDelivered += diamondsPer
	}

	after, err := e.ledger.Balances(ctx, senderID)
	if err == nil {
		res.SenderCoins = after.Coins
	}
	return res, nil
}

// mul64 multiplies two non-negative values, reporting int64 overflow.
func mul64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	r := a * b
	if r/a != b {
		return 0, false
	}
	return r, true
}
