package domain

// Gift is a static catalog entry. The catalog is loaded once at startup and
// never mutated by the core.
type Gift struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Price        int64  `json:"price"`         // coins per unit
	DiamondValue int64  `json:"diamond_value"` // diamonds credited per unit
	Category     string `json:"category"`
	Rarity       string `json:"rarity"`
	Enabled      bool   `json:"enabled"`
}

// GiftSendResult summarizes a completed gift send across all recipients.
type GiftSendResult struct {
	GiftID            string `json:"gift_id"`
	Recipients        int    `json:"recipients"`
	Delivered         int    `json:"delivered"`
	TotalCoinsSpent   int64  `json:"total_coins_spent"`
	DiamondsDelivered int64  `json:"diamonds_delivered"` // sum over all recipients
	SenderCoins       int64  `json:"sender_coins"`
}
