package gift

import (
	"voicehub/internal/domain"
)

// defaultCatalog is the authoritative gift table. Owner-side management of
// the catalog happens outside this service; the core only reads it.
var defaultCatalog = []domain.Gift{
	{ID: "rose", Name: "Rose", Price: 10, DiamondValue: 3, Category: "classic", Rarity: "common", Enabled: true},
	{ID: "heart", Name: "Heart", Price: 50, DiamondValue: 15, Category: "classic", Rarity: "common", Enabled: true},
	{ID: "perfume", Name: "Perfume", Price: 200, DiamondValue: 60, Category: "classic", Rarity: "rare", Enabled: true},
	{ID: "ring", Name: "Diamond Ring", Price: 1000, DiamondValue: 300, Category: "luxury", Rarity: "rare", Enabled: true},
	{ID: "sports_car", Name: "Sports Car", Price: 20000, DiamondValue: 6000, Category: "luxury", Rarity: "epic", Enabled: true},
	{ID: "castle", Name: "Castle", Price: 100000, DiamondValue: 30000, Category: "luxury", Rarity: "legendary", Enabled: true},
	{ID: "old_crown", Name: "Old Crown", Price: 500, DiamondValue: 150, Category: "retired", Rarity: "rare", Enabled: false},
}

// Catalog is an immutable, id-indexed gift table.
type Catalog struct {
	gifts map[string]domain.Gift
	order []domain.Gift
}

// NewCatalog builds the default catalog.
func NewCatalog() *Catalog {
	return NewCatalogFrom(defaultCatalog)
}

// NewCatalogFrom builds a catalog from explicit entries.
func NewCatalogFrom(entries []domain.Gift) *Catalog {
	c := &Catalog{gifts: make(map[string]domain.Gift, len(entries))}
	for _, g := range entries {
		c.gifts[g.ID] = g
		c.order = append(c.order, g)
	}
	return c
}

// Lookup returns a gift by id.
func (c *Catalog) Lookup(id string) (domain.Gift, bool) {
	g, ok := c.gifts[id]
	return g, ok
}

// Enabled returns all sendable gifts in catalog order.
func (c *Catalog) Enabled() []domain.Gift {
	out := make([]domain.Gift, 0, len(c.order))
	for _, g := range c.order {
		if g.Enabled {
			out = append(out, g)
		}
	}
	return out
}
