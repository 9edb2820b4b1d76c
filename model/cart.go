package model

import "github.com/shopspring/decimal"

// Cart holds items with repetition; a quantity of n is n entries.
// Total always equals the sum of the item prices.
type Cart struct {
	ID     int64           `json:"id"`
	UserID int64           `json:"userId"`
	Items  []Item          `json:"items"`
	Total  decimal.Decimal `json:"total"`
}

// NewCart returns an empty cart with a zero total.
func NewCart() Cart {
	return Cart{Items: []Item{}, Total: decimal.Zero}
}

// Add appends qty copies of item to the end of the cart.
func (c *Cart) Add(item Item, qty int) {
	for i := 0; i < qty; i++ {
		c.Items = append(c.Items, item)
	}
	c.Total = c.Total.Add(item.Price.Mul(decimal.NewFromInt(int64(qty))))
}

// Remove drops up to qty entries matching item.ID, earliest first, and
// returns how many were actually removed. The total only shrinks by the
// removed entries.
func (c *Cart) Remove(item Item, qty int) int {
	removed := 0
	kept := make([]Item, 0, len(c.Items))
	for _, it := range c.Items {
		if removed < qty && it.ID == item.ID {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	c.Items = kept
	c.Total = c.Total.Sub(item.Price.Mul(decimal.NewFromInt(int64(removed))))
	return removed
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = []Item{}
	c.Total = decimal.Zero
}
