package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserOrder is a frozen copy of a cart taken at submission time.
type UserOrder struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"userId"`
	Items     []Item          `json:"items"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewOrderFromCart snapshots the cart. The item slice is copied so later
// cart edits never reach the order.
func NewOrderFromCart(userID int64, cart Cart, now time.Time) UserOrder {
	items := make([]Item, len(cart.Items))
	copy(items, cart.Items)
	return UserOrder{
		UserID:    userID,
		Items:     items,
		Total:     cart.Total,
		CreatedAt: now,
	}
}
