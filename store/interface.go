package store

import (
	"context"

	"ecommerce-api/model"
)

// Lookups return (nil, nil) when nothing matches; callers decide whether
// absence is an error.

type UserStore interface {
	FindUserByID(ctx context.Context, id int64) (*model.User, error)
	FindUserByUsername(ctx context.Context, username string) (*model.User, error)
	// CreateUser persists u.Cart first and then u, filling in both ids.
	CreateUser(ctx context.Context, u *model.User) error
}

type ItemStore interface {
	ListItems(ctx context.Context) ([]model.Item, error)
	FindItemByID(ctx context.Context, id int64) (*model.Item, error)
	FindItemsByName(ctx context.Context, name string) ([]model.Item, error)
}

type CartStore interface {
	// SaveCart replaces the stored item sequence and total of c.
	SaveCart(ctx context.Context, c *model.Cart) error
}

type OrderStore interface {
	SaveOrder(ctx context.Context, o *model.UserOrder) error
	FindOrdersByUser(ctx context.Context, userID int64) ([]model.UserOrder, error)
}

type Store interface {
	UserStore
	ItemStore
	CartStore
	OrderStore

	Migrate(ctx context.Context) error
	Close() error
}

var (
	_ Store     = (*SQLStore)(nil)
	_ ItemStore = (*CachedItemStore)(nil)
)
