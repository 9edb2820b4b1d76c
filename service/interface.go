package service

import (
	"context"

	"ecommerce-api/model"
)

type UserServiceInterface interface {
	CreateUser(ctx context.Context, username, password, confirmPassword string) (*model.User, error)
	FindByID(ctx context.Context, id int64) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	Authenticate(ctx context.Context, username, password string) (*model.User, error)
}

type ItemServiceInterface interface {
	ListAll(ctx context.Context) ([]model.Item, error)
	FindByID(ctx context.Context, id int64) (*model.Item, error)
	FindByName(ctx context.Context, name string) ([]model.Item, error)
}

type CartServiceInterface interface {
	AddToCart(ctx context.Context, username string, itemID int64, quantity int) (*model.Cart, error)
	RemoveFromCart(ctx context.Context, username string, itemID int64, quantity int) (*model.Cart, error)
}

type OrderServiceInterface interface {
	Submit(ctx context.Context, username string) (*model.UserOrder, error)
	OrdersForUser(ctx context.Context, username string) ([]model.UserOrder, error)
}

// Hasher is the one-way password hashing capability.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Matches(hash, plaintext string) (bool, error)
}

// OrderPublisher announces submitted orders to other systems.
type OrderPublisher interface {
	OrderSubmitted(ctx context.Context, username string, order model.UserOrder) error
}
