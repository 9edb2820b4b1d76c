package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"ecommerce-api/model"
	"ecommerce-api/store"
)

const (
	// maxQuantity bounds a single add or remove request.
	maxQuantity = 1000
	// maxCartItems bounds the entries a cart may hold after an add.
	maxCartItems = 10000
)

type CartService struct {
	users store.UserStore
	items store.ItemStore
	carts store.CartStore
	locks *UserLocks
}

// NewCartService builds a CartService. locks may be shared with the
// OrderService; nil gets a private registry.
func NewCartService(users store.UserStore, items store.ItemStore, carts store.CartStore, locks *UserLocks) *CartService {
	if locks == nil {
		locks = NewUserLocks()
	}
	return &CartService{users: users, items: items, carts: carts, locks: locks}
}

// AddToCart appends quantity copies of the item to the user's cart.
func (s *CartService) AddToCart(ctx context.Context, username string, itemID int64, quantity int) (*model.Cart, error) {
	return s.modify(ctx, username, itemID, quantity, func(c *model.Cart, it model.Item) error {
		if len(c.Items)+quantity > maxCartItems {
			return fmt.Errorf("%w: cart cannot hold more than %d items", ErrValidation, maxCartItems)
		}
		c.Add(it, quantity)
		return nil
	})
}

// RemoveFromCart removes up to quantity copies of the item. Asking for more
// than the cart holds removes what is there and nothing else.
func (s *CartService) RemoveFromCart(ctx context.Context, username string, itemID int64, quantity int) (*model.Cart, error) {
	return s.modify(ctx, username, itemID, quantity, func(c *model.Cart, it model.Item) error {
		if removed := c.Remove(it, quantity); removed < quantity {
			log.WithFields(log.Fields{
				"username":  username,
				"item_id":   itemID,
				"requested": quantity,
				"removed":   removed,
			}).Info("remove from cart clamped to items present")
		}
		return nil
	})
}

func (s *CartService) modify(ctx context.Context, username string, itemID int64, quantity int, apply func(*model.Cart, model.Item) error) (*model.Cart, error) {
	if quantity <= 0 || quantity > maxQuantity {
		return nil, fmt.Errorf("%w: quantity must be between 1 and %d", ErrValidation, maxQuantity)
	}

	unlock := s.locks.Lock(username)
	defer unlock()

	user, err := findUser(ctx, s.users, username)
	if err != nil {
		return nil, err
	}
	item, err := findItem(ctx, s.items, itemID)
	if err != nil {
		return nil, err
	}

	cart := user.Cart
	cart.UserID = user.ID
	if err := apply(&cart, *item); err != nil {
		return nil, err
	}

	if err := s.carts.SaveCart(ctx, &cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return &cart, nil
}
