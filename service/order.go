package service

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"ecommerce-api/model"
	"ecommerce-api/store"
)

type OrderOptions struct {
	// ClearCartOnSubmit empties the cart once the order is stored.
	ClearCartOnSubmit bool
}

type OrderService struct {
	users     store.UserStore
	orders    store.OrderStore
	carts     store.CartStore
	publisher OrderPublisher
	locks     *UserLocks
	opts      OrderOptions
	now       func() time.Time
}

// NewOrderService builds an OrderService. publisher may be nil.
func NewOrderService(users store.UserStore, orders store.OrderStore, carts store.CartStore, publisher OrderPublisher, locks *UserLocks, opts OrderOptions) *OrderService {
	if locks == nil {
		locks = NewUserLocks()
	}
	return &OrderService{
		users:     users,
		orders:    orders,
		carts:     carts,
		publisher: publisher,
		locks:     locks,
		opts:      opts,
		now:       time.Now,
	}
}

// Submit stores a snapshot of the user's current cart as an order.
func (s *OrderService) Submit(ctx context.Context, username string) (*model.UserOrder, error) {
	unlock := s.locks.Lock(username)
	defer unlock()

	user, err := findUser(ctx, s.users, username)
	if err != nil {
		log.WithField("username", username).Warn("order submission failed: user not found")
		return nil, err
	}

	order := model.NewOrderFromCart(user.ID, user.Cart, s.now())
	if err := s.orders.SaveOrder(ctx, &order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}

	entry := log.WithFields(log.Fields{
		"username": username,
		"order_id": order.ID,
		"total":    order.Total.StringFixed(2),
		"items":    len(order.Items),
	})
	entry.Info("order submitted")

	if s.opts.ClearCartOnSubmit {
		cart := user.Cart
		cart.Clear()
		// the order is already stored, so a failed clear is only logged
		if err := s.carts.SaveCart(ctx, &cart); err != nil {
			entry.WithError(err).Error("clear cart after submit failed")
		}
	}

	if s.publisher != nil {
		if err := s.publisher.OrderSubmitted(ctx, username, order); err != nil {
			entry.WithError(err).Warn("publish order event failed")
		}
	}
	return &order, nil
}

func (s *OrderService) OrdersForUser(ctx context.Context, username string) ([]model.UserOrder, error) {
	user, err := findUser(ctx, s.users, username)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.FindOrdersByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []model.UserOrder{}
	}
	return orders, nil
}
