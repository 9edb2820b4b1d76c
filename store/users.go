package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ecommerce-api/model"
)

const userSelect = `
	SELECT u.id, u.username, u.password, c.id, c.total
	FROM users u
	JOIN carts c ON c.id = u.cart_id
`

const cartItemsQuery = `
	SELECT i.id, i.name, i.price, i.description
	FROM cart_items ci
	JOIN items i ON i.id = ci.item_id
	WHERE ci.cart_id = $1
	ORDER BY ci.position
`

func (s *SQLStore) FindUserByID(ctx context.Context, id int64) (*model.User, error) {
	return s.findUser(ctx, userSelect+`WHERE u.id = $1`, id)
}

func (s *SQLStore) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findUser(ctx, userSelect+`WHERE u.username = $1`, username)
}

func (s *SQLStore) findUser(ctx context.Context, query string, arg interface{}) (*model.User, error) {
	var u model.User
	err := s.DB.QueryRowContext(ctx, s.Dialect.Rebind(query), arg).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Cart.ID, &u.Cart.Total)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	u.Cart.UserID = u.ID

	rows, err := s.DB.QueryContext(ctx, s.Dialect.Rebind(cartItemsQuery), u.Cart.ID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()
	if u.Cart.Items, err = scanItems(rows); err != nil {
		return nil, fmt.Errorf("scan cart items: %w", err)
	}
	return &u, nil
}

func (s *SQLStore) CreateUser(ctx context.Context, u *model.User) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		cartID, err := s.insertID(ctx, tx, `INSERT INTO carts (total) VALUES ($1)`, u.Cart.Total)
		if err != nil {
			return fmt.Errorf("insert cart: %w", err)
		}
		userID, err := s.insertID(ctx, tx,
			`INSERT INTO users (username, password, cart_id) VALUES ($1, $2, $3)`,
			u.Username, u.PasswordHash, cartID)
		if err != nil {
			if isDuplicate(err) {
				return fmt.Errorf("insert user %q: %w", u.Username, ErrDuplicate)
			}
			return fmt.Errorf("insert user: %w", err)
		}
		if _, err := tx.ExecContext(ctx, s.Dialect.Rebind(`UPDATE carts SET user_id = $1 WHERE id = $2`), userID, cartID); err != nil {
			return fmt.Errorf("link cart: %w", err)
		}
		u.ID = userID
		u.Cart.ID = cartID
		u.Cart.UserID = userID
		return nil
	})
}
