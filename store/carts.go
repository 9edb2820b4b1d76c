package store

import (
	"context"
	"database/sql"
	"fmt"

	"ecommerce-api/model"
)

const insertCartItem = `INSERT INTO cart_items (cart_id, position, item_id) VALUES ($1, $2, $3)`

func (s *SQLStore) SaveCart(ctx context.Context, c *model.Cart) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.Dialect.Rebind(`UPDATE carts SET total = $1 WHERE id = $2`), c.Total, c.ID)
		if err != nil {
			return fmt.Errorf("update cart: %w", err)
		}
		// MySQL counts changed rows, not matched ones, so an unchanged total reports 0.
		if ra, _ := res.RowsAffected(); ra == 0 && s.Dialect == Postgres {
			return fmt.Errorf("update cart %d: %w", c.ID, sql.ErrNoRows)
		}
		if _, err := tx.ExecContext(ctx, s.Dialect.Rebind(`DELETE FROM cart_items WHERE cart_id = $1`), c.ID); err != nil {
			return fmt.Errorf("clear cart items: %w", err)
		}
		if len(c.Items) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, s.Dialect.Rebind(insertCartItem))
		if err != nil {
			return fmt.Errorf("prepare cart item: %w", err)
		}
		defer stmt.Close()
		for pos, it := range c.Items {
			if _, err := stmt.ExecContext(ctx, c.ID, pos, it.ID); err != nil {
				return fmt.Errorf("insert cart item: %w", err)
			}
		}
		return nil
	})
}
