package store

import (
	"context"
	"database/sql"
	"fmt"

	"ecommerce-api/model"
)

const insertOrderItem = `INSERT INTO order_items (order_id, position, item_id) VALUES ($1, $2, $3)`

const orderItemsQuery = `
	SELECT i.id, i.name, i.price, i.description
	FROM order_items oi
	JOIN items i ON i.id = oi.item_id
	WHERE oi.order_id = $1
	ORDER BY oi.position
`

func (s *SQLStore) SaveOrder(ctx context.Context, o *model.UserOrder) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		id, err := s.insertID(ctx, tx,
			`INSERT INTO user_orders (user_id, total, created_at) VALUES ($1, $2, $3)`,
			o.UserID, o.Total, o.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if len(o.Items) > 0 {
			stmt, err := tx.PrepareContext(ctx, s.Dialect.Rebind(insertOrderItem))
			if err != nil {
				return fmt.Errorf("prepare order item: %w", err)
			}
			defer stmt.Close()
			for pos, it := range o.Items {
				if _, err := stmt.ExecContext(ctx, id, pos, it.ID); err != nil {
					return fmt.Errorf("insert order item: %w", err)
				}
			}
		}
		o.ID = id
		return nil
	})
}

// FindOrdersByUser returns orders oldest first.
func (s *SQLStore) FindOrdersByUser(ctx context.Context, userID int64) ([]model.UserOrder, error) {
	rows, err := s.DB.QueryContext(ctx,
		s.Dialect.Rebind(`SELECT id, user_id, total, created_at FROM user_orders WHERE user_id = $1 ORDER BY id`), userID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	orders := []model.UserOrder{}
	for rows.Next() {
		var o model.UserOrder
		if err := rows.Scan(&o.ID, &o.UserID, &o.Total, &o.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	for i := range orders {
		items, err := s.orderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (s *SQLStore) orderItems(ctx context.Context, orderID int64) ([]model.Item, error) {
	rows, err := s.DB.QueryContext(ctx, s.Dialect.Rebind(orderItemsQuery), orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()
	items, err := scanItems(rows)
	if err != nil {
		return nil, fmt.Errorf("scan order items: %w", err)
	}
	return items, nil
}
