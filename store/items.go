package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ecommerce-api/model"
)

const itemColumns = `id, name, price, description`

func (s *SQLStore) ListItems(ctx context.Context) ([]model.Item, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+itemColumns+` FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

func (s *SQLStore) FindItemByID(ctx context.Context, id int64) (*model.Item, error) {
	row := s.DB.QueryRowContext(ctx, s.Dialect.Rebind(`SELECT `+itemColumns+` FROM items WHERE id = $1`), id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query item %d: %w", id, err)
	}
	return &it, nil
}

// FindItemsByName matches the stored name exactly.
func (s *SQLStore) FindItemsByName(ctx context.Context, name string) ([]model.Item, error) {
	rows, err := s.DB.QueryContext(ctx, s.Dialect.Rebind(`SELECT `+itemColumns+` FROM items WHERE name = $1 ORDER BY id`), name)
	if err != nil {
		return nil, fmt.Errorf("query items by name: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(sc scanner) (model.Item, error) {
	var (
		it   model.Item
		desc sql.NullString
	)
	if err := sc.Scan(&it.ID, &it.Name, &it.Price, &desc); err != nil {
		return it, err
	}
	if desc.Valid {
		it.Description = desc.String
	}
	return it, nil
}

func scanItems(rows *sql.Rows) ([]model.Item, error) {
	out := []model.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
