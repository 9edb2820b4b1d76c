package service

import (
	"context"
	"fmt"

	"ecommerce-api/model"
	"ecommerce-api/store"
)

type ItemService struct {
	items store.ItemStore
}

func NewItemService(items store.ItemStore) *ItemService {
	return &ItemService{items: items}
}

func (s *ItemService) ListAll(ctx context.Context) ([]model.Item, error) {
	items, err := s.items.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

func (s *ItemService) FindByID(ctx context.Context, id int64) (*model.Item, error) {
	return findItem(ctx, s.items, id)
}

// FindByName treats an absent result and an empty one the same way.
func (s *ItemService) FindByName(ctx context.Context, name string) ([]model.Item, error) {
	items, err := s.items.FindItemsByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no items named %q", ErrNotFound, name)
	}
	return items, nil
}

func findItem(ctx context.Context, items store.ItemStore, id int64) (*model.Item, error) {
	it, err := items.FindItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, fmt.Errorf("%w: item %d", ErrNotFound, id)
	}
	return it, nil
}
