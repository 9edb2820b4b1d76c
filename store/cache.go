package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"ecommerce-api/model"
)

const (
	itemKeyPrefix = "item:"
	itemsAllKey   = "items:all"
)

// CachedItemStore is a read-through Redis cache in front of an ItemStore.
// Redis failures fall back to the wrapped store. Misses are not cached.
type CachedItemStore struct {
	next   ItemStore
	client *redis.Client
	ttl    time.Duration
}

func NewCachedItemStore(next ItemStore, client *redis.Client, ttl time.Duration) *CachedItemStore {
	return &CachedItemStore{next: next, client: client, ttl: ttl}
}

func (c *CachedItemStore) ListItems(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	if c.get(ctx, itemsAllKey, &items) {
		return items, nil
	}
	items, err := c.next.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, itemsAllKey, items)
	return items, nil
}

func (c *CachedItemStore) FindItemByID(ctx context.Context, id int64) (*model.Item, error) {
	key := itemKeyPrefix + strconv.FormatInt(id, 10)
	var it model.Item
	if c.get(ctx, key, &it) {
		return &it, nil
	}
	found, err := c.next.FindItemByID(ctx, id)
	if err != nil || found == nil {
		return found, err
	}
	c.set(ctx, key, found)
	return found, nil
}

func (c *CachedItemStore) FindItemsByName(ctx context.Context, name string) ([]model.Item, error) {
	return c.next.FindItemsByName(ctx, name)
}

// Invalidate drops the cached entries for ids plus the full listing. With no
// ids it drops every cached item.
func (c *CachedItemStore) Invalidate(ctx context.Context, ids ...int64) error {
	keys := []string{itemsAllKey}
	if len(ids) == 0 {
		iter := c.client.Scan(ctx, 0, itemKeyPrefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return err
		}
	}
	for _, id := range ids {
		keys = append(keys, itemKeyPrefix+strconv.FormatInt(id, 10))
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *CachedItemStore) get(ctx context.Context, key string, dst interface{}) bool {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("item cache read failed")
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		log.WithError(err).WithField("key", key).Warn("item cache entry corrupt")
		return false
	}
	return true
}

func (c *CachedItemStore) set(ctx context.Context, key string, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, b, c.ttl).Err(); err != nil {
		log.WithError(err).WithField("key", key).Warn("item cache write failed")
	}
}
