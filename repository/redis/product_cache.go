package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/altenshop/backend/domain"
	"github.com/altenshop/backend/repository"
)

type productCache struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewProductCache creates a Redis-backed read-through cache for products.
// A miss is reported as domain.ErrProductNotFound so callers fall back to
// the primary store.
func NewProductCache(client *redislib.Client, ttl time.Duration) repository.ProductCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &productCache{
		client: client,
		prefix: "product:",
		ttl:    ttl,
	}
}

func (c *productCache) Get(ctx context.Context, id int64) (*domain.Product, error) {
	result, err := c.client.Get(ctx, c.key(id)).Result()
	if err != nil {
		if err == redislib.Nil {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}

	var product domain.Product
	if err := json.Unmarshal([]byte(result), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *productCache) Set(ctx context.Context, product *domain.Product) error {
	if product == nil || product.ID == 0 {
		return nil
	}
	payload, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(product.ID), payload, c.ttl).Err()
}

func (c *productCache) Invalidate(ctx context.Context, id int64) error {
	return c.client.Del(ctx, c.key(id)).Err()
}

func (c *productCache) key(id int64) string {
	return fmt.Sprintf("%s%d", c.prefix, id)
}
