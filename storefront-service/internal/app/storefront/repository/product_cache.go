package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tapestore/pkg/metrics"
	"tapestore/storefront-service/internal/app/storefront/entity"

	"github.com/redis/go-redis/v9"
)

const (
	productCachePrefix = "product"
	ProductCacheTTL    = 10 * time.Minute
)

type redisProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProductCache создает Redis кеш карточек товаров
func NewProductCache(client *redis.Client, ttl time.Duration) ProductCache {
	if ttl <= 0 {
		ttl = ProductCacheTTL
	}
	return &redisProductCache{client: client, ttl: ttl}
}

func productCacheKey(id int64) string {
	return fmt.Sprintf("%s:%d", productCachePrefix, id)
}

func (c *redisProductCache) Get(ctx context.Context, id int64) (*entity.Product, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	defer timer.ObserveDuration()

	data, err := c.client.Get(ctx, productCacheKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss(serviceName, productCachePrefix)
			return nil, nil
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return nil, fmt.Errorf("failed to get product from cache: %w", err)
	}

	var product entity.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product: %w", err)
	}

	metrics.RecordCacheHit(serviceName, productCachePrefix)
	return &product, nil
}

func (c *redisProductCache) Set(ctx context.Context, product *entity.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
	}

	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	if err := c.client.Set(ctx, productCacheKey(product.ID), data, c.ttl).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to set product in cache: %w", err)
	}
	return nil
}

func (c *redisProductCache) Delete(ctx context.Context, id int64) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpDel)
	defer timer.ObserveDuration()

	if err := c.client.Del(ctx, productCacheKey(id)).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to delete product from cache: %w", err)
	}
	return nil
}
