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

// GuestStateTTL - сколько живет гостевое состояние без изменений
const GuestStateTTL = 30 * 24 * time.Hour

type redisGuestStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGuestStore создает Redis хранилище гостевой корзины и избранного
func NewGuestStore(client *redis.Client, ttl time.Duration) GuestStore {
	if ttl <= 0 {
		ttl = GuestStateTTL
	}
	return &redisGuestStore{client: client, ttl: ttl}
}

func guestCartKey(token string) string {
	return fmt.Sprintf("guest:%s:cart", token)
}

func guestWishlistKey(token string) string {
	return fmt.Sprintf("guest:%s:wishlist", token)
}

// ReadCart читает гостевую корзину; отсутствие ключа - пустая корзина
func (s *redisGuestStore) ReadCart(ctx context.Context, token string) ([]entity.GuestCartLine, error) {
	lines := make([]entity.GuestCartLine, 0)
	if err := s.read(ctx, guestCartKey(token), &lines); err != nil {
		return nil, fmt.Errorf("failed to read guest cart: %w", err)
	}
	return lines, nil
}

// WriteCart полностью заменяет гостевую корзину и продлевает TTL
func (s *redisGuestStore) WriteCart(ctx context.Context, token string, lines []entity.GuestCartLine) error {
	if lines == nil {
		lines = []entity.GuestCartLine{}
	}
	if err := s.write(ctx, guestCartKey(token), lines); err != nil {
		return fmt.Errorf("failed to write guest cart: %w", err)
	}
	return nil
}

// ReadWishlist читает гостевое избранное
func (s *redisGuestStore) ReadWishlist(ctx context.Context, token string) ([]entity.LooseValue, error) {
	ids := make([]entity.LooseValue, 0)
	if err := s.read(ctx, guestWishlistKey(token), &ids); err != nil {
		return nil, fmt.Errorf("failed to read guest wishlist: %w", err)
	}
	return ids, nil
}

// WriteWishlist полностью заменяет гостевое избранное и продлевает TTL
func (s *redisGuestStore) WriteWishlist(ctx context.Context, token string, productIDs []entity.LooseValue) error {
	if productIDs == nil {
		productIDs = []entity.LooseValue{}
	}
	if err := s.write(ctx, guestWishlistKey(token), productIDs); err != nil {
		return fmt.Errorf("failed to write guest wishlist: %w", err)
	}
	return nil
}

// Clear удаляет гостевое состояние целиком
func (s *redisGuestStore) Clear(ctx context.Context, token string) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpDel)
	defer timer.ObserveDuration()

	if err := s.client.Del(ctx, guestCartKey(token), guestWishlistKey(token)).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to clear guest state: %w", err)
	}
	return nil
}

func (s *redisGuestStore) read(ctx context.Context, key string, dst interface{}) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	defer timer.ObserveDuration()

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return err
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

func (s *redisGuestStore) write(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return err
	}
	return nil
}
