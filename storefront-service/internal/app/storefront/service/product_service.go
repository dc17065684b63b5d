package service

import (
	"context"
	"errors"
	"fmt"

	"tapestore/pkg/logger"
	"tapestore/storefront-service/internal/app/storefront/entity"
	"tapestore/storefront-service/internal/app/storefront/repository"
)

// ProductService - чтение карточек товаров с кешем в Redis (cache-aside)
type ProductService struct {
	productRepo repository.ProductRepository
	cache       repository.ProductCache
}

// NewProductService создает новый сервис товаров
func NewProductService(productRepo repository.ProductRepository, cache repository.ProductCache) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		cache:       cache,
	}
}

// GetProduct получает товар: сначала кеш, затем БД
// Недоступность кеша не ломает чтение
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*entity.Product, error) {
	if id <= 0 {
		return nil, invalidField("product_id", "must be a positive integer")
	}

	cached, err := s.cache.Get(ctx, id)
	if err != nil {
		logger.Warn().Err(err).Int64("product_id", id).Msg("product cache read failed")
	}
	if cached != nil {
		return cached, nil
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if err := s.cache.Set(ctx, product); err != nil {
		logger.Warn().Err(err).Int64("product_id", id).Msg("product cache write failed")
	}

	return product, nil
}

// InvalidateProduct удаляет карточку товара из кеша
// Вызывается при получении события о пересчёте рейтинга
func (s *ProductService) InvalidateProduct(ctx context.Context, id int64) error {
	if err := s.cache.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to invalidate product %d: %w", id, err)
	}
	return nil
}
