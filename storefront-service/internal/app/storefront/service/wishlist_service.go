package service

import (
	"context"
	"errors"
	"fmt"

	"tapestore/pkg/metrics"
	"tapestore/storefront-service/internal/app/storefront/entity"
	"tapestore/storefront-service/internal/app/storefront/repository"
)

// WishlistService - серверное избранное и слияние гостевого избранного
type WishlistService struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
	tx           repository.Transactor
}

// NewWishlistService создает новый сервис избранного
func NewWishlistService(
	wishlistRepo repository.WishlistRepository,
	productRepo repository.ProductRepository,
	tx repository.Transactor,
) *WishlistService {
	return &WishlistService{
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
		tx:           tx,
	}
}

// MergeGuestWishlist добавляет гостевые товары в избранное
// Принимает числа, числовые строки и объекты {"id": n}; всё, что не приводится
// к положительному целому, и несуществующие товары отбрасываются.
// Уже добавленные товары пропускаются без ошибки
func (s *WishlistService) MergeGuestWishlist(ctx context.Context, userID int64, productIDs []entity.LooseValue) (*entity.Wishlist, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}

	ids := normalizeProductIDs(productIDs)

	if len(ids) > 0 {
		existing, err := s.productRepo.ExistingIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to check products: %w", err)
		}

		err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			for _, id := range ids {
				if !existing[id] {
					continue
				}
				if _, err := s.wishlistRepo.Add(ctx, userID, id); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to merge guest wishlist: %w", err)
		}
	}

	return s.GetWishlist(ctx, userID)
}

// Toggle удаляет товар из избранного, если он там есть, иначе добавляет
// Результат всегда перечитывается из хранилища
func (s *WishlistService) Toggle(ctx context.Context, userID, productID int64) (*entity.ToggleResult, error) {
	if err := validateWishlistRef(userID, productID); err != nil {
		return nil, err
	}

	var added bool
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		removed, err := s.wishlistRepo.Remove(ctx, userID, productID)
		if err != nil || removed {
			return err
		}
		added, err = s.wishlistRepo.Add(ctx, userID, productID)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to toggle wishlist item: %w", err)
	}

	if added {
		metrics.WishlistToggles.WithLabelValues("added").Inc()
	} else {
		metrics.WishlistToggles.WithLabelValues("removed").Inc()
	}

	wishlist, err := s.GetWishlist(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &entity.ToggleResult{Wishlist: wishlist, Added: added}, nil
}

// Remove удаляет товар из избранного; отсутствие записи не ошибка
func (s *WishlistService) Remove(ctx context.Context, userID, productID int64) (*entity.Wishlist, error) {
	if err := validateWishlistRef(userID, productID); err != nil {
		return nil, err
	}

	if _, err := s.wishlistRepo.Remove(ctx, userID, productID); err != nil {
		return nil, fmt.Errorf("failed to remove wishlist item: %w", err)
	}

	return s.GetWishlist(ctx, userID)
}

// GetWishlist возвращает авторитетный снимок избранного
func (s *WishlistService) GetWishlist(ctx context.Context, userID int64) (*entity.Wishlist, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}

	items, err := s.wishlistRepo.GetWishlist(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wishlist: %w", err)
	}

	return entity.NewWishlist(userID, items), nil
}

// normalizeProductIDs оставляет положительные целые без повторов, порядок сохраняется
func normalizeProductIDs(values []entity.LooseValue) []int64 {
	ids := make([]int64, 0, len(values))
	seen := make(map[int64]bool, len(values))
	for _, v := range values {
		id, state := v.ProductID()
		if state != entity.FieldValid || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func validateWishlistRef(userID, productID int64) error {
	if userID <= 0 {
		return ErrUnauthorized
	}
	if productID <= 0 {
		return invalidField("product_id", "must be a positive integer")
	}
	return nil
}
