package service

import (
	"context"
	"fmt"

	"tapestore/storefront-service/internal/app/storefront/entity"
	"tapestore/storefront-service/internal/app/storefront/repository"

	"github.com/google/uuid"
)

// maxGuestItems - предел размера гостевой корзины и избранного
const maxGuestItems = 200

// GuestService - гостевое состояние, которое клиент пишет сквозной записью
// при каждом изменении и которое сливается при входе
type GuestService struct {
	store repository.GuestStore
}

// NewGuestService создает новый сервис гостевого состояния
func NewGuestService(store repository.GuestStore) *GuestService {
	return &GuestService{store: store}
}

// NewSession выдает новый гостевой токен
func (s *GuestService) NewSession() string {
	return uuid.NewString()
}

func (s *GuestService) GetCart(ctx context.Context, token string) ([]entity.GuestCartLine, error) {
	if err := ValidateGuestToken(token); err != nil {
		return nil, err
	}

	lines, err := s.store.ReadCart(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to read guest cart: %w", err)
	}
	return lines, nil
}

// PutCart заменяет гостевую корзину целиком
// Строки хранятся как прислал клиент и нормализуются только при слиянии
func (s *GuestService) PutCart(ctx context.Context, token string, lines []entity.GuestCartLine) ([]entity.GuestCartLine, error) {
	if err := ValidateGuestToken(token); err != nil {
		return nil, err
	}
	if len(lines) > maxGuestItems {
		return nil, invalidField("lines", fmt.Sprintf("at most %d lines allowed", maxGuestItems))
	}

	if err := s.store.WriteCart(ctx, token, lines); err != nil {
		return nil, fmt.Errorf("failed to write guest cart: %w", err)
	}
	return s.GetCart(ctx, token)
}

func (s *GuestService) GetWishlist(ctx context.Context, token string) ([]entity.LooseValue, error) {
	if err := ValidateGuestToken(token); err != nil {
		return nil, err
	}

	ids, err := s.store.ReadWishlist(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to read guest wishlist: %w", err)
	}
	return ids, nil
}

// PutWishlist заменяет гостевое избранное целиком
func (s *GuestService) PutWishlist(ctx context.Context, token string, productIDs []entity.LooseValue) ([]entity.LooseValue, error) {
	if err := ValidateGuestToken(token); err != nil {
		return nil, err
	}
	if len(productIDs) > maxGuestItems {
		return nil, invalidField("product_ids", fmt.Sprintf("at most %d items allowed", maxGuestItems))
	}

	if err := s.store.WriteWishlist(ctx, token, productIDs); err != nil {
		return nil, fmt.Errorf("failed to write guest wishlist: %w", err)
	}
	return s.GetWishlist(ctx, token)
}

// Clear удаляет гостевое состояние
func (s *GuestService) Clear(ctx context.Context, token string) error {
	if err := ValidateGuestToken(token); err != nil {
		return err
	}
	if err := s.store.Clear(ctx, token); err != nil {
		return fmt.Errorf("failed to clear guest state: %w", err)
	}
	return nil
}

// ValidateGuestToken проверяет формат гостевого токена (UUID)
func ValidateGuestToken(token string) error {
	if token == "" {
		return invalidField("guest_token", "required")
	}
	if _, err := uuid.Parse(token); err != nil {
		return invalidField("guest_token", "must be a UUID")
	}
	return nil
}
