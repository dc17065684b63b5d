package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"tapestore/pkg/metrics"
	"tapestore/storefront-service/internal/app/storefront/entity"
	"tapestore/storefront-service/internal/app/storefront/repository"
)

// maxVariantLength - предел длины значения цвета, ширины или длины
const maxVariantLength = 100

var quantityReason = fmt.Sprintf("must be an integer from 1 to %d", entity.MaxLineQuantity)

// CartService - серверная корзина и слияние гостевой корзины
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	tx          repository.Transactor
}

// NewCartService создает новый сервис корзины
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	tx repository.Transactor,
) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		tx:          tx,
	}
}

type pendingLine struct {
	index int
	line  entity.CartLine
}

// MergeGuestCart сливает гостевую корзину в серверную
// Строки обрабатываются строго по порядку в одной транзакции: совпадение по VariantKey
// прибавляет количество гостя, иначе вставляется новая строка. Повторный вызов с тем же
// набором удваивает количества, поэтому гостевое состояние нужно очищать после успеха.
// Строки без товара пропускаются, некорректные строки попадают в Rejected и не влияют на остальные.
// Ошибка хранилища откатывает весь пакет и возвращается как *MergeError
func (s *CartService) MergeGuestCart(ctx context.Context, userID int64, lines []entity.GuestCartLine) (*entity.MergeCartResult, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}

	result := &entity.MergeCartResult{Rejected: []entity.LineRejection{}}
	reject := func(index int, field, reason string) {
		result.Rejected = append(result.Rejected, entity.LineRejection{Index: index, Field: field, Reason: reason})
	}

	// Нормализация до любых обращений к хранилищу
	pending := make([]pendingLine, 0, len(lines))
	for i, gl := range lines {
		productID, state := gl.ProductID.ProductID()
		switch state {
		case entity.FieldAbsent:
			result.Skipped++
			continue
		case entity.FieldInvalid:
			reject(i, "product_id", "must be a positive integer")
			continue
		}

		quantity, qState := gl.Quantity.Quantity()
		if qState != entity.FieldValid {
			reject(i, "quantity", quantityReason)
			continue
		}

		if field := oversizedVariantField(gl.Variant()); field != "" {
			reject(i, field, fmt.Sprintf("must be at most %d bytes", maxVariantLength))
			continue
		}

		pending = append(pending, pendingLine{
			index: i,
			line: entity.CartLine{
				UserID:       userID,
				ProductID:    productID,
				Quantity:     quantity,
				ChosenColor:  gl.Color,
				ChosenWidth:  gl.Width,
				ChosenLength: gl.Length,
			},
		})
	}

	pending, err := s.dropUnknownProducts(ctx, pending, reject)
	if err != nil {
		metrics.CartMerges.WithLabelValues("failed").Inc()
		return nil, err
	}

	if len(pending) > 0 {
		err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			for _, p := range pending {
				if _, err := s.cartRepo.UpsertLine(ctx, &p.line); err != nil {
					return &MergeError{Index: p.index, ProductID: p.line.ProductID, Err: err}
				}
			}
			return nil
		})
		if err != nil {
			metrics.CartMerges.WithLabelValues("failed").Inc()
			var mergeErr *MergeError
			if errors.As(err, &mergeErr) {
				return nil, mergeErr
			}
			return nil, fmt.Errorf("failed to commit guest cart merge: %w", err)
		}
	}

	sort.SliceStable(result.Rejected, func(i, j int) bool {
		return result.Rejected[i].Index < result.Rejected[j].Index
	})
	result.Merged = len(pending)

	metrics.CartMerges.WithLabelValues("success").Inc()
	metrics.CartMergeLines.WithLabelValues("merged").Add(float64(result.Merged))
	metrics.CartMergeLines.WithLabelValues("skipped").Add(float64(result.Skipped))
	metrics.CartMergeLines.WithLabelValues("rejected").Add(float64(len(result.Rejected)))

	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	result.Cart = cart

	return result, nil
}

// dropUnknownProducts отклоняет строки с несуществующими товарами
func (s *CartService) dropUnknownProducts(ctx context.Context, pending []pendingLine, reject func(int, string, string)) ([]pendingLine, error) {
	if len(pending) == 0 {
		return pending, nil
	}

	ids := make([]int64, 0, len(pending))
	seen := make(map[int64]bool, len(pending))
	for _, p := range pending {
		if !seen[p.line.ProductID] {
			seen[p.line.ProductID] = true
			ids = append(ids, p.line.ProductID)
		}
	}

	existing, err := s.productRepo.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to check products: %w", err)
	}

	kept := pending[:0]
	for _, p := range pending {
		if !existing[p.line.ProductID] {
			reject(p.index, "product_id", "product not found")
			continue
		}
		kept = append(kept, p)
	}
	return kept, nil
}

// AddLine добавляет товар в корзину по тому же правилу совпадения, что и слияние
func (s *CartService) AddLine(ctx context.Context, userID int64, in entity.AddLineInput) (*entity.Cart, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}
	if in.ProductID <= 0 {
		return nil, invalidField("product_id", "must be a positive integer")
	}
	if in.Quantity < 1 || in.Quantity > entity.MaxLineQuantity {
		return nil, invalidField("quantity", quantityReason)
	}
	if field := oversizedVariantField(in.Variant); field != "" {
		return nil, invalidField(field, fmt.Sprintf("must be at most %d bytes", maxVariantLength))
	}

	line := &entity.CartLine{
		UserID:       userID,
		ProductID:    in.ProductID,
		Quantity:     in.Quantity,
		ChosenColor:  in.Variant.Color,
		ChosenWidth:  in.Variant.Width,
		ChosenLength: in.Variant.Length,
	}

	if _, err := s.cartRepo.UpsertLine(ctx, line); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to add cart line: %w", err)
	}

	return s.GetCart(ctx, userID)
}

// IncrementLine увеличивает количество строки на 1, но не выше MaxLineQuantity
func (s *CartService) IncrementLine(ctx context.Context, lineID, userID int64) (*entity.Cart, error) {
	if err := validateLineRef(lineID, userID); err != nil {
		return nil, err
	}

	updated, err := s.cartRepo.IncrementLine(ctx, lineID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to increment cart line: %w", err)
	}
	if !updated {
		// Строки нет или количество уже на пределе
		if _, err := s.cartRepo.GetLine(ctx, lineID, userID); err != nil {
			if errors.Is(err, repository.ErrLineNotFound) {
				return nil, ErrLineNotFound
			}
			return nil, fmt.Errorf("failed to get cart line: %w", err)
		}
		return nil, invalidField("quantity", fmt.Sprintf("must be at most %d", entity.MaxLineQuantity))
	}

	return s.GetCart(ctx, userID)
}

// DecrementLine уменьшает количество строки на 1
// Строка с количеством 1 не меняется: удаление только через DeleteLine
func (s *CartService) DecrementLine(ctx context.Context, lineID, userID int64) (*entity.Cart, error) {
	if err := validateLineRef(lineID, userID); err != nil {
		return nil, err
	}

	line, err := s.cartRepo.GetLine(ctx, lineID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrLineNotFound) {
			return nil, ErrLineNotFound
		}
		return nil, fmt.Errorf("failed to get cart line: %w", err)
	}

	if line.Quantity > 1 {
		if _, err := s.cartRepo.DecrementLine(ctx, lineID, userID); err != nil {
			return nil, fmt.Errorf("failed to decrement cart line: %w", err)
		}
	}

	return s.GetCart(ctx, userID)
}

// DeleteLine удаляет строку; отсутствующая строка не ошибка
func (s *CartService) DeleteLine(ctx context.Context, lineID, userID int64) (*entity.Cart, error) {
	if err := validateLineRef(lineID, userID); err != nil {
		return nil, err
	}

	if _, err := s.cartRepo.DeleteLine(ctx, lineID, userID); err != nil {
		return nil, fmt.Errorf("failed to delete cart line: %w", err)
	}

	return s.GetCart(ctx, userID)
}

// Clear удаляет все строки корзины пользователя
func (s *CartService) Clear(ctx context.Context, userID int64) (*entity.Cart, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}

	if _, err := s.cartRepo.DeleteAll(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	return s.GetCart(ctx, userID)
}

// GetCart возвращает авторитетный снимок корзины
func (s *CartService) GetCart(ctx context.Context, userID int64) (*entity.Cart, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}

	items, err := s.cartRepo.GetCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return entity.NewCart(userID, items), nil
}

func validateLineRef(lineID, userID int64) error {
	if userID <= 0 {
		return ErrUnauthorized
	}
	if lineID <= 0 {
		return invalidField("line_id", "must be a positive integer")
	}
	return nil
}

func oversizedVariantField(v entity.Variant) string {
	switch {
	case v.Color != nil && len(*v.Color) > maxVariantLength:
		return "color"
	case v.Width != nil && len(*v.Width) > maxVariantLength:
		return "width"
	case v.Length != nil && len(*v.Length) > maxVariantLength:
		return "length"
	}
	return ""
}
