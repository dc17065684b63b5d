package repository

import (
	"context"
	"errors"
	"fmt"

	"tapestore/pkg/metrics"
	"tapestore/storefront-service/internal/app/storefront/entity"

	"github.com/jackc/pgx/v5/pgxpool"
)

type cartRepository struct {
	db *pgxpool.Pool
}

// NewCartRepository создает новый репозиторий корзины
func NewCartRepository(db *pgxpool.Pool) CartRepository {
	return &cartRepository{db: db}
}

// UpsertLine вставляет строку или прибавляет количество к строке с тем же variant_key
// Сумма ограничена MaxLineQuantity
// Поиск и запись выполняются одним выражением, поэтому две параллельные вставки
// одного варианта не создают дубликат и не теряют количество
func (r *cartRepository) UpsertLine(ctx context.Context, line *entity.CartLine) (*entity.CartLine, error) {
	query := `
		INSERT INTO cart_items (user_id, product_id, quantity, chosen_color, chosen_width, chosen_length, variant_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (user_id, variant_key)
		DO UPDATE SET quantity = LEAST(cart_items.quantity + EXCLUDED.quantity, $8), updated_at = NOW()
		RETURNING id, quantity, created_at, updated_at
	`

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpsert, "cart_items")
	result := *line
	err := conn(ctx, r.db).QueryRow(
		ctx, query,
		line.UserID, line.ProductID, line.Quantity,
		line.ChosenColor, line.ChosenWidth, line.ChosenLength,
		line.VariantKey(), entity.MaxLineQuantity,
	).Scan(&result.ID, &result.Quantity, &result.CreatedAt, &result.UpdatedAt)
	timer.Done(err)

	if err != nil {
		return nil, fmt.Errorf("failed to upsert cart line: %w", translateError(err))
	}

	return &result, nil
}

// GetLine получает строку корзины, принадлежащую пользователю
func (r *cartRepository) GetLine(ctx context.Context, lineID, userID int64) (*entity.CartLine, error) {
	query := `
		SELECT id, user_id, product_id, quantity, chosen_color, chosen_width, chosen_length, created_at, updated_at
		FROM cart_items
		WHERE id = $1 AND user_id = $2
	`

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "cart_items")
	var line entity.CartLine
	err := conn(ctx, r.db).QueryRow(ctx, query, lineID, userID).Scan(
		&line.ID,
		&line.UserID,
		&line.ProductID,
		&line.Quantity,
		&line.ChosenColor,
		&line.ChosenWidth,
		&line.ChosenLength,
		&line.CreatedAt,
		&line.UpdatedAt,
	)
	err = translateError(err)
	if errors.Is(err, ErrNotFound) {
		timer.Done(nil)
		return nil, ErrLineNotFound
	}
	timer.Done(err)

	if err != nil {
		return nil, fmt.Errorf("failed to get cart line: %w", err)
	}

	return &line, nil
}

// IncrementLine увеличивает количество на 1, строка на пределе MaxLineQuantity не меняется
func (r *cartRepository) IncrementLine(ctx context.Context, lineID, userID int64) (bool, error) {
	query := `
		UPDATE cart_items SET quantity = quantity + 1, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND quantity < $3
	`
	return r.exec(ctx, metrics.DbOpUpdate, "increment cart line", query, lineID, userID, entity.MaxLineQuantity)
}

// DecrementLine уменьшает количество на 1, строка с количеством 1 не меняется
func (r *cartRepository) DecrementLine(ctx context.Context, lineID, userID int64) (bool, error) {
	query := `
		UPDATE cart_items SET quantity = quantity - 1, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND quantity > 1
	`
	return r.exec(ctx, metrics.DbOpUpdate, "decrement cart line", query, lineID, userID)
}

// DeleteLine удаляет строку корзины пользователя
func (r *cartRepository) DeleteLine(ctx context.Context, lineID, userID int64) (bool, error) {
	query := `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`
	return r.exec(ctx, metrics.DbOpDelete, "delete cart line", query, lineID, userID)
}

// DeleteAll удаляет все строки корзины пользователя
func (r *cartRepository) DeleteAll(ctx context.Context, userID int64) (int64, error) {
	query := `DELETE FROM cart_items WHERE user_id = $1`

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpDelete, "cart_items")
	tag, err := conn(ctx, r.db).Exec(ctx, query, userID)
	timer.Done(err)

	if err != nil {
		return 0, fmt.Errorf("failed to clear cart: %w", translateError(err))
	}

	return tag.RowsAffected(), nil
}

// GetCart получает все строки корзины вместе с данными товаров
func (r *cartRepository) GetCart(ctx context.Context, userID int64) ([]entity.CartItem, error) {
	query := `
		SELECT c.id, c.user_id, c.product_id, c.quantity, c.chosen_color, c.chosen_width, c.chosen_length,
		       c.created_at, c.updated_at, p.title, p.price_raw, p.images
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.created_at, c.id
	`

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "cart_items")
	rows, err := conn(ctx, r.db).Query(ctx, query, userID)
	if err != nil {
		timer.Done(err)
		return nil, fmt.Errorf("failed to get cart: %w", translateError(err))
	}
	defer rows.Close()

	items := make([]entity.CartItem, 0)
	for rows.Next() {
		var item entity.CartItem
		if err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.ProductID,
			&item.Quantity,
			&item.ChosenColor,
			&item.ChosenWidth,
			&item.ChosenLength,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.Title,
			&item.PriceRaw,
			&item.Images,
		); err != nil {
			timer.Done(err)
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}

	err = rows.Err()
	timer.Done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate cart items: %w", err)
	}

	return items, nil
}

func (r *cartRepository) exec(ctx context.Context, op metrics.DbOperation, action, query string, args ...any) (bool, error) {
	timer := metrics.NewDbTimer(serviceName, op, "cart_items")
	tag, err := conn(ctx, r.db).Exec(ctx, query, args...)
	timer.Done(err)

	if err != nil {
		return false, fmt.Errorf("failed to %s: %w", action, translateError(err))
	}

	return tag.RowsAffected() > 0, nil
}
