package repository

import (
	"context"
	"fmt"

	"tapestore/pkg/metrics"
	"tapestore/storefront-service/internal/app/storefront/entity"

	"github.com/jackc/pgx/v5/pgxpool"
)

type wishlistRepository struct {
	db *pgxpool.Pool
}

// NewWishlistRepository создает новый репозиторий избранного
func NewWishlistRepository(db *pgxpool.Pool) WishlistRepository {
	return &wishlistRepository{db: db}
}

// Add добавляет товар в избранное, повторная вставка игнорируется
func (r *wishlistRepository) Add(ctx context.Context, userID, productID int64) (bool, error) {
	query := `
		INSERT INTO wishlist_items (user_id, product_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, product_id) DO NOTHING
	`

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, "wishlist_items")
	tag, err := conn(ctx, r.db).Exec(ctx, query, userID, productID)
	timer.Done(err)

	if err != nil {
		return false, fmt.Errorf("failed to add wishlist item: %w", translateError(err))
	}

	return tag.RowsAffected() > 0, nil
}

// Remove удаляет товар из избранного; возвращает true, если запись была
func (r *wishlistRepository) Remove(ctx context.Context, userID, productID int64) (bool, error) {
	query := `DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpDelete, "wishlist_items")
	tag, err := conn(ctx, r.db).Exec(ctx, query, userID, productID)
	timer.Done(err)

	if err != nil {
		return false, fmt.Errorf("failed to remove wishlist item: %w", translateError(err))
	}

	return tag.RowsAffected() > 0, nil
}

// GetWishlist получает избранное пользователя, новые записи первыми
func (r *wishlistRepository) GetWishlist(ctx context.Context, userID int64) ([]entity.WishlistItem, error) {
	query := `
		SELECT w.product_id, p.title, p.price_raw, p.images, w.created_at
		FROM wishlist_items w
		JOIN products p ON p.id = w.product_id
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC, w.product_id
	`

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "wishlist_items")
	rows, err := conn(ctx, r.db).Query(ctx, query, userID)
	if err != nil {
		timer.Done(err)
		return nil, fmt.Errorf("failed to get wishlist: %w", translateError(err))
	}
	defer rows.Close()

	items := make([]entity.WishlistItem, 0)
	for rows.Next() {
		var item entity.WishlistItem
		if err := rows.Scan(&item.ProductID, &item.Title, &item.PriceRaw, &item.Images, &item.AddedAt); err != nil {
			timer.Done(err)
			return nil, fmt.Errorf("failed to scan wishlist item: %w", err)
		}
		items = append(items, item)
	}

	err = rows.Err()
	timer.Done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate wishlist items: %w", err)
	}

	return items, nil
}
