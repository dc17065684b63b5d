package repository

import (
	"context"
	"errors"
	"fmt"

	"tapestore/pkg/metrics"
	"tapestore/storefront-service/internal/app/storefront/entity"

	"github.com/jackc/pgx/v5/pgxpool"
)

type productRepository struct {
	db *pgxpool.Pool
}

// NewProductRepository создает новый репозиторий товаров
func NewProductRepository(db *pgxpool.Pool) ProductRepository {
	return &productRepository{db: db}
}

// GetByID получает товар по ID
func (r *productRepository) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	query := `
		SELECT id, title, price_raw, images, avg_rating::float8, rating_count
		FROM products
		WHERE id = $1
	`

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "products")
	var product entity.Product
	err := conn(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&product.ID,
		&product.Title,
		&product.PriceRaw,
		&product.Images,
		&product.AvgRating,
		&product.RatingCount,
	)
	err = translateError(err)
	if errors.Is(err, ErrNotFound) {
		timer.Done(nil)
		return nil, ErrProductNotFound
	}
	timer.Done(err)

	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &product, nil
}

// ExistingIDs возвращает множество тех ids, для которых товар существует
func (r *productRepository) ExistingIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	existing := make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	query := `SELECT id FROM products WHERE id = ANY($1)`

	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "products")
	rows, err := conn(ctx, r.db).Query(ctx, query, ids)
	if err != nil {
		timer.Done(err)
		return nil, fmt.Errorf("failed to check products: %w", translateError(err))
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			timer.Done(err)
			return nil, fmt.Errorf("failed to scan product id: %w", err)
		}
		existing[id] = true
	}

	err = rows.Err()
	timer.Done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate product ids: %w", err)
	}

	return existing, nil
}
