package repository

import (
	"context"
	"fmt"

	"tapestore/pkg/metrics"
	"tapestore/reviews-service/internal/app/reviews/entity"

	"gorm.io/gorm"
)

// productStatsRepository пишет статистику в таблицу products через GORM
type productStatsRepository struct {
	db *gorm.DB
}

// NewProductStatsRepository создает новый репозиторий статистики товаров
func NewProductStatsRepository(db *gorm.DB) ProductStatsRepository {
	return &productStatsRepository{db: db}
}

// Exists проверяет, что товар есть в каталоге
func (r *productStatsRepository) Exists(ctx context.Context, productID int64) (bool, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "products")

	var count int64
	result := r.db.WithContext(ctx).
		Model(&entity.ProductStats{}).
		Where("id = ?", productID).
		Count(&count)
	timer.Done(result.Error)

	if result.Error != nil {
		return false, fmt.Errorf("failed to check product: %w", result.Error)
	}

	return count > 0, nil
}

// UpdateStats точечно обновляет avg_rating и rating_count
func (r *productStatsRepository) UpdateStats(ctx context.Context, stats *entity.ProductRatingStats) (bool, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, "products")

	result := r.db.WithContext(ctx).
		Model(&entity.ProductStats{}).
		Where("id = ?", stats.ProductID).
		Updates(map[string]interface{}{
			"avg_rating":   stats.AvgRating,
			"rating_count": stats.RatingCount,
		})
	timer.Done(result.Error)

	if result.Error != nil {
		return false, fmt.Errorf("failed to update product rating stats: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}
