package repository

import (
	"context"
	"errors"

	"tapestore/reviews-service/internal/app/reviews/entity"
)

var (
	// Стандартные ошибки репозитория для обработки в service layer
	ErrStatsNotFound   = errors.New("rating stats not found")
	ErrProductNotFound = errors.New("product not found")
)

// ReviewRepository - отзывы в MongoDB
type ReviewRepository interface {
	// Upsert вставляет отзыв или перезаписывает отзыв того же (user_id, product_id)
	Upsert(ctx context.Context, review *entity.Review) error
	// Delete удаляет отзыв пользователя о товаре, false если его не было
	Delete(ctx context.Context, userID, productID int64) (bool, error)
	// GetByProduct возвращает отзывы товара, новые первыми
	GetByProduct(ctx context.Context, productID int64) ([]entity.Review, error)
	// AggregateStats считает AVG(rating) и COUNT(*) по всем отзывам товара (без округления)
	AggregateStats(ctx context.Context, productID int64) (avg float64, count int, err error)
	// ProductIDs возвращает все товары, у которых есть отзывы
	ProductIDs(ctx context.Context) ([]int64, error)
}

// RatingRepository - копия статистики в MongoDB для ответа без обращения к PostgreSQL
type RatingRepository interface {
	Save(ctx context.Context, stats *entity.ProductRatingStats) error
	Get(ctx context.Context, productID int64) (*entity.ProductRatingStats, error)
	ProductIDs(ctx context.Context) ([]int64, error)
}

// ProductStatsRepository - колонки avg_rating и rating_count в таблице products
type ProductStatsRepository interface {
	Exists(ctx context.Context, productID int64) (bool, error)
	// UpdateStats записывает статистику, false если товара нет в каталоге
	UpdateStats(ctx context.Context, stats *entity.ProductRatingStats) (bool, error)
}
