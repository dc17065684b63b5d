package service

import (
	"context"

	"tapestore/reviews-service/internal/app/reviews/entity"
)

type ReviewServiceInterface interface {
	UpsertReview(ctx context.Context, userID, productID int64, rating float64, comment *string) (*entity.ProductRatingStats, error)
	DeleteReview(ctx context.Context, userID, productID int64) (*entity.DeleteReviewResponse, error)
	GetReviews(ctx context.Context, productID int64) (*entity.ReviewListResponse, error)
	RecomputeStats(ctx context.Context, productID int64, trigger string) (*entity.ProductRatingStats, error)
	ResyncAll(ctx context.Context) (int, error)
}

// Locker сериализует пересчёт статистики одного товара
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}
