package repository

import (
	"context"
	"errors"
	"fmt"

	"tapestore/pkg/metrics"
	"tapestore/reviews-service/internal/app/reviews/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ratingRepository struct {
	collection *mongo.Collection
}

// NewRatingRepository создает репозиторий статистики в коллекции product_ratings
func NewRatingRepository(db *mongo.Database) RatingRepository {
	return &ratingRepository{
		collection: db.Collection(ratingStatsCollection),
	}
}

// Save заменяет документ статистики товара целиком
func (r *ratingRepository) Save(ctx context.Context, stats *entity.ProductRatingStats) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpsert, ratingStatsCollection)

	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"product_id": stats.ProductID},
		stats,
		options.Replace().SetUpsert(true),
	)
	timer.Done(err)
	if err != nil {
		return fmt.Errorf("failed to save rating stats: %w", err)
	}

	return nil
}

func (r *ratingRepository) Get(ctx context.Context, productID int64) (*entity.ProductRatingStats, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, ratingStatsCollection)

	var stats entity.ProductRatingStats
	err := r.collection.FindOne(ctx, bson.M{"product_id": productID}).Decode(&stats)
	if errors.Is(err, mongo.ErrNoDocuments) {
		timer.Done(nil)
		return nil, ErrStatsNotFound
	}
	timer.Done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to get rating stats: %w", err)
	}

	return &stats, nil
}

func (r *ratingRepository) ProductIDs(ctx context.Context) ([]int64, error) {
	return distinctProductIDs(ctx, r.collection)
}
