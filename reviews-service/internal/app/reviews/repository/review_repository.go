package repository

import (
	"context"
	"fmt"
	"time"

	"tapestore/pkg/logger"
	"tapestore/pkg/metrics"
	"tapestore/reviews-service/internal/app/reviews/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	serviceName           = "reviews-service"
	reviewsCollection     = "reviews"
	ratingStatsCollection = "product_ratings"
)

type reviewRepository struct {
	collection *mongo.Collection
}

// NewReviewRepository создает новый репозиторий отзывов
func NewReviewRepository(db *mongo.Database) ReviewRepository {
	return &reviewRepository{
		collection: db.Collection(reviewsCollection),
	}
}

// EnsureReviewIndexes создает уникальный индекс (user_id, product_id) и индекс по product_id
// Уникальный индекс делает "один отзыв на пользователя и товар" инвариантом базы
func EnsureReviewIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "product_id", Value: 1}},
			Options: options.Index().SetName("user_product_uniq").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "product_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("product_id_created_at_idx"),
		},
	}

	if _, err := db.Collection(reviewsCollection).Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create review indexes: %w", err)
	}

	_, err := db.Collection(ratingStatsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "product_id", Value: 1}},
		Options: options.Index().SetName("product_id_uniq").SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create rating stats index: %w", err)
	}

	return nil
}

// Upsert перезаписывает rating, comment и created_at либо вставляет новый отзыв
func (r *reviewRepository) Upsert(ctx context.Context, review *entity.Review) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpsert, reviewsCollection)

	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}

	filter := bson.M{"user_id": review.UserID, "product_id": review.ProductID}
	set := bson.M{
		"rating":     review.Rating,
		"created_at": review.CreatedAt,
	}
	update := bson.M{"$set": set}
	if review.Comment != nil {
		set["comment"] = *review.Comment
	} else {
		update["$unset"] = bson.M{"comment": ""}
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored entity.Review
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	timer.Done(err)
	if err != nil {
		return fmt.Errorf("failed to upsert review: %w", err)
	}

	review.ID = stored.ID
	return nil
}

// Delete удаляет отзыв по (user_id, product_id)
func (r *reviewRepository) Delete(ctx context.Context, userID, productID int64) (bool, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpDelete, reviewsCollection)

	result, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID, "product_id": productID})
	timer.Done(err)
	if err != nil {
		return false, fmt.Errorf("failed to delete review: %w", err)
	}

	return result.DeletedCount > 0, nil
}

// GetByProduct получает отзывы товара, отсортированные по created_at по убыванию
func (r *reviewRepository) GetByProduct(ctx context.Context, productID int64) ([]entity.Review, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, reviewsCollection)

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"product_id": productID}, opts)
	if err != nil {
		timer.Done(err)
		return nil, fmt.Errorf("failed to find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	reviews := make([]entity.Review, 0)
	err = cursor.All(ctx, &reviews)
	timer.Done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}

	return reviews, nil
}

type statsAggregate struct {
	Avg   float64 `bson:"avg"`
	Count int     `bson:"count"`
}

// AggregateStats считает статистику агрегацией на стороне MongoDB
func (r *reviewRepository) AggregateStats(ctx context.Context, productID int64) (float64, int, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, reviewsCollection)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"product_id": productID}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "avg", Value: bson.M{"$avg": "$rating"}},
			{Key: "count", Value: bson.M{"$sum": 1}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		timer.Done(err)
		return 0, 0, fmt.Errorf("failed to aggregate review stats: %w", err)
	}
	defer cursor.Close(ctx)

	var results []statsAggregate
	err = cursor.All(ctx, &results)
	timer.Done(err)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode review stats: %w", err)
	}

	// Нет отзывов - нет группы
	if len(results) == 0 {
		return 0, 0, nil
	}

	return results[0].Avg, results[0].Count, nil
}

func (r *reviewRepository) ProductIDs(ctx context.Context) ([]int64, error) {
	return distinctProductIDs(ctx, r.collection)
}

func distinctProductIDs(ctx context.Context, collection *mongo.Collection) ([]int64, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, collection.Name())

	values, err := collection.Distinct(ctx, "product_id", bson.M{})
	timer.Done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to list product ids in %s: %w", collection.Name(), err)
	}

	ids := make([]int64, 0, len(values))
	for _, v := range values {
		switch id := v.(type) {
		case int64:
			ids = append(ids, id)
		case int32:
			ids = append(ids, int64(id))
		default:
			logger.Warn().Interface("product_id", v).Str("collection", collection.Name()).Msg("skipping non-integer product_id")
		}
	}

	return ids, nil
}
