package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review - отзыв покупателя, уникален по (user_id, product_id)
// Повторный отзыв того же пользователя перезаписывает оценку, комментарий и дату
type Review struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    int64              `json:"user_id" bson:"user_id"`
	ProductID int64              `json:"product_id" bson:"product_id"`
	Rating    int                `json:"rating" bson:"rating"`             // Оценка от 1 до 5
	Comment   *string            `json:"comment" bson:"comment,omitempty"` // nil, если комментария нет
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// ProductRatingStats - кешированная статистика рейтинга товара
// Всегда пересчитывается целиком по текущему набору отзывов
type ProductRatingStats struct {
	ProductID   int64     `json:"product_id" bson:"product_id"`
	AvgRating   float64   `json:"avg_rating" bson:"avg_rating"` // Округлено до 2 знаков, 0 при отсутствии отзывов
	RatingCount int       `json:"rating_count" bson:"rating_count"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// ProductStats - колонки рейтинга в таблице products (GORM)
type ProductStats struct {
	ID          int64   `gorm:"column:id;primaryKey"`
	AvgRating   float64 `gorm:"column:avg_rating"`
	RatingCount int     `gorm:"column:rating_count"`
}

func (ProductStats) TableName() string {
	return "products"
}

// RatingEvent - событие PRODUCT_RATING_UPDATED для топика review_events
type RatingEvent struct {
	EventType   string    `json:"event_type"`
	ProductID   int64     `json:"product_id"`
	AvgRating   float64   `json:"avg_rating"`
	RatingCount int       `json:"rating_count"`
	Timestamp   time.Time `json:"timestamp"`
}

const EventProductRatingUpdated = "PRODUCT_RATING_UPDATED"

// Источники пересчёта статистики
const (
	TriggerUpsert = "upsert"
	TriggerDelete = "delete"
	TriggerResync = "resync"
)
