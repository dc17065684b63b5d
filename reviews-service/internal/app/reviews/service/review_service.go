package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"tapestore/pkg/logger"
	"tapestore/pkg/metrics"
	"tapestore/reviews-service/internal/app/reviews/entity"
	"tapestore/reviews-service/internal/app/reviews/infrastructure"
	"tapestore/reviews-service/internal/app/reviews/repository"
)

// maxCommentLength - предел длины комментария в символах (рунах)
const maxCommentLength = 2000

// ReviewService обрабатывает отзывы и поддерживает кешированную статистику рейтинга
// Статистика всегда пересчитывается по полному набору отзывов, никогда не корректируется инкрементально
type ReviewService struct {
	reviewRepo    repository.ReviewRepository
	ratingRepo    repository.RatingRepository
	productRepo   repository.ProductStatsRepository
	locker        Locker
	kafkaProducer infrastructure.MessagePublisher
	now           func() time.Time
}

// NewReviewService создает новый сервис отзывов с внедрением зависимостей
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	ratingRepo repository.RatingRepository,
	productRepo repository.ProductStatsRepository,
	locker Locker,
	kafkaProducer infrastructure.MessagePublisher,
) *ReviewService {
	return &ReviewService{
		reviewRepo:    reviewRepo,
		ratingRepo:    ratingRepo,
		productRepo:   productRepo,
		locker:        locker,
		kafkaProducer: kafkaProducer,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// UpsertReview создает отзыв или перезаписывает существующий отзыв пользователя о товаре
// и возвращает пересчитанную статистику товара.
// Проверки идут по порядку, первая неудачная определяет ошибку:
// userID -> ErrUnauthorized, productID и rating -> FieldError
func (s *ReviewService) UpsertReview(ctx context.Context, userID, productID int64, rating float64, comment *string) (*entity.ProductRatingStats, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}
	if productID <= 0 {
		return nil, invalidField("product_id", "must be a positive integer")
	}
	if math.IsNaN(rating) || math.IsInf(rating, 0) || rating != math.Trunc(rating) || rating < 1 || rating > 5 {
		return nil, invalidField("rating", "must be an integer from 1 to 5")
	}

	exists, err := s.productRepo.Exists(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to check product: %w", err)
	}
	if !exists {
		return nil, ErrProductNotFound
	}

	review := &entity.Review{
		UserID:    userID,
		ProductID: productID,
		Rating:    int(rating),
		Comment:   normalizeComment(comment),
		CreatedAt: s.now(),
	}

	if err := s.reviewRepo.Upsert(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to upsert review: %w", err)
	}
	metrics.ReviewsUpserted.Inc()
	metrics.ReviewsRating.Observe(float64(review.Rating))

	return s.RecomputeStats(ctx, productID, entity.TriggerUpsert)
}

// DeleteReview удаляет отзыв пользователя о товаре, если он есть
// Статистика пересчитывается в любом случае, даже если удалять было нечего
func (s *ReviewService) DeleteReview(ctx context.Context, userID, productID int64) (*entity.DeleteReviewResponse, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}
	if productID <= 0 {
		return nil, invalidField("product_id", "must be a positive integer")
	}

	deleted, err := s.reviewRepo.Delete(ctx, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete review: %w", err)
	}
	if deleted {
		metrics.ReviewsDeleted.Inc()
	}

	stats, err := s.RecomputeStats(ctx, productID, entity.TriggerDelete)
	if err != nil {
		return nil, err
	}

	return &entity.DeleteReviewResponse{Deleted: deleted, Stats: stats}, nil
}

// GetReviews возвращает отзывы товара, новые первыми, и текущую статистику
func (s *ReviewService) GetReviews(ctx context.Context, productID int64) (*entity.ReviewListResponse, error) {
	if productID <= 0 {
		return nil, invalidField("product_id", "must be a positive integer")
	}

	reviews, err := s.reviewRepo.GetByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}

	stats, err := s.ratingRepo.Get(ctx, productID)
	switch {
	case errors.Is(err, repository.ErrStatsNotFound):
		stats = &entity.ProductRatingStats{ProductID: productID}
	case err != nil:
		return nil, fmt.Errorf("failed to get rating stats: %w", err)
	}

	return &entity.ReviewListResponse{
		Reviews: reviews,
		Total:   len(reviews),
		Stats:   stats,
	}, nil
}

// RecomputeStats пересчитывает AVG и COUNT по всем отзывам товара и сохраняет результат
// в таблицу products и в product_ratings. Пересчёт одного товара сериализован
// через Redis блокировку; если её не удалось взять, пересчёт не выполняется
func (s *ReviewService) RecomputeStats(ctx context.Context, productID int64, trigger string) (*entity.ProductRatingStats, error) {
	var stats *entity.ProductRatingStats

	err := s.locker.WithLock(ctx, ratingLockKey(productID), func(ctx context.Context) error {
		avg, count, err := s.reviewRepo.AggregateStats(ctx, productID)
		if err != nil {
			return err
		}

		stats = &entity.ProductRatingStats{
			ProductID:   productID,
			AvgRating:   roundRating(avg, count),
			RatingCount: count,
			UpdatedAt:   s.now(),
		}

		updated, err := s.productRepo.UpdateStats(ctx, stats)
		if err != nil {
			return err
		}
		if !updated {
			logger.Warn().Int64("product_id", productID).Msg("product missing in catalog, rating stats kept in reviews store only")
		}

		return s.ratingRepo.Save(ctx, stats)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to recompute rating stats for product %d: %w", productID, err)
	}

	metrics.RatingRecomputes.WithLabelValues(trigger).Inc()
	s.publishRatingEvent(ctx, stats)

	return stats, nil
}

// ResyncAll пересчитывает статистику всех товаров, у которых есть отзывы или сохраненная статистика
// Возвращает число успешно пересчитанных товаров; ошибки по отдельным товарам логируются
func (s *ReviewService) ResyncAll(ctx context.Context) (int, error) {
	reviewed, err := s.reviewRepo.ProductIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list reviewed products: %w", err)
	}
	withStats, err := s.ratingRepo.ProductIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list products with stats: %w", err)
	}

	ids := mergeIDs(reviewed, withStats)

	recomputed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return recomputed, ctx.Err()
		}
		if _, err := s.RecomputeStats(ctx, id, entity.TriggerResync); err != nil {
			logger.Error().Err(err).Int64("product_id", id).Msg("failed to resync rating stats")
			continue
		}
		recomputed++
	}

	return recomputed, nil
}

// publishRatingEvent отправляет PRODUCT_RATING_UPDATED; ошибка Kafka не критична
func (s *ReviewService) publishRatingEvent(ctx context.Context, stats *entity.ProductRatingStats) {
	event := entity.RatingEvent{
		EventType:   entity.EventProductRatingUpdated,
		ProductID:   stats.ProductID,
		AvgRating:   stats.AvgRating,
		RatingCount: stats.RatingCount,
		Timestamp:   s.now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("failed to marshal rating event")
		return
	}

	if err := s.kafkaProducer.PublishMessage(ctx, strconv.FormatInt(stats.ProductID, 10), data); err != nil {
		logger.Warn().Err(err).Int64("product_id", stats.ProductID).Msg("failed to publish rating event")
	}
}

// normalizeComment обрезает пробелы и усекает до maxCommentLength символов
// Пустой комментарий считается отсутствующим
func normalizeComment(comment *string) *string {
	if comment == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*comment)
	if trimmed == "" {
		return nil
	}
	if utf8.RuneCountInString(trimmed) > maxCommentLength {
		runes := []rune(trimmed)
		trimmed = string(runes[:maxCommentLength])
	}
	return &trimmed
}

// roundRating округляет среднее до 2 знаков, 0 при отсутствии отзывов
func roundRating(avg float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return math.Round(avg*100) / 100
}

func ratingLockKey(productID int64) string {
	return "lock:product-rating:" + strconv.FormatInt(productID, 10)
}

func mergeIDs(a, b []int64) []int64 {
	seen := make(map[int64]struct{}, len(a)+len(b))
	ids := make([]int64, 0, len(a)+len(b))
	for _, list := range [][]int64{a, b} {
		for _, id := range list {
			if id <= 0 {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
