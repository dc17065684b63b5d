package service

import (
	"context"
	"sort"
	"sync"

	"tapestore/reviews-service/internal/app/reviews/entity"
	"tapestore/reviews-service/internal/app/reviews/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeStore - хранилище отзывов и статистики в памяти, повторяет семантику MongoDB/PostgreSQL репозиториев
type fakeStore struct {
	mu       sync.Mutex
	reviews  map[[2]int64]entity.Review // (user_id, product_id)
	stats    map[int64]entity.ProductRatingStats
	products map[int64]entity.ProductStats
}

func newFakeStore(productIDs ...int64) *fakeStore {
	s := &fakeStore{
		reviews:  make(map[[2]int64]entity.Review),
		stats:    make(map[int64]entity.ProductRatingStats),
		products: make(map[int64]entity.ProductStats),
	}
	for _, id := range productIDs {
		s.products[id] = entity.ProductStats{ID: id}
	}
	return s
}

type fakeReviews struct{ *fakeStore }
type fakeRatings struct{ *fakeStore }
type fakeProducts struct{ *fakeStore }

func (s fakeReviews) Upsert(_ context.Context, review *entity.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]int64{review.UserID, review.ProductID}
	if existing, ok := s.reviews[key]; ok {
		review.ID = existing.ID
	} else {
		review.ID = primitive.NewObjectID()
	}
	s.reviews[key] = *review
	return nil
}

func (s fakeReviews) Delete(_ context.Context, userID, productID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]int64{userID, productID}
	if _, ok := s.reviews[key]; !ok {
		return false, nil
	}
	delete(s.reviews, key)
	return true, nil
}

func (s fakeReviews) GetByProduct(_ context.Context, productID int64) ([]entity.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reviews := make([]entity.Review, 0)
	for _, r := range s.reviews {
		if r.ProductID == productID {
			reviews = append(reviews, r)
		}
	}
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].CreatedAt.After(reviews[j].CreatedAt) })
	return reviews, nil
}

func (s fakeReviews) AggregateStats(_ context.Context, productID int64) (float64, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum, count := 0, 0
	for _, r := range s.reviews {
		if r.ProductID == productID {
			sum += r.Rating
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

func (s fakeReviews) ProductIDs(_ context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[int64]bool{}
	var ids []int64
	for _, r := range s.reviews {
		if !seen[r.ProductID] {
			seen[r.ProductID] = true
			ids = append(ids, r.ProductID)
		}
	}
	return ids, nil
}

func (s fakeRatings) Save(_ context.Context, stats *entity.ProductRatingStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[stats.ProductID] = *stats
	return nil
}

func (s fakeRatings) Get(_ context.Context, productID int64) (*entity.ProductRatingStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats, ok := s.stats[productID]
	if !ok {
		return nil, repository.ErrStatsNotFound
	}
	return &stats, nil
}

func (s fakeRatings) ProductIDs(_ context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id := range s.stats {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s fakeProducts) Exists(_ context.Context, productID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.products[productID]
	return ok, nil
}

func (s fakeProducts) UpdateStats(_ context.Context, stats *entity.ProductRatingStats) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[stats.ProductID]; !ok {
		return false, nil
	}
	s.products[stats.ProductID] = entity.ProductStats{ID: stats.ProductID, AvgRating: stats.AvgRating, RatingCount: stats.RatingCount}
	return true, nil
}

func (s *fakeStore) productStats(id int64) entity.ProductStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id]
}

// setStats подменяет сохраненную статистику, имитируя ручную правку в базе
func (s *fakeStore) setStats(id int64, avg float64, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[id] = entity.ProductStats{ID: id, AvgRating: avg, RatingCount: count}
	s.stats[id] = entity.ProductRatingStats{ProductID: id, AvgRating: avg, RatingCount: count}
}
