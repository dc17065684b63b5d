package mocks

import (
	"context"
	"sync"

	"tapestore/reviews-service/internal/app/reviews/entity"

	"github.com/stretchr/testify/mock"
)

// MockReviewRepository мок для ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Upsert(ctx context.Context, review *entity.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) Delete(ctx context.Context, userID, productID int64) (bool, error) {
	args := m.Called(ctx, userID, productID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReviewRepository) GetByProduct(ctx context.Context, productID int64) ([]entity.Review, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Review), args.Error(1)
}

func (m *MockReviewRepository) AggregateStats(ctx context.Context, productID int64) (float64, int, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(float64), args.Int(1), args.Error(2)
}

func (m *MockReviewRepository) ProductIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockRatingRepository мок для RatingRepository
type MockRatingRepository struct {
	mock.Mock
}

func (m *MockRatingRepository) Save(ctx context.Context, stats *entity.ProductRatingStats) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}

func (m *MockRatingRepository) Get(ctx context.Context, productID int64) (*entity.ProductRatingStats, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ProductRatingStats), args.Error(1)
}

func (m *MockRatingRepository) ProductIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockProductStatsRepository мок для ProductStatsRepository
type MockProductStatsRepository struct {
	mock.Mock
}

func (m *MockProductStatsRepository) Exists(ctx context.Context, productID int64) (bool, error) {
	args := m.Called(ctx, productID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductStatsRepository) UpdateStats(ctx context.Context, stats *entity.ProductRatingStats) (bool, error) {
	args := m.Called(ctx, stats)
	return args.Bool(0), args.Error(1)
}

// MockMessagePublisher мок для Kafka producer, сохраняет отправленные сообщения
type MockMessagePublisher struct {
	mock.Mock
	mu       sync.Mutex
	Messages [][]byte
}

func (m *MockMessagePublisher) PublishMessage(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	if args.Error(0) == nil {
		m.mu.Lock()
		m.Messages = append(m.Messages, value)
		m.mu.Unlock()
	}
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// PassthroughLocker выполняет функцию без блокировки и считает вызовы по ключам
type PassthroughLocker struct {
	mu   sync.Mutex
	Keys []string
	Err  error
}

func (l *PassthroughLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	l.Keys = append(l.Keys, key)
	l.mu.Unlock()
	if l.Err != nil {
		return l.Err
	}
	return fn(ctx)
}
