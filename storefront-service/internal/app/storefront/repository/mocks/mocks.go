package mocks

import (
	"context"

	"tapestore/storefront-service/internal/app/storefront/entity"

	"github.com/stretchr/testify/mock"
)

// MockProductRepository мок для ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockProductRepository) ExistingIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]bool), args.Error(1)
}

// MockProductCache мок для ProductCache
type MockProductCache struct {
	mock.Mock
}

func (m *MockProductCache) Get(ctx context.Context, id int64) (*entity.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockProductCache) Set(ctx context.Context, product *entity.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductCache) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockGuestStore мок для GuestStore
type MockGuestStore struct {
	mock.Mock
}

func (m *MockGuestStore) ReadCart(ctx context.Context, token string) ([]entity.GuestCartLine, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.GuestCartLine), args.Error(1)
}

func (m *MockGuestStore) WriteCart(ctx context.Context, token string, lines []entity.GuestCartLine) error {
	args := m.Called(ctx, token, lines)
	return args.Error(0)
}

func (m *MockGuestStore) ReadWishlist(ctx context.Context, token string) ([]entity.LooseValue, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.LooseValue), args.Error(1)
}

func (m *MockGuestStore) WriteWishlist(ctx context.Context, token string, productIDs []entity.LooseValue) error {
	args := m.Called(ctx, token, productIDs)
	return args.Error(0)
}

func (m *MockGuestStore) Clear(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// MockCartRepository мок для CartRepository
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) UpsertLine(ctx context.Context, line *entity.CartLine) (*entity.CartLine, error) {
	args := m.Called(ctx, line)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.CartLine), args.Error(1)
}

func (m *MockCartRepository) GetLine(ctx context.Context, lineID, userID int64) (*entity.CartLine, error) {
	args := m.Called(ctx, lineID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.CartLine), args.Error(1)
}

func (m *MockCartRepository) IncrementLine(ctx context.Context, lineID, userID int64) (bool, error) {
	args := m.Called(ctx, lineID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCartRepository) DecrementLine(ctx context.Context, lineID, userID int64) (bool, error) {
	args := m.Called(ctx, lineID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCartRepository) DeleteLine(ctx context.Context, lineID, userID int64) (bool, error) {
	args := m.Called(ctx, lineID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCartRepository) DeleteAll(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCartRepository) GetCart(ctx context.Context, userID int64) ([]entity.CartItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.CartItem), args.Error(1)
}

// MockWishlistRepository мок для WishlistRepository
type MockWishlistRepository struct {
	mock.Mock
}

func (m *MockWishlistRepository) Add(ctx context.Context, userID, productID int64) (bool, error) {
	args := m.Called(ctx, userID, productID)
	return args.Bool(0), args.Error(1)
}

func (m *MockWishlistRepository) Remove(ctx context.Context, userID, productID int64) (bool, error) {
	args := m.Called(ctx, userID, productID)
	return args.Bool(0), args.Error(1)
}

func (m *MockWishlistRepository) GetWishlist(ctx context.Context, userID int64) ([]entity.WishlistItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.WishlistItem), args.Error(1)
}

// PassthroughTransactor выполняет fn без транзакции
type PassthroughTransactor struct{}

func (PassthroughTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
