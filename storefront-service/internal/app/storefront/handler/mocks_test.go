package handler

import (
	"context"

	"tapestore/storefront-service/internal/app/storefront/entity"
	"tapestore/storefront-service/internal/app/storefront/session"

	"github.com/stretchr/testify/mock"
)

// MockCartService мок для CartService в тестах handler
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) cart(args mock.Arguments) (*entity.Cart, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Cart), args.Error(1)
}

func (m *MockCartService) MergeGuestCart(ctx context.Context, userID int64, lines []entity.GuestCartLine) (*entity.MergeCartResult, error) {
	args := m.Called(ctx, userID, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.MergeCartResult), args.Error(1)
}

func (m *MockCartService) AddLine(ctx context.Context, userID int64, in entity.AddLineInput) (*entity.Cart, error) {
	return m.cart(m.Called(ctx, userID, in))
}

func (m *MockCartService) IncrementLine(ctx context.Context, lineID, userID int64) (*entity.Cart, error) {
	return m.cart(m.Called(ctx, lineID, userID))
}

func (m *MockCartService) DecrementLine(ctx context.Context, lineID, userID int64) (*entity.Cart, error) {
	return m.cart(m.Called(ctx, lineID, userID))
}

func (m *MockCartService) DeleteLine(ctx context.Context, lineID, userID int64) (*entity.Cart, error) {
	return m.cart(m.Called(ctx, lineID, userID))
}

func (m *MockCartService) Clear(ctx context.Context, userID int64) (*entity.Cart, error) {
	return m.cart(m.Called(ctx, userID))
}

func (m *MockCartService) GetCart(ctx context.Context, userID int64) (*entity.Cart, error) {
	return m.cart(m.Called(ctx, userID))
}

// MockWishlistService мок для WishlistService
type MockWishlistService struct {
	mock.Mock
}

func (m *MockWishlistService) wishlist(args mock.Arguments) (*entity.Wishlist, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Wishlist), args.Error(1)
}

func (m *MockWishlistService) MergeGuestWishlist(ctx context.Context, userID int64, productIDs []entity.LooseValue) (*entity.Wishlist, error) {
	return m.wishlist(m.Called(ctx, userID, productIDs))
}

func (m *MockWishlistService) Toggle(ctx context.Context, userID, productID int64) (*entity.ToggleResult, error) {
	args := m.Called(ctx, userID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ToggleResult), args.Error(1)
}

func (m *MockWishlistService) Remove(ctx context.Context, userID, productID int64) (*entity.Wishlist, error) {
	return m.wishlist(m.Called(ctx, userID, productID))
}

func (m *MockWishlistService) GetWishlist(ctx context.Context, userID int64) (*entity.Wishlist, error) {
	return m.wishlist(m.Called(ctx, userID))
}

// MockProductService мок для ProductService
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) GetProduct(ctx context.Context, id int64) (*entity.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockProductService) InvalidateProduct(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// MockGuestService мок для GuestService
type MockGuestService struct {
	mock.Mock
}

func (m *MockGuestService) NewSession() string {
	return m.Called().String(0)
}

func (m *MockGuestService) GetCart(ctx context.Context, token string) ([]entity.GuestCartLine, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.GuestCartLine), args.Error(1)
}

func (m *MockGuestService) PutCart(ctx context.Context, token string, lines []entity.GuestCartLine) ([]entity.GuestCartLine, error) {
	args := m.Called(ctx, token, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.GuestCartLine), args.Error(1)
}

func (m *MockGuestService) GetWishlist(ctx context.Context, token string) ([]entity.LooseValue, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.LooseValue), args.Error(1)
}

func (m *MockGuestService) PutWishlist(ctx context.Context, token string, productIDs []entity.LooseValue) ([]entity.LooseValue, error) {
	args := m.Called(ctx, token, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.LooseValue), args.Error(1)
}

func (m *MockGuestService) Clear(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

// MockAuthenticator мок для внешнего Auth Service
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, creds session.Credentials) (*session.Identity, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Identity), args.Error(1)
}

func (m *MockAuthenticator) Register(ctx context.Context, creds session.Credentials) (*session.Identity, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Identity), args.Error(1)
}

func (m *MockAuthenticator) Logout(ctx context.Context, accessToken string) error {
	return m.Called(ctx, accessToken).Error(0)
}
