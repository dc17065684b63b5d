package service

import (
	"context"

	"tapestore/storefront-service/internal/app/storefront/entity"
)

type CartServiceInterface interface {
	MergeGuestCart(ctx context.Context, userID int64, lines []entity.GuestCartLine) (*entity.MergeCartResult, error)
	AddLine(ctx context.Context, userID int64, in entity.AddLineInput) (*entity.Cart, error)
	IncrementLine(ctx context.Context, lineID, userID int64) (*entity.Cart, error)
	DecrementLine(ctx context.Context, lineID, userID int64) (*entity.Cart, error)
	DeleteLine(ctx context.Context, lineID, userID int64) (*entity.Cart, error)
	Clear(ctx context.Context, userID int64) (*entity.Cart, error)
	GetCart(ctx context.Context, userID int64) (*entity.Cart, error)
}

type WishlistServiceInterface interface {
	MergeGuestWishlist(ctx context.Context, userID int64, productIDs []entity.LooseValue) (*entity.Wishlist, error)
	Toggle(ctx context.Context, userID, productID int64) (*entity.ToggleResult, error)
	Remove(ctx context.Context, userID, productID int64) (*entity.Wishlist, error)
	GetWishlist(ctx context.Context, userID int64) (*entity.Wishlist, error)
}

type ProductServiceInterface interface {
	GetProduct(ctx context.Context, id int64) (*entity.Product, error)
	InvalidateProduct(ctx context.Context, id int64) error
}

type GuestServiceInterface interface {
	NewSession() string
	GetCart(ctx context.Context, token string) ([]entity.GuestCartLine, error)
	PutCart(ctx context.Context, token string, lines []entity.GuestCartLine) ([]entity.GuestCartLine, error)
	GetWishlist(ctx context.Context, token string) ([]entity.LooseValue, error)
	PutWishlist(ctx context.Context, token string, productIDs []entity.LooseValue) ([]entity.LooseValue, error)
	Clear(ctx context.Context, token string) error
}
