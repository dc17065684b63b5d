package repository

import (
	"context"
	"errors"

	"tapestore/storefront-service/internal/app/storefront/entity"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrLineNotFound    = errors.New("cart line not found")
	ErrProductNotFound = errors.New("product not found")
	ErrForeignKey      = errors.New("foreign key violation")
)

// CartRepository - строки серверной корзины
type CartRepository interface {
	// UpsertLine атомарно увеличивает количество строки с тем же VariantKey
	// или вставляет новую строку
	UpsertLine(ctx context.Context, line *entity.CartLine) (*entity.CartLine, error)
	GetLine(ctx context.Context, lineID, userID int64) (*entity.CartLine, error)
	IncrementLine(ctx context.Context, lineID, userID int64) (bool, error)
	// DecrementLine уменьшает количество только если оно больше 1
	DecrementLine(ctx context.Context, lineID, userID int64) (bool, error)
	DeleteLine(ctx context.Context, lineID, userID int64) (bool, error)
	DeleteAll(ctx context.Context, userID int64) (int64, error)
	GetCart(ctx context.Context, userID int64) ([]entity.CartItem, error)
}

// WishlistRepository - серверное избранное
type WishlistRepository interface {
	// Add вставляет запись, дубликат игнорируется; возвращает true если запись новая
	Add(ctx context.Context, userID, productID int64) (bool, error)
	Remove(ctx context.Context, userID, productID int64) (bool, error)
	GetWishlist(ctx context.Context, userID int64) ([]entity.WishlistItem, error)
}

// ProductRepository - товары каталога (только чтение)
type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	ExistingIDs(ctx context.Context, ids []int64) (map[int64]bool, error)
}

// Transactor выполняет fn в одной транзакции; репозитории внутри fn
// берут транзакцию из контекста
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// GuestStore - серверное зеркало гостевой корзины и избранного по гостевому токену
type GuestStore interface {
	ReadCart(ctx context.Context, token string) ([]entity.GuestCartLine, error)
	WriteCart(ctx context.Context, token string, lines []entity.GuestCartLine) error
	ReadWishlist(ctx context.Context, token string) ([]entity.LooseValue, error)
	WriteWishlist(ctx context.Context, token string, productIDs []entity.LooseValue) error
	Clear(ctx context.Context, token string) error
}

// ProductCache - кеш карточек товаров
// Get возвращает nil, nil при промахе
type ProductCache interface {
	Get(ctx context.Context, id int64) (*entity.Product, error)
	Set(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, id int64) error
}
