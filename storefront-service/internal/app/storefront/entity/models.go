package entity

import (
	"time"
)

// Product представляет товар каталога (только чтение, используется для отображения строк корзины и избранного)
type Product struct {
	ID          int64    `json:"id" db:"id"`
	Title       string   `json:"title" db:"title"`
	PriceRaw    string   `json:"price_raw" db:"price_raw"` // Цена в исходном виде, как пришла из импорта
	Images      []string `json:"images" db:"images"`
	AvgRating   float64  `json:"avg_rating" db:"avg_rating"`
	RatingCount int      `json:"rating_count" db:"rating_count"`
}

// MaxLineQuantity - наибольшее количество в одной строке корзины
const MaxLineQuantity = 10000

// CartLine - строка серверной корзины
// Идентичность строки определяется VariantKey (товар + выбранные цвет, ширина, длина)
type CartLine struct {
	ID           int64     `json:"line_id" db:"id"`
	UserID       int64     `json:"user_id" db:"user_id"`
	ProductID    int64     `json:"product_id" db:"product_id"`
	Quantity     int       `json:"quantity" db:"quantity"` // От 1 до MaxLineQuantity
	ChosenColor  *string   `json:"chosen_color" db:"chosen_color"`
	ChosenWidth  *string   `json:"chosen_width" db:"chosen_width"`
	ChosenLength *string   `json:"chosen_length" db:"chosen_length"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// VariantKey возвращает ключ идентичности строки
func (l *CartLine) VariantKey() string {
	return VariantKey(l.ProductID, l.ChosenColor, l.ChosenWidth, l.ChosenLength)
}

// CartItem - строка корзины вместе с данными товара
type CartItem struct {
	CartLine
	Title    string   `json:"title"`
	PriceRaw string   `json:"price_raw"`
	Images   []string `json:"images"`
}

// Cart - авторитетный снимок корзины пользователя
type Cart struct {
	UserID        int64      `json:"user_id"`
	Items         []CartItem `json:"items"`
	TotalQuantity int        `json:"total_quantity"`
}

// NewCart собирает снимок корзины и считает общее количество
func NewCart(userID int64, items []CartItem) *Cart {
	if items == nil {
		items = []CartItem{}
	}
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return &Cart{UserID: userID, Items: items, TotalQuantity: total}
}

// WishlistEntry - запись избранного, уникальна по (user_id, product_id)
type WishlistEntry struct {
	UserID    int64     `json:"user_id" db:"user_id"`
	ProductID int64     `json:"product_id" db:"product_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// WishlistItem - запись избранного вместе с данными товара
type WishlistItem struct {
	ProductID int64     `json:"product_id"`
	Title     string    `json:"title"`
	PriceRaw  string    `json:"price_raw"`
	Images    []string  `json:"images"`
	AddedAt   time.Time `json:"added_at"`
}

// Wishlist - авторитетный снимок избранного пользователя
type Wishlist struct {
	UserID int64          `json:"user_id"`
	Items  []WishlistItem `json:"items"`
	Total  int            `json:"total"`
}

func NewWishlist(userID int64, items []WishlistItem) *Wishlist {
	if items == nil {
		items = []WishlistItem{}
	}
	return &Wishlist{UserID: userID, Items: items, Total: len(items)}
}

// Contains проверяет наличие товара в избранном
func (w *Wishlist) Contains(productID int64) bool {
	for _, item := range w.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// RatingEvent - событие пересчёта рейтинга товара из Reviews Service
type RatingEvent struct {
	EventType   string    `json:"event_type"` // PRODUCT_RATING_UPDATED
	ProductID   int64     `json:"product_id"`
	AvgRating   float64   `json:"avg_rating"`
	RatingCount int       `json:"rating_count"`
	Timestamp   time.Time `json:"timestamp"`
}

const EventProductRatingUpdated = "PRODUCT_RATING_UPDATED"
