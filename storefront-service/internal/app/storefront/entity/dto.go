package entity

// GuestCartLine - строка гостевой корзины в том виде, в каком её хранит клиент
// product_id и quantity слабо типизированы и нормализуются при слиянии
type GuestCartLine struct {
	ProductID LooseValue `json:"product_id"`
	Quantity  LooseValue `json:"quantity"`
	Color     *string    `json:"color,omitempty"`
	Width     *string    `json:"width,omitempty"`
	Length    *string    `json:"length,omitempty"`
}

// Variant возвращает выбранные параметры строки
func (l GuestCartLine) Variant() Variant {
	return Variant{Color: l.Color, Width: l.Width, Length: l.Length}
}

// LineRejection - строка гостевой корзины, отклоненная при слиянии
type LineRejection struct {
	Index  int    `json:"index"` // Позиция во входном списке
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// MergeCartResult - результат слияния гостевой корзины
type MergeCartResult struct {
	Cart     *Cart           `json:"cart"`
	Merged   int             `json:"merged"`
	Skipped  int             `json:"skipped"`
	Rejected []LineRejection `json:"rejected"`
}

// ToggleResult - результат переключения товара в избранном
type ToggleResult struct {
	Wishlist *Wishlist `json:"wishlist"`
	Added    bool      `json:"added"`
}

// MergeCartRequest - запрос на слияние гостевой корзины
type MergeCartRequest struct {
	Lines []GuestCartLine `json:"lines"`
}

// MergeWishlistRequest - запрос на слияние гостевого избранного
type MergeWishlistRequest struct {
	ProductIDs []LooseValue `json:"product_ids"`
}

// AddLineRequest - запрос на добавление товара в корзину
type AddLineRequest struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  int     `json:"quantity" validate:"required,min=1,max=10000"`
	Color     *string `json:"color,omitempty" validate:"omitempty,max=100"`
	Width     *string `json:"width,omitempty" validate:"omitempty,max=100"`
	Length    *string `json:"length,omitempty" validate:"omitempty,max=100"`
}

// AddLineInput - параметры добавления строки для сервисного слоя
type AddLineInput struct {
	ProductID int64
	Quantity  int
	Variant   Variant
}

// GuestCartRequest - замена гостевой корзины целиком (write-through с клиента)
type GuestCartRequest struct {
	Lines []GuestCartLine `json:"lines"`
}

// GuestWishlistRequest - замена гостевого избранного целиком
type GuestWishlistRequest struct {
	ProductIDs []LooseValue `json:"product_ids"`
}

// GuestSessionResponse - ответ с новым гостевым токеном
type GuestSessionResponse struct {
	GuestToken string `json:"guest_token"`
}

// LoginRequest - запрос на вход
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest - запрос на регистрацию
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,min=2"`
}

// SessionResponse - состояние сессии после входа, регистрации или выхода
type SessionResponse struct {
	State        string `json:"state"`
	UserID       int64  `json:"user_id,omitempty"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	GuestToken   string `json:"guest_token,omitempty"`
	// GuestTokenRevoked - присланный X-Guest-Token больше нельзя использовать
	GuestTokenRevoked bool            `json:"guest_token_revoked,omitempty"`
	Cart              *Cart           `json:"cart"`
	Wishlist          *Wishlist       `json:"wishlist"`
	Rejected          []LineRejection `json:"rejected_lines,omitempty"`
}

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
