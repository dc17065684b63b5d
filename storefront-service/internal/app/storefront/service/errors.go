package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrProductNotFound      = errors.New("product not found")
	ErrLineNotFound         = errors.New("cart line not found")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrUserExists           = errors.New("user with this email already exists")
	ErrAlreadyAuthenticated = errors.New("session already authenticated")
	ErrNotAuthenticated     = errors.New("session not authenticated")
)

// FieldError - ошибка валидации конкретного поля
// errors.Is(err, ErrInvalidInput) == true
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *FieldError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalidField(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

// MergeError - ошибка хранилища на строке гостевой корзины
// Транзакция откатывается целиком, ни одна строка пакета не сохранена
type MergeError struct {
	Index     int
	ProductID int64
	Err       error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("guest cart merge aborted at line %d (product %d), nothing committed: %v", e.Index, e.ProductID, e.Err)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}
