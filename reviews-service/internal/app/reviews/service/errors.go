package service

import (
	"errors"
	"fmt"
)

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrProductNotFound = errors.New("product not found")
)

// FieldError - ошибка валидации конкретного поля
// errors.Is(err, ErrInvalidInput) для неё истинно
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
