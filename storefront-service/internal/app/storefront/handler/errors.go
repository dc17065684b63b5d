package handler

import (
	"errors"
	"net/http"
	"strconv"

	"tapestore/pkg/logger"
	"tapestore/storefront-service/internal/app/storefront/entity"
	"tapestore/storefront-service/internal/app/storefront/service"
	"tapestore/storefront-service/internal/app/storefront/session"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// respondError переводит ошибку сервисного слоя в HTTP статус
func respondError(c *gin.Context, err error) {
	var fieldErr *service.FieldError
	switch {
	case errors.As(err, &fieldErr):
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: fieldErr.Error(), Field: fieldErr.Field})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "Unauthorized"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "Invalid email or password"})
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Product not found"})
	case errors.Is(err, service.ErrLineNotFound):
		c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Cart line not found"})
	case errors.Is(err, service.ErrUserExists):
		c.JSON(http.StatusConflict, entity.ErrorResponse{Error: "User with this email already exists"})
	case errors.Is(err, service.ErrAlreadyAuthenticated):
		c.JSON(http.StatusConflict, entity.ErrorResponse{Error: "Session already authenticated"})
	case errors.Is(err, session.ErrMergeFailed):
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("guest merge failed")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to merge guest cart, please retry"})
	default:
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Internal server error"})
	}
}

func respondValidationError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		fe := validationErrors[0]
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: fe.Field() + " is " + fe.Tag(), Field: fe.Field()})
		return
	}
	c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Validation failed"})
}

// currentUserID достает пользователя, установленного AuthMiddleware
func currentUserID(c *gin.Context) (int64, error) {
	value, exists := c.Get(contextUserID)
	if !exists {
		return 0, service.ErrUnauthorized
	}
	userID, ok := value.(int64)
	if !ok || userID <= 0 {
		return 0, service.ErrUnauthorized
	}
	return userID, nil
}

// pathID разбирает положительный целый параметр пути
func pathID(c *gin.Context, param, field string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		return 0, &service.FieldError{Field: field, Reason: "must be a positive integer"}
	}
	return id, nil
}
