package handler

import (
	"errors"
	"net/http"
	"strconv"

	"tapestore/pkg/logger"
	"tapestore/reviews-service/internal/app/reviews/entity"
	"tapestore/reviews-service/internal/app/reviews/service"

	"github.com/gin-gonic/gin"
)

// ReviewHandler обрабатывает HTTP запросы отзывов
type ReviewHandler struct {
	reviewService service.ReviewServiceInterface
}

func NewReviewHandler(reviewService service.ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
	}
}

// GetReviews возвращает отзывы товара и его статистику
// GET /products/:product_id/reviews
func (h *ReviewHandler) GetReviews(c *gin.Context) {
	productID, err := productIDParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.reviewService.GetReviews(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpsertReview создает или перезаписывает отзыв текущего пользователя
// PUT /products/:product_id/review
func (h *ReviewHandler) UpsertReview(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	productID, err := productIDParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req entity.UpsertReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.Rating == nil {
		respondError(c, &service.FieldError{Field: "rating", Reason: "is required"})
		return
	}

	stats, err := h.reviewService.UpsertReview(c.Request.Context(), userID, productID, *req.Rating, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// DeleteReview удаляет отзыв текущего пользователя
// DELETE /products/:product_id/review
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	productID, err := productIDParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.reviewService.DeleteReview(c.Request.Context(), userID, productID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func respondError(c *gin.Context, err error) {
	var fieldErr *service.FieldError
	switch {
	case errors.As(err, &fieldErr):
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: fieldErr.Error(), Field: fieldErr.Field})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "Unauthorized"})
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Product not found"})
	default:
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Internal server error"})
	}
}

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

func productIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &service.FieldError{Field: "product_id", Reason: "must be a positive integer"}
	}
	return id, nil
}
