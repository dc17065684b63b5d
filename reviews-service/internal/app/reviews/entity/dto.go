package entity

// UpsertReviewRequest - запрос на создание или перезапись отзыва
// rating разбирается как число, целочисленность и диапазон проверяет сервис
type UpsertReviewRequest struct {
	Rating  *float64 `json:"rating"`
	Comment *string  `json:"comment"`
}

// ReviewListResponse - отзывы товара (новые первыми) вместе со статистикой
type ReviewListResponse struct {
	Reviews []Review            `json:"reviews"`
	Total   int                 `json:"total"`
	Stats   *ProductRatingStats `json:"stats"`
}

// DeleteReviewResponse - результат удаления отзыва
type DeleteReviewResponse struct {
	Deleted bool                `json:"deleted"`
	Stats   *ProductRatingStats `json:"stats"`
}

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
