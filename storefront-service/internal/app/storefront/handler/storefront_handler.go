package handler

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"tapestore/storefront-service/internal/app/storefront/entity"
	"tapestore/storefront-service/internal/app/storefront/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const guestTokenHeader = "X-Guest-Token"

// StorefrontHandler обрабатывает HTTP запросы корзины, избранного, товаров и гостевого состояния
type StorefrontHandler struct {
	cartService     service.CartServiceInterface
	wishlistService service.WishlistServiceInterface
	productService  service.ProductServiceInterface
	guestService    service.GuestServiceInterface
	validator       *validator.Validate
}

// NewStorefrontHandler создает новый handler витрины
func NewStorefrontHandler(
	cartService service.CartServiceInterface,
	wishlistService service.WishlistServiceInterface,
	productService service.ProductServiceInterface,
	guestService service.GuestServiceInterface,
) *StorefrontHandler {
	return &StorefrontHandler{
		cartService:     cartService,
		wishlistService: wishlistService,
		productService:  productService,
		guestService:    guestService,
		validator:       newValidator(),
	}
}

// newValidator возвращает валидатор, сообщающий имена полей из json тегов
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// GetCart возвращает корзину текущего пользователя
// GET /cart
func (h *StorefrontHandler) GetCart(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	cart, err := h.cartService.GetCart(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

// MergeCart сливает гостевую корзину, присланную клиентом
// POST /cart/merge
func (h *StorefrontHandler) MergeCart(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req entity.MergeCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid request body"})
		return
	}

	result, err := h.cartService.MergeGuestCart(c.Request.Context(), userID, req.Lines)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// AddLine добавляет товар в корзину
// POST /cart/items
func (h *StorefrontHandler) AddLine(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req entity.AddLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondValidationError(c, err)
		return
	}

	cart, err := h.cartService.AddLine(c.Request.Context(), userID, entity.AddLineInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Variant:   entity.Variant{Color: req.Color, Width: req.Width, Length: req.Length},
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

// IncrementLine увеличивает количество в строке на 1
// POST /cart/items/:id/increment
func (h *StorefrontHandler) IncrementLine(c *gin.Context) {
	h.mutateLine(c, h.cartService.IncrementLine)
}

// DecrementLine уменьшает количество в строке на 1, но не ниже 1
// POST /cart/items/:id/decrement
func (h *StorefrontHandler) DecrementLine(c *gin.Context) {
	h.mutateLine(c, h.cartService.DecrementLine)
}

// DeleteLine удаляет строку корзины
// DELETE /cart/items/:id
func (h *StorefrontHandler) DeleteLine(c *gin.Context) {
	h.mutateLine(c, h.cartService.DeleteLine)
}

func (h *StorefrontHandler) mutateLine(c *gin.Context, op func(ctx context.Context, lineID, userID int64) (*entity.Cart, error)) {
	userID, err := currentUserID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	lineID, err := pathID(c, "id", "line_id")
	if err != nil {
		respondError(c, err)
		return
	}

	cart, err := op(c.Request.Context(), lineID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

// ClearCart очищает корзину
// DELETE /cart
func (h *StorefrontHandler) ClearCart(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	cart, err := h.cartService.Clear(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

// GetWishlist возвращает избранное текущего пользователя
// GET /wishlist
func (h *StorefrontHandler) GetWishlist(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	wishlist, err := h.wishlistService.GetWishlist(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, wishlist)
}

// MergeWishlist сливает гостевое избранное
// POST /wishlist/merge
func (h *StorefrontHandler) MergeWishlist(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req entity.MergeWishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid request body"})
		return
	}

	wishlist, err := h.wishlistService.MergeGuestWishlist(c.Request.Context(), userID, req.ProductIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, wishlist)
}

// ToggleWishlist добавляет товар в избранное или убирает его оттуда
// POST /wishlist/:product_id/toggle
func (h *StorefrontHandler) ToggleWishlist(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	productID, err := pathID(c, "product_id", "product_id")
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.wishlistService.Toggle(c.Request.Context(), userID, productID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RemoveFromWishlist убирает товар из избранного
// DELETE /wishlist/:product_id
func (h *StorefrontHandler) RemoveFromWishlist(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	productID, err := pathID(c, "product_id", "product_id")
	if err != nil {
		respondError(c, err)
		return
	}

	wishlist, err := h.wishlistService.Remove(c.Request.Context(), userID, productID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, wishlist)
}

// GetProduct возвращает товар по ID
// GET /products/:id
func (h *StorefrontHandler) GetProduct(c *gin.Context) {
	productID, err := pathID(c, "id", "product_id")
	if err != nil {
		respondError(c, err)
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// NewGuestSession выдает гостевой токен
// POST /guest/session
func (h *StorefrontHandler) NewGuestSession(c *gin.Context) {
	c.JSON(http.StatusCreated, entity.GuestSessionResponse{GuestToken: h.guestService.NewSession()})
}

// GetGuestCart возвращает гостевую корзину
// GET /guest/cart
func (h *StorefrontHandler) GetGuestCart(c *gin.Context) {
	lines, err := h.guestService.GetCart(c.Request.Context(), c.GetHeader(guestTokenHeader))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.GuestCartRequest{Lines: lines})
}

// PutGuestCart заменяет гостевую корзину
// PUT /guest/cart
func (h *StorefrontHandler) PutGuestCart(c *gin.Context) {
	var req entity.GuestCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid request body"})
		return
	}

	lines, err := h.guestService.PutCart(c.Request.Context(), c.GetHeader(guestTokenHeader), req.Lines)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.GuestCartRequest{Lines: lines})
}

// GetGuestWishlist возвращает гостевое избранное
// GET /guest/wishlist
func (h *StorefrontHandler) GetGuestWishlist(c *gin.Context) {
	ids, err := h.guestService.GetWishlist(c.Request.Context(), c.GetHeader(guestTokenHeader))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.GuestWishlistRequest{ProductIDs: ids})
}

// PutGuestWishlist заменяет гостевое избранное
// PUT /guest/wishlist
func (h *StorefrontHandler) PutGuestWishlist(c *gin.Context) {
	var req entity.GuestWishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid request body"})
		return
	}

	ids, err := h.guestService.PutWishlist(c.Request.Context(), c.GetHeader(guestTokenHeader), req.ProductIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.GuestWishlistRequest{ProductIDs: ids})
}
