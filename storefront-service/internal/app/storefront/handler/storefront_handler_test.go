package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"tapestore/storefront-service/internal/app/storefront/entity"
	"tapestore/storefront-service/internal/app/storefront/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func sampleCart(userID int64) *entity.Cart {
	return entity.NewCart(userID, []entity.CartItem{
		{CartLine: entity.CartLine{ID: 7, UserID: userID, ProductID: 3, Quantity: 2}, Title: "Duct tape 48mm"},
	})
}

// ===================== Auth middleware =====================

func TestCartRoutes_RequireToken(t *testing.T) {
	env := newTestEnv()

	w := env.do(t, http.MethodGet, "/cart", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/cart", nil, map[string]string{"Authorization": "Token abc"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/cart", nil, bearer("not-a-jwt"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	env.cart.AssertNotCalled(t, "GetCart", mock.Anything, mock.Anything)
}

func TestCartRoutes_RejectNonPositiveUserClaim(t *testing.T) {
	env := newTestEnv()

	w := env.do(t, http.MethodGet, "/cart", nil, bearer(signToken(t, 0)))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// ===================== Cart =====================

func TestGetCartHandler_Success(t *testing.T) {
	env := newTestEnv()
	env.cart.On("GetCart", mock.Anything, int64(42)).Return(sampleCart(42), nil)

	w := env.do(t, http.MethodGet, "/cart", nil, bearer(signToken(t, 42)))

	assert.Equal(t, http.StatusOK, w.Code)
	var cart entity.Cart
	decode(t, w, &cart)
	assert.Equal(t, int64(42), cart.UserID)
	assert.Equal(t, 2, cart.TotalQuantity)
	assert.Equal(t, int64(7), cart.Items[0].ID)
	env.cart.AssertExpectations(t)
}

func TestAddLineHandler_Success(t *testing.T) {
	env := newTestEnv()
	body := map[string]interface{}{"product_id": 3, "quantity": 2, "color": "black"}
	env.cart.On("AddLine", mock.Anything, int64(42), mock.MatchedBy(func(in entity.AddLineInput) bool {
		return in.ProductID == 3 && in.Quantity == 2 &&
			in.Variant.Color != nil && *in.Variant.Color == "black" &&
			in.Variant.Width == nil && in.Variant.Length == nil
	})).Return(sampleCart(42), nil)

	w := env.do(t, http.MethodPost, "/cart/items", body, bearer(signToken(t, 42)))

	assert.Equal(t, http.StatusOK, w.Code)
	env.cart.AssertExpectations(t)
}

func TestAddLineHandler_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  interface{}
		field string
	}{
		{"missing product", map[string]interface{}{"quantity": 1}, "product_id"},
		{"negative product", map[string]interface{}{"product_id": -1, "quantity": 1}, "product_id"},
		{"zero quantity", map[string]interface{}{"product_id": 3, "quantity": 0}, "quantity"},
		{"quantity over limit", map[string]interface{}{"product_id": 3, "quantity": 10001}, "quantity"},
		{"int32 overflow quantity", map[string]interface{}{"product_id": 3, "quantity": 2147483647}, "quantity"},
		{"long color", map[string]interface{}{"product_id": 3, "quantity": 1, "color": fmt.Sprintf("%0101d", 0)}, "color"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()

			w := env.do(t, http.MethodPost, "/cart/items", tt.body, bearer(signToken(t, 42)))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp entity.ErrorResponse
			decode(t, w, &resp)
			assert.Equal(t, tt.field, resp.Field)
			env.cart.AssertNotCalled(t, "AddLine", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAddLineHandler_InvalidJSON(t *testing.T) {
	env := newTestEnv()

	w := env.do(t, http.MethodPost, "/cart/items", "{invalid", bearer(signToken(t, 42)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddLineHandler_ProductNotFound(t *testing.T) {
	env := newTestEnv()
	env.cart.On("AddLine", mock.Anything, int64(42), mock.Anything).Return(nil, service.ErrProductNotFound)

	w := env.do(t, http.MethodPost, "/cart/items", map[string]interface{}{"product_id": 99, "quantity": 1}, bearer(signToken(t, 42)))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMergeCartHandler_ReturnsRejections(t *testing.T) {
	env := newTestEnv()
	result := &entity.MergeCartResult{
		Cart:     sampleCart(42),
		Merged:   1,
		Rejected: []entity.LineRejection{{Index: 1, Field: "quantity", Reason: "must be an integer from 1 to 10000"}},
	}
	env.cart.On("MergeGuestCart", mock.Anything, int64(42), mock.MatchedBy(func(lines []entity.GuestCartLine) bool {
		return len(lines) == 2
	})).Return(result, nil)

	body := `{"lines":[{"product_id":"3","quantity":2},{"product_id":3,"quantity":"abc"}]}`
	w := env.do(t, http.MethodPost, "/cart/merge", body, bearer(signToken(t, 42)))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp entity.MergeCartResult
	decode(t, w, &resp)
	assert.Equal(t, 1, resp.Merged)
	assert.Equal(t, "quantity", resp.Rejected[0].Field)
	env.cart.AssertExpectations(t)
}

func TestMergeCartHandler_StoreFailure(t *testing.T) {
	env := newTestEnv()
	storeErr := &service.MergeError{Index: 0, ProductID: 3, Err: errors.New("connection reset")}
	env.cart.On("MergeGuestCart", mock.Anything, int64(42), mock.Anything).Return(nil, storeErr)

	w := env.do(t, http.MethodPost, "/cart/merge", `{"lines":[{"product_id":3,"quantity":1}]}`, bearer(signToken(t, 42)))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp entity.ErrorResponse
	decode(t, w, &resp)
	assert.NotContains(t, resp.Error, "connection reset")
}

func TestLineMutationHandlers_RouteToService(t *testing.T) {
	tests := []struct {
		method string
		path   string
		op     string
	}{
		{http.MethodPost, "/cart/items/7/increment", "IncrementLine"},
		{http.MethodPost, "/cart/items/7/decrement", "DecrementLine"},
		{http.MethodDelete, "/cart/items/7", "DeleteLine"},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			env := newTestEnv()
			env.cart.On(tt.op, mock.Anything, int64(7), int64(42)).Return(sampleCart(42), nil)

			w := env.do(t, tt.method, tt.path, nil, bearer(signToken(t, 42)))

			assert.Equal(t, http.StatusOK, w.Code)
			env.cart.AssertExpectations(t)
		})
	}
}

func TestIncrementLineHandler_InvalidLineID(t *testing.T) {
	for _, id := range []string{"abc", "0", "-3"} {
		t.Run(id, func(t *testing.T) {
			env := newTestEnv()

			w := env.do(t, http.MethodPost, "/cart/items/"+id+"/increment", nil, bearer(signToken(t, 42)))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp entity.ErrorResponse
			decode(t, w, &resp)
			assert.Equal(t, "line_id", resp.Field)
		})
	}
}

func TestDecrementLineHandler_ForeignLine(t *testing.T) {
	env := newTestEnv()
	env.cart.On("DecrementLine", mock.Anything, int64(7), int64(42)).Return(nil, service.ErrLineNotFound)

	w := env.do(t, http.MethodPost, "/cart/items/7/decrement", nil, bearer(signToken(t, 42)))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClearCartHandler_Success(t *testing.T) {
	env := newTestEnv()
	env.cart.On("Clear", mock.Anything, int64(42)).Return(entity.NewCart(42, nil), nil)

	w := env.do(t, http.MethodDelete, "/cart", nil, bearer(signToken(t, 42)))

	assert.Equal(t, http.StatusOK, w.Code)
	var cart entity.Cart
	decode(t, w, &cart)
	assert.Empty(t, cart.Items)
	assert.NotNil(t, cart.Items)
}

// ===================== Wishlist =====================

func TestToggleWishlistHandler_Added(t *testing.T) {
	env := newTestEnv()
	wl := entity.NewWishlist(42, []entity.WishlistItem{{ProductID: 5}})
	env.wishlist.On("Toggle", mock.Anything, int64(42), int64(5)).Return(&entity.ToggleResult{Wishlist: wl, Added: true}, nil)

	w := env.do(t, http.MethodPost, "/wishlist/5/toggle", nil, bearer(signToken(t, 42)))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp entity.ToggleResult
	decode(t, w, &resp)
	assert.True(t, resp.Added)
	assert.True(t, resp.Wishlist.Contains(5))
}

func TestToggleWishlistHandler_UnknownProduct(t *testing.T) {
	env := newTestEnv()
	env.wishlist.On("Toggle", mock.Anything, int64(42), int64(5)).Return(nil, service.ErrProductNotFound)

	w := env.do(t, http.MethodPost, "/wishlist/5/toggle", nil, bearer(signToken(t, 42)))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRemoveFromWishlistHandler_Success(t *testing.T) {
	env := newTestEnv()
	env.wishlist.On("Remove", mock.Anything, int64(42), int64(5)).Return(entity.NewWishlist(42, nil), nil)

	w := env.do(t, http.MethodDelete, "/wishlist/5", nil, bearer(signToken(t, 42)))

	assert.Equal(t, http.StatusOK, w.Code)
	env.wishlist.AssertExpectations(t)
}

func TestMergeWishlistHandler_PassesRawIDs(t *testing.T) {
	env := newTestEnv()
	env.wishlist.On("MergeGuestWishlist", mock.Anything, int64(42), mock.MatchedBy(func(ids []entity.LooseValue) bool {
		return len(ids) == 3
	})).Return(entity.NewWishlist(42, []entity.WishlistItem{{ProductID: 1}, {ProductID: 2}}), nil)

	w := env.do(t, http.MethodPost, "/wishlist/merge", `{"product_ids":[1,"2",{"id":1}]}`, bearer(signToken(t, 42)))

	assert.Equal(t, http.StatusOK, w.Code)
	var wl entity.Wishlist
	decode(t, w, &wl)
	assert.Equal(t, 2, wl.Total)
}

// ===================== Products =====================

func TestGetProductHandler(t *testing.T) {
	env := newTestEnv()
	env.products.On("GetProduct", mock.Anything, int64(3)).Return(&entity.Product{ID: 3, Title: "Masking tape"}, nil)
	env.products.On("GetProduct", mock.Anything, int64(4)).Return(nil, service.ErrProductNotFound)

	w := env.do(t, http.MethodGet, "/products/3", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/products/4", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/products/x", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ===================== Guest =====================

func TestNewGuestSessionHandler(t *testing.T) {
	env := newTestEnv()
	env.guest.On("NewSession").Return("3f8a9c1e-0000-4000-8000-000000000001")

	w := env.do(t, http.MethodPost, "/guest/session", nil, nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp entity.GuestSessionResponse
	decode(t, w, &resp)
	assert.Equal(t, "3f8a9c1e-0000-4000-8000-000000000001", resp.GuestToken)
}

func TestPutGuestCartHandler_UsesHeaderToken(t *testing.T) {
	env := newTestEnv()
	token := "3f8a9c1e-0000-4000-8000-000000000001"
	lines := []entity.GuestCartLine{{ProductID: entity.LooseInt(3), Quantity: entity.LooseInt(1)}}
	env.guest.On("PutCart", mock.Anything, token, mock.Anything).Return(lines, nil)

	w := env.do(t, http.MethodPut, "/guest/cart", `{"lines":[{"product_id":3,"quantity":1}]}`, map[string]string{guestTokenHeader: token})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"lines":[{"product_id":3,"quantity":1}]}`, w.Body.String())
	env.guest.AssertExpectations(t)
}

func TestGetGuestCartHandler_MissingToken(t *testing.T) {
	env := newTestEnv()
	env.guest.On("GetCart", mock.Anything, "").Return(nil, &service.FieldError{Field: "guest_token", Reason: "required"})

	w := env.do(t, http.MethodGet, "/guest/cart", nil, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp entity.ErrorResponse
	decode(t, w, &resp)
	assert.Equal(t, "guest_token", resp.Field)
}

func TestPutGuestWishlistHandler_TooManyItems(t *testing.T) {
	env := newTestEnv()
	env.guest.On("PutWishlist", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &service.FieldError{Field: "product_ids", Reason: "at most 200 items allowed"})

	w := env.do(t, http.MethodPut, "/guest/wishlist", `{"product_ids":[1]}`, map[string]string{guestTokenHeader: "t"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthHandler(t *testing.T) {
	env := newTestEnv()

	w := env.do(t, http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","service":"storefront-service"}`, w.Body.String())
}
