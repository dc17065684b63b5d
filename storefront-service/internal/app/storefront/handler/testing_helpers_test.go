package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tapestore/storefront-service/internal/app/storefront/repository/mocks"
	"tapestore/storefront-service/internal/app/storefront/session"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

type testEnv struct {
	router   *gin.Engine
	cart     *MockCartService
	wishlist *MockWishlistService
	products *MockProductService
	guest    *MockGuestService
	auth     *MockAuthenticator
	store    *mocks.MockGuestStore
}

func newTestEnv() *testEnv {
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		cart:     new(MockCartService),
		wishlist: new(MockWishlistService),
		products: new(MockProductService),
		guest:    new(MockGuestService),
		auth:     new(MockAuthenticator),
		store:    new(mocks.MockGuestStore),
	}

	storefrontHandler := NewStorefrontHandler(env.cart, env.wishlist, env.products, env.guest)
	sessionHandler := NewSessionHandler(session.Dependencies{
		Auth:          env.auth,
		Cart:          env.cart,
		Wishlist:      env.wishlist,
		Guest:         env.store,
		NewGuestToken: func() string { return "fresh-guest-token" },
	})
	env.router = SetupRoutes(storefrontHandler, sessionHandler, NewAuthMiddleware(testJWTSecret))
	return env
}

func signToken(t *testing.T, userID int64) string {
	t.Helper()
	claims := JWTClaims{
		UserID: userID,
		Email:  "buyer@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func (env *testEnv) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}
