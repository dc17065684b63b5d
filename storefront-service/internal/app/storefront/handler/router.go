package handler

import (
	"net/http"

	"tapestore/pkg/logger"
	"tapestore/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes настраивает все маршруты Storefront Service
// Гостевые и сессионные маршруты публичные, корзина и избранное требуют JWT
func SetupRoutes(storefrontHandler *StorefrontHandler, sessionHandler *SessionHandler, authMiddleware *AuthMiddleware) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(logger.GinLoggerMiddleware())
	router.Use(metrics.GinPrometheusMiddleware("storefront-service"))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", guestTokenHeader},
		ExposeHeaders:    []string{"Link"},
		AllowCredentials: true,
		AllowWildcard:    true,
		MaxAge:           300,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "storefront-service",
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/products/:id", storefrontHandler.GetProduct)

	// Гостевое состояние по заголовку X-Guest-Token
	guest := router.Group("/guest")
	{
		guest.POST("/session", storefrontHandler.NewGuestSession)
		guest.GET("/cart", storefrontHandler.GetGuestCart)
		guest.PUT("/cart", storefrontHandler.PutGuestCart)
		guest.GET("/wishlist", storefrontHandler.GetGuestWishlist)
		guest.PUT("/wishlist", storefrontHandler.PutGuestWishlist)
	}

	sessions := router.Group("/session")
	{
		sessions.POST("/login", sessionHandler.Login)
		sessions.POST("/register", sessionHandler.Register)
		sessions.POST("/logout", authMiddleware.Authenticate(), sessionHandler.Logout)
	}

	cart := router.Group("/cart")
	cart.Use(authMiddleware.Authenticate())
	{
		cart.GET("", storefrontHandler.GetCart)
		cart.DELETE("", storefrontHandler.ClearCart)
		cart.POST("/merge", storefrontHandler.MergeCart)
		cart.POST("/items", storefrontHandler.AddLine)
		cart.POST("/items/:id/increment", storefrontHandler.IncrementLine)
		cart.POST("/items/:id/decrement", storefrontHandler.DecrementLine)
		cart.DELETE("/items/:id", storefrontHandler.DeleteLine)
	}

	wishlist := router.Group("/wishlist")
	wishlist.Use(authMiddleware.Authenticate())
	{
		wishlist.GET("", storefrontHandler.GetWishlist)
		wishlist.POST("/merge", storefrontHandler.MergeWishlist)
		wishlist.POST("/:product_id/toggle", storefrontHandler.ToggleWishlist)
		wishlist.DELETE("/:product_id", storefrontHandler.RemoveFromWishlist)
	}

	return router
}
