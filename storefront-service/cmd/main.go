package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"tapestore/pkg/logger"
	"tapestore/pkg/redislock"
	"tapestore/storefront-service/internal/app/storefront/config"
	"tapestore/storefront-service/internal/app/storefront/handler"
	authclient "tapestore/storefront-service/internal/app/storefront/infrastructure/http"
	"tapestore/storefront-service/internal/app/storefront/infrastructure/messaging"
	"tapestore/storefront-service/internal/app/storefront/repository"
	"tapestore/storefront-service/internal/app/storefront/service"
	"tapestore/storefront-service/internal/app/storefront/session"
)

const serviceName = "storefront-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(serviceName, cfg.Log.Level)
	if cfg.Log.LogstashAddr != "" {
		if err := logger.InitLogstash(cfg.Log.LogstashAddr, serviceName, cfg.Log.Level); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		} else {
			logger.Info().Str("logstash_addr", cfg.Log.LogstashAddr).Msg("Connected to Logstash")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === ПОДКЛЮЧЕНИЕ К POSTGRESQL ===
	db, err := connectDB(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := repository.EnsureSchema(ctx, db); err != nil {
		logger.Fatal().Err(err).Msg("Failed to apply database schema")
	}
	logger.Info().Str("database", cfg.Database.DBName).Msg("Connected to PostgreSQL")

	// === ПОДКЛЮЧЕНИЕ К REDIS ===
	// Гостевое состояние, кеш товаров и блокировки слияния
	redisClient, err := connectRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()
	logger.Info().Str("address", cfg.Redis.Address()).Msg("Connected to Redis")

	// === РЕПОЗИТОРИИ ===
	cartRepo := repository.NewCartRepository(db)
	wishlistRepo := repository.NewWishlistRepository(db)
	productRepo := repository.NewProductRepository(db)
	txManager := repository.NewTxManager(db)
	guestStore := repository.NewGuestStore(redisClient, cfg.Guest.StateTTL)
	productCache := repository.NewProductCache(redisClient, cfg.Redis.ProductCacheTTL)

	// === СЕРВИСЫ ===
	cartService := service.NewCartService(cartRepo, productRepo, txManager)
	wishlistService := service.NewWishlistService(wishlistRepo, productRepo, txManager)
	productService := service.NewProductService(productRepo, productCache)
	guestService := service.NewGuestService(guestStore)

	// === KAFKA CONSUMER ===
	// Сбрасывает кеш товара при пересчёте рейтинга в Reviews Service
	ratingConsumer := messaging.NewRatingConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, productService)
	ratingConsumer.Start(ctx)

	// === ГРАНИЦА СЕССИИ ===
	sessionDeps := session.Dependencies{
		Auth:          authclient.NewAuthClient(cfg.Auth.BaseURL, cfg.Auth.Timeout),
		Cart:          cartService,
		Wishlist:      wishlistService,
		Guest:         guestStore,
		Tx:            txManager,
		Locker:        redislock.NewLocker(redisClient, serviceName, cfg.Guest.MergeLockTTL, cfg.Guest.MergeLockTimeout),
		NewGuestToken: guestService.NewSession,
	}

	// === HTTP ===
	authMiddleware := handler.NewAuthMiddleware(cfg.JWT.Secret)
	storefrontHandler := handler.NewStorefrontHandler(cartService, wishlistService, productService, guestService)
	sessionHandler := handler.NewSessionHandler(sessionDeps)
	router := handler.SetupRoutes(storefrontHandler, sessionHandler, authMiddleware)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("address", cfg.Server.Address()).Msg("Starting Storefront Service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// === GRACEFUL SHUTDOWN ===
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Storefront Service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	cancel()
	ratingConsumer.Stop()

	logger.Info().Msg("Storefront Service stopped gracefully")
}

// connectDB устанавливает соединение с PostgreSQL через pgx pool
// Повторяет попытки: в Docker PostgreSQL может подняться позже сервиса
func connectDB(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 5 * time.Minute
	poolConfig.MaxConnIdleTime = 1 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	var pool *pgxpool.Pool
	for i := 0; i < 10; i++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		logger.Warn().Int("attempt", i+1).Err(err).Msg("Failed to connect to database, retrying...")
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect after 10 attempts: %w", err)
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
