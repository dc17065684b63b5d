package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config содержит все настройки Storefront Service
// Включает конфигурацию для HTTP сервера, PostgreSQL, Redis, Kafka, JWT и Auth Service
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	JWT      JWTConfig
	Auth     AuthServiceConfig
	Guest    GuestConfig
	Log      LogConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Host string
	Port string // по умолчанию 8084
}

// DatabaseConfig - PostgreSQL с товарами, корзинами и избранным
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig - гостевое состояние, кеш товаров и блокировки слияния
type RedisConfig struct {
	Host            string
	Port            string
	Password        string
	DB              int
	ProductCacheTTL time.Duration
}

// KafkaConfig - чтение событий пересчёта рейтинга
type KafkaConfig struct {
	Brokers []string
	Topic   string // review_events
	GroupID string
}

// JWTConfig - проверка токенов, выпущенных Auth Service
type JWTConfig struct {
	Secret string
}

// AuthServiceConfig - адрес Auth Service для входа, регистрации и выхода
type AuthServiceConfig struct {
	BaseURL string
	Timeout time.Duration
}

// GuestConfig - параметры гостевой сессии
type GuestConfig struct {
	StateTTL         time.Duration // сколько живет гостевое состояние
	MergeLockTTL     time.Duration
	MergeLockTimeout time.Duration
}

type LogConfig struct {
	Level        string
	LogstashAddr string // пусто - только stdout
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	productCacheTTL, err := getEnvDuration("PRODUCT_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	authTimeout, err := getEnvDuration("AUTH_SERVICE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	guestTTL, err := getEnvDuration("GUEST_STATE_TTL", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}
	lockTTL, err := getEnvDuration("GUEST_MERGE_LOCK_TTL", 10*time.Second)
	if err != nil {
		return nil, err
	}
	lockTimeout, err := getEnvDuration("GUEST_MERGE_LOCK_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8084"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "storefront_service"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:            getEnv("REDIS_HOST", "localhost"),
			Port:            getEnv("REDIS_PORT", "6379"),
			Password:        getEnv("REDIS_PASSWORD", ""),
			DB:              redisDB,
			ProductCacheTTL: productCacheTTL,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:   getEnv("KAFKA_TOPIC", "review_events"),
			GroupID: getEnv("KAFKA_GROUP_ID", "storefront-service"),
		},
		JWT: JWTConfig{
			// Должен совпадать с Auth Service
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
		},
		Auth: AuthServiceConfig{
			BaseURL: strings.TrimRight(getEnv("AUTH_SERVICE_URL", "http://localhost:8080"), "/"),
			Timeout: authTimeout,
		},
		Guest: GuestConfig{
			StateTTL:         guestTTL,
			MergeLockTTL:     lockTTL,
			MergeLockTimeout: lockTimeout,
		},
		Log: LogConfig{
			Level:        getEnv("LOG_LEVEL", "info"),
			LogstashAddr: getEnv("LOGSTASH_ADDR", ""),
		},
	}, nil
}

// DSN возвращает строку подключения к PostgreSQL для pgx
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Address возвращает адрес сервера в формате host:port
func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

// Address возвращает адрес Redis в формате host:port
func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return d, nil
}

// splitList разбирает список через запятую: "kafka1:9092,kafka2:9092"
func splitList(value string) []string {
	var items []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
