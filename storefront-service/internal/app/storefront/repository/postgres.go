package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const serviceName = "storefront-service"

// Коды ошибок PostgreSQL
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

type txKey struct{}

// querier - общее подмножество pgxpool.Pool и pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// conn возвращает транзакцию из контекста, если она открыта, иначе пул
func conn(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

type txManager struct {
	pool *pgxpool.Pool
}

// NewTxManager создает Transactor поверх пула соединений
func NewTxManager(pool *pgxpool.Pool) Transactor {
	return &txManager{pool: pool}
}

// WithinTransaction открывает транзакцию и коммитит её, если fn вернула nil
// Вложенный вызов переиспользует уже открытую транзакцию
func (m *txManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	return pgx.BeginFunc(ctx, m.pool, func(tx pgx.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// translateError переводит ошибки драйвера в ошибки репозитория
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrForeignKey, pgErr.ConstraintName)
		case pgUniqueViolation:
			return fmt.Errorf("unique violation on %s: %w", pgErr.ConstraintName, err)
		}
	}
	return err
}

// schema - таблицы Storefront Service; создаются при старте, если их нет
var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id           BIGSERIAL PRIMARY KEY,
		title        TEXT NOT NULL,
		price_raw    TEXT NOT NULL DEFAULT '',
		images       TEXT[] NOT NULL DEFAULT '{}',
		avg_rating   NUMERIC(3,2) NOT NULL DEFAULT 0,
		rating_count INTEGER NOT NULL DEFAULT 0,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		id            BIGSERIAL PRIMARY KEY,
		user_id       BIGINT NOT NULL,
		product_id    BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		quantity      INTEGER NOT NULL CHECK (quantity BETWEEN 1 AND 10000),
		chosen_color  TEXT,
		chosen_width  TEXT,
		chosen_length TEXT,
		variant_key   TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT cart_items_user_variant_key UNIQUE (user_id, variant_key)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cart_items_user_id ON cart_items (user_id)`,
	`CREATE TABLE IF NOT EXISTS wishlist_items (
		user_id    BIGINT NOT NULL,
		product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, product_id)
	)`,
}

// EnsureSchema создает недостающие таблицы и индексы
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
