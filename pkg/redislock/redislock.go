package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tapestore/pkg/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired - блокировку не удалось взять за отведённое время ожидания
var ErrNotAcquired = errors.New("lock not acquired")

// releaseScript удаляет ключ только если он всё ещё принадлежит владельцу,
// иначе чужая блокировка (взятая после истечения TTL) была бы снята
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker - мьютекс поверх Redis (SET NX PX), сериализует read-modify-write
// операции по ключу между репликами сервиса
type Locker struct {
	client      *redis.Client
	service     string
	ttl         time.Duration
	waitTimeout time.Duration
	retryEvery  time.Duration
}

// NewLocker создает Locker
// ttl - время жизни блокировки, waitTimeout - сколько максимум ждать освобождения
func NewLocker(client *redis.Client, service string, ttl, waitTimeout time.Duration) *Locker {
	return &Locker{
		client:      client,
		service:     service,
		ttl:         ttl,
		waitTimeout: waitTimeout,
		retryEvery:  25 * time.Millisecond,
	}
}

// Lock - взятая блокировка
type Lock struct {
	client *redis.Client
	key    string
	token  string
}

// Acquire пытается взять блокировку, повторяя попытки до waitTimeout
func (l *Locker) Acquire(ctx context.Context, key string) (*Lock, error) {
	token := uuid.NewString()
	start := time.Now()
	defer func() {
		metrics.LockWaitDuration.WithLabelValues(l.service, lockName(key)).Observe(time.Since(start).Seconds())
	}()

	waitCtx, cancel := context.WithTimeout(ctx, l.waitTimeout)
	defer cancel()

	ticker := time.NewTicker(l.retryEvery)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(waitCtx, key, token, l.ttl).Result()
		if err != nil && waitCtx.Err() == nil {
			metrics.RecordRedisError(l.service, metrics.RedisOpLock)
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			return &Lock{client: l.client, key: key, token: token}, nil
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %s", ErrNotAcquired, key)
		case <-ticker.C:
		}
	}
}

// WithLock выполняет fn под блокировкой key и всегда освобождает её
func (l *Locker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	lock, err := l.Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer lock.Release(context.WithoutCancel(ctx))

	return fn(ctx)
}

// Release освобождает блокировку, если она всё ещё наша
func (lk *Lock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, lk.client, []string{lk.key}, lk.token).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", lk.key, err)
	}
	return nil
}

// lockName убирает идентификатор из ключа для метрик: lock:product-rating:42 -> lock:product-rating
func lockName(key string) string {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == ':' {
			return key[:i]
		}
	}
	return key
}
