package processor

import (
	"context"
	"time"

	"tapestore/pkg/logger"

	"github.com/robfig/cron/v3"
)

// StatsResyncer пересчитывает статистику всех товаров
type StatsResyncer interface {
	ResyncAll(ctx context.Context) (int, error)
}

// CronScheduler периодически пересчитывает статистику рейтинга всех товаров,
// исправляя расхождения после ручных правок или неудавшихся пересчётов
type CronScheduler struct {
	cron     *cron.Cron
	resyncer StatsResyncer
}

func NewCronScheduler(resyncer StatsResyncer) *CronScheduler {
	c := cron.New(
		cron.WithLogger(cronLogger{}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{})),
	)

	return &CronScheduler{
		cron:     c,
		resyncer: resyncer,
	}
}

// Start регистрирует задачу по расписанию (например "@every 6h") и запускает планировщик
func (s *CronScheduler) Start(ctx context.Context, schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.runResync(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Info().Str("schedule", schedule).Msg("rating stats resync scheduler started")

	return nil
}

func (s *CronScheduler) runResync(ctx context.Context) {
	start := time.Now()
	n, err := s.resyncer.ResyncAll(ctx)
	if err != nil {
		logger.Error().Err(err).Int("recomputed", n).Msg("rating stats resync failed")
		return
	}
	logger.Info().
		Int("recomputed", n).
		Dur("duration", time.Since(start)).
		Msg("rating stats resync completed")
}

// Stop останавливает планировщик и ждёт завершения запущенной задачи
func (s *CronScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("rating stats resync scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}

// cronLogger направляет логи robfig/cron в общий zerolog логгер
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
