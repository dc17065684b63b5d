package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tapestore/pkg/logger"
	"tapestore/pkg/metrics"
	"tapestore/storefront-service/internal/app/storefront/entity"

	"github.com/segmentio/kafka-go"
)

const serviceName = "storefront-service"

// ProductInvalidator сбрасывает закешированную карточку товара
type ProductInvalidator interface {
	InvalidateProduct(ctx context.Context, id int64) error
}

// messageReader - подмножество kafka.Reader, которое использует consumer
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// RatingConsumer читает события PRODUCT_RATING_UPDATED из топика review_events
// и сбрасывает кеш карточки товара, чтобы витрина показала новый рейтинг
type RatingConsumer struct {
	reader   messageReader
	topic    string
	groupID  string
	products ProductInvalidator
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewRatingConsumer создает новый Kafka consumer событий рейтинга
func NewRatingConsumer(brokers []string, topic, groupID string, products ProductInvalidator) *RatingConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: time.Second,
	})

	return newRatingConsumer(reader, topic, groupID, products)
}

func newRatingConsumer(reader messageReader, topic, groupID string, products ProductInvalidator) *RatingConsumer {
	return &RatingConsumer{
		reader:   reader,
		topic:    topic,
		groupID:  groupID,
		products: products,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start запускает consumer в отдельной горутине
func (c *RatingConsumer) Start(ctx context.Context) {
	logger.Info().Str("topic", c.topic).Str("group", c.groupID).Msg("starting rating events consumer")
	go c.consume(ctx)
}

// Stop останавливает consumer и закрывает reader
func (c *RatingConsumer) Stop() {
	close(c.stopChan)
	<-c.doneChan
	if err := c.reader.Close(); err != nil {
		logger.Warn().Err(err).Msg("failed to close kafka reader")
	}
	logger.Info().Msg("rating events consumer stopped")
}

func (c *RatingConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	for {
		select {
		case <-c.stopChan:
			return
		case <-ctx.Done():
			return
		default:
		}

		readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		message, err := c.reader.FetchMessage(readCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if readCtx.Err() == context.DeadlineExceeded {
				continue
			}
			metrics.RecordKafkaError(serviceName, c.topic, "fetch")
			logger.Warn().Err(err).Str("topic", c.topic).Msg("failed to fetch message")
			time.Sleep(time.Second)
			continue
		}

		start := time.Now()
		if err := c.processMessage(ctx, message); err != nil {
			// offset не коммитим, сообщение будет обработано повторно
			metrics.RecordKafkaError(serviceName, c.topic, "process")
			logger.Error().Err(err).Int64("offset", message.Offset).Msg("failed to process rating event")
			continue
		}
		metrics.RecordKafkaMessageConsumed(serviceName, c.topic, c.groupID, time.Since(start))

		if err := c.reader.CommitMessages(ctx, message); err != nil {
			metrics.RecordKafkaError(serviceName, c.topic, "commit")
			logger.Warn().Err(err).Msg("failed to commit message")
		}
	}
}

// processMessage обрабатывает одно сообщение; неизвестные события пропускаются
func (c *RatingConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	var event entity.RatingEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		// Битое сообщение повторно не обработать, просто пропускаем
		logger.Warn().Err(err).Int64("offset", message.Offset).Msg("skipping malformed rating event")
		return nil
	}

	if event.EventType != entity.EventProductRatingUpdated || event.ProductID <= 0 {
		return nil
	}

	if err := c.products.InvalidateProduct(ctx, event.ProductID); err != nil {
		return fmt.Errorf("failed to invalidate product %d: %w", event.ProductID, err)
	}

	logger.Debug().
		Int64("product_id", event.ProductID).
		Float64("avg_rating", event.AvgRating).
		Int("rating_count", event.RatingCount).
		Msg("product cache invalidated after rating update")

	return nil
}
