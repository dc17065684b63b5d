package infrastructure

import "context"

// MessagePublisher отправляет события в Kafka
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}
