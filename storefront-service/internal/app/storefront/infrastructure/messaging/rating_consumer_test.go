package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"tapestore/storefront-service/internal/app/storefront/entity"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProductInvalidator struct {
	mock.Mock
}

func (m *MockProductInvalidator) InvalidateProduct(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// fakeReader отдает подготовленные сообщения, затем блокируется до отмены контекста
type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.messages) > 0 {
		msg := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) committedOffsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func ratingMessage(t *testing.T, offset int64, event entity.RatingEvent) kafka.Message {
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Offset: offset, Value: value}
}

func TestNewRatingConsumer(t *testing.T) {
	consumer := NewRatingConsumer([]string{"localhost:9092"}, "review_events", "storefront", new(MockProductInvalidator))

	assert.NotNil(t, consumer.reader)
	assert.Equal(t, "review_events", consumer.topic)

	consumer.reader.Close()
}

func TestRatingConsumer_ProcessMessage_Invalidates(t *testing.T) {
	products := new(MockProductInvalidator)
	consumer := newRatingConsumer(&fakeReader{}, "review_events", "storefront", products)
	products.On("InvalidateProduct", mock.Anything, int64(5)).Return(nil)

	err := consumer.processMessage(context.Background(), ratingMessage(t, 1, entity.RatingEvent{
		EventType: entity.EventProductRatingUpdated, ProductID: 5, AvgRating: 4.5, RatingCount: 2,
	}))

	assert.NoError(t, err)
	products.AssertExpectations(t)
}

func TestRatingConsumer_ProcessMessage_SkipsForeignAndMalformed(t *testing.T) {
	products := new(MockProductInvalidator)
	consumer := newRatingConsumer(&fakeReader{}, "review_events", "storefront", products)

	assert.NoError(t, consumer.processMessage(context.Background(), kafka.Message{Value: []byte("{broken")}))
	assert.NoError(t, consumer.processMessage(context.Background(), ratingMessage(t, 2, entity.RatingEvent{EventType: "REVIEW_CREATED", ProductID: 5})))
	assert.NoError(t, consumer.processMessage(context.Background(), ratingMessage(t, 3, entity.RatingEvent{EventType: entity.EventProductRatingUpdated})))

	products.AssertNotCalled(t, "InvalidateProduct", mock.Anything, mock.Anything)
}

func TestRatingConsumer_ProcessMessage_CacheError(t *testing.T) {
	products := new(MockProductInvalidator)
	consumer := newRatingConsumer(&fakeReader{}, "review_events", "storefront", products)
	products.On("InvalidateProduct", mock.Anything, int64(5)).Return(errors.New("redis down"))

	err := consumer.processMessage(context.Background(), ratingMessage(t, 1, entity.RatingEvent{
		EventType: entity.EventProductRatingUpdated, ProductID: 5,
	}))

	assert.Error(t, err)
}

func TestRatingConsumer_CommitsOnlyProcessed(t *testing.T) {
	var processed sync.WaitGroup
	processed.Add(2)
	done := func(mock.Arguments) { processed.Done() }

	products := new(MockProductInvalidator)
	products.On("InvalidateProduct", mock.Anything, int64(5)).Return(nil).Run(done).Once()
	products.On("InvalidateProduct", mock.Anything, int64(6)).Return(errors.New("redis down")).Run(done).Once()

	reader := &fakeReader{messages: []kafka.Message{
		ratingMessage(t, 10, entity.RatingEvent{EventType: entity.EventProductRatingUpdated, ProductID: 5}),
		ratingMessage(t, 11, entity.RatingEvent{EventType: entity.EventProductRatingUpdated, ProductID: 6}),
	}}
	consumer := newRatingConsumer(reader, "review_events", "storefront", products)

	ctx, cancel := context.WithCancel(context.Background())
	consumer.Start(ctx)

	waitDone := make(chan struct{})
	go func() {
		processed.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(2 * time.Second):
		t.Fatal("messages were not processed")
	}

	cancel()
	consumer.Stop()

	assert.Equal(t, []int64{10}, reader.committedOffsets())
	assert.True(t, reader.closed)
}
