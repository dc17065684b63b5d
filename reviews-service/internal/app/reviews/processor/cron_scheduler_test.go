package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockStatsResyncer мок для StatsResyncer
type MockStatsResyncer struct {
	mock.Mock
}

func (m *MockStatsResyncer) ResyncAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestNewCronScheduler(t *testing.T) {
	mockSvc := new(MockStatsResyncer)

	scheduler := NewCronScheduler(mockSvc)

	assert.NotNil(t, scheduler.cron)
	assert.Equal(t, mockSvc, scheduler.resyncer)
	assert.Empty(t, scheduler.GetEntries())
}

func TestCronScheduler_Start_Success(t *testing.T) {
	mockSvc := new(MockStatsResyncer)
	scheduler := NewCronScheduler(mockSvc)

	err := scheduler.Start(context.Background(), "@every 6h")

	assert.NoError(t, err)
	assert.Len(t, scheduler.GetEntries(), 1)
	scheduler.Stop()
	mockSvc.AssertNotCalled(t, "ResyncAll", mock.Anything)
}

func TestCronScheduler_Start_InvalidSchedule(t *testing.T) {
	scheduler := NewCronScheduler(new(MockStatsResyncer))

	err := scheduler.Start(context.Background(), "invalid cron expression")

	assert.Error(t, err)
	assert.Empty(t, scheduler.GetEntries())
}

func TestCronScheduler_JobExecution(t *testing.T) {
	mockSvc := new(MockStatsResyncer)
	scheduler := NewCronScheduler(mockSvc)

	called := make(chan struct{}, 10)
	mockSvc.On("ResyncAll", mock.Anything).Return(3, nil).Run(func(mock.Arguments) {
		called <- struct{}{}
	})

	err := scheduler.Start(context.Background(), "@every 1s")
	assert.NoError(t, err)

	select {
	case <-called:
	case <-time.After(3 * time.Second):
		t.Fatal("resync job was not triggered")
	}

	scheduler.Stop()
}

func TestCronScheduler_JobErrorDoesNotStopScheduler(t *testing.T) {
	mockSvc := new(MockStatsResyncer)
	scheduler := NewCronScheduler(mockSvc)

	called := make(chan struct{}, 10)
	mockSvc.On("ResyncAll", mock.Anything).Return(0, errors.New("mongo down")).Run(func(mock.Arguments) {
		called <- struct{}{}
	})

	assert.NoError(t, scheduler.Start(context.Background(), "@every 1s"))

	for i := 0; i < 2; i++ {
		select {
		case <-called:
		case <-time.After(3 * time.Second):
			t.Fatalf("resync run %d was not triggered", i+1)
		}
	}

	scheduler.Stop()
}
