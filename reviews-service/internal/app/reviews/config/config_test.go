package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8083", cfg.Server.Address())
	assert.Equal(t, "review_events", cfg.Kafka.Topic)
	assert.Equal(t, 5*time.Second, cfg.Rating.LockTTL)
	assert.Equal(t, 3*time.Second, cfg.Rating.LockWait)
	assert.Equal(t, "@every 6h", cfg.Rating.ResyncSchedule)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=storefront_service sslmode=disable", cfg.Database.DSN())
}

func TestLoad_ResyncDisabledByEmptyValue(t *testing.T) {
	t.Setenv("STATS_RESYNC_SCHEDULE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.Rating.ResyncSchedule)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("RATING_LOCK_WAIT", "500ms")
	t.Setenv("STATS_RESYNC_SCHEDULE", "0 3 * * *")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 500*time.Millisecond, cfg.Rating.LockWait)
	assert.Equal(t, "0 3 * * *", cfg.Rating.ResyncSchedule)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("RATING_LOCK_TTL", "five")

	_, err := Load()

	assert.Error(t, err)
}
