package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/shiftboard/internal/models"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadServerConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 5, cfg.PicksPager.PageSize)
	assert.Equal(t, 20, cfg.PicksPager.Max)
	assert.Equal(t, 2500*time.Millisecond, cfg.LocationTimeout)
	assert.Equal(t, []models.Badge{models.BadgeWalking, models.BadgeLate}, cfg.BadgePolicy().Order)
	assert.False(t, cfg.EnableDB)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("BADGE_POLICY", "curated,walking,late")
	t.Setenv("CURATED_BADGE_MIN", "90")
	t.Setenv("FALLBACK_LAT", "35.7")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := LoadServerConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, models.BadgeCurated, cfg.BadgeOrder[0])
	assert.Equal(t, 90, cfg.BadgePolicy().CuratedMin)
	assert.Equal(t, 35.7, cfg.Fallback.Lat)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadCollectsErrors(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT", "soon")
	t.Setenv("PICKS_PAGE_SIZE", "x")
	t.Setenv("BADGE_POLICY", "sparkly")
	t.Setenv("ENABLE_DB", "true")
	t.Setenv("SITE_TZ", "Mars/Olympus")

	_, err := LoadServerConfig()
	require.Error(t, err)
	for _, want := range []string{"HTTP_READ_TIMEOUT", "PICKS_PAGE_SIZE", "BADGE_POLICY", "PG_DSN", "SITE_TZ"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadConsumerConfig(t *testing.T) {
	t.Setenv("KAFKA_GROUP", "g1")
	t.Setenv("CONSUMER_ATTEMPTS", "5")
	cfg, err := LoadConsumerConfig()
	require.NoError(t, err)
	assert.Equal(t, "g1", cfg.KafkaGroup)
	assert.Equal(t, 5, cfg.Attempts)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)

	t.Setenv("CONSUMER_ATTEMPTS", "0")
	_, err = LoadConsumerConfig()
	assert.Error(t, err)
}
