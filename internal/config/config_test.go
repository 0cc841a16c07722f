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

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.NominatimBaseURL)
	assert.Contains(t, cfg.NominatimUserAgent, "listing-intake")
	assert.Equal(t, 10*time.Second, cfg.NominatimTimeout)
	assert.Equal(t, 1.0, cfg.NominatimRPS)

	assert.Equal(t, 1000, cfg.GeocodeCacheSize)
	assert.Equal(t, "data/geocode.db", cfg.GeocodeCachePath)

	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "listing-intake-events", cfg.KafkaEventsTopic)

	assert.Equal(t, 10, cfg.MediaMaxFiles)
	assert.Equal(t, 25, cfg.MediaMaxFileSizeMB)
	assert.Equal(t, int64(25*1024*1024), cfg.MediaMaxFileSizeBytes())
	assert.True(t, cfg.MediaAcceptImages)
	assert.True(t, cfg.MediaAcceptVideos)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("NOMINATIM_BASE_URL", "http://nominatim.internal:8080")
	t.Setenv("NOMINATIM_RATE_PER_SEC", "2.5")
	t.Setenv("GEOCODE_CACHE_SIZE", "50")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("MEDIA_MAX_FILES", "4")
	t.Setenv("MEDIA_MAX_FILE_SIZE_MB", "5")
	t.Setenv("MEDIA_ACCEPT_VIDEOS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, "http://nominatim.internal:8080", cfg.NominatimBaseURL)
	assert.Equal(t, 2.5, cfg.NominatimRPS)
	assert.Equal(t, 50, cfg.GeocodeCacheSize)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 4, cfg.MediaMaxFiles)
	assert.Equal(t, int64(5*1024*1024), cfg.MediaMaxFileSizeBytes())
	assert.False(t, cfg.MediaAcceptVideos)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("NOMINATIM_TIMEOUT", "soon")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidRate(t *testing.T) {
	t.Setenv("NOMINATIM_RATE_PER_SEC", "0")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", " ,")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidMediaLimits(t *testing.T) {
	t.Setenv("MEDIA_MAX_FILES", "0")
	_, err := Load()
	assert.Error(t, err)
}
