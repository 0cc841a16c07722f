package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Nominatim geocoding configuration.
	NominatimBaseURL   string
	NominatimUserAgent string
	NominatimTimeout   time.Duration
	NominatimRPS       float64

	// Geocode cache configuration.
	GeocodeCacheSize int
	GeocodeCachePath string // empty disables the durable tier

	// Kafka event publishing.
	KafkaBrokers     []string
	KafkaEventsTopic string
	KafkaEnabled     bool

	// Media pipeline limits.
	MediaMaxFiles       int
	MediaMaxFileSizeMB  int
	MediaAcceptImages   bool
	MediaAcceptVideos   bool
	MediaMaxDimensionPx int
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	nominatimTimeout, err := parseDuration("NOMINATIM_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	rps, err := parseFloat("NOMINATIM_RATE_PER_SEC", 1)
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseInt("GEOCODE_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	maxFiles, err := parseInt("MEDIA_MAX_FILES", 10)
	if err != nil {
		return nil, err
	}

	maxFileSize, err := parseInt("MEDIA_MAX_FILE_SIZE_MB", 25)
	if err != nil {
		return nil, err
	}

	maxDimension, err := parseInt("MEDIA_MAX_DIMENSION_PX", 1200)
	if err != nil {
		return nil, err
	}

	kafkaEnabled := false
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		NominatimBaseURL:   envOrDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent: envOrDefault("NOMINATIM_USER_AGENT", "listing-intake/1.0 (+https://github.com/localmart/listing-intake)"),
		NominatimTimeout:   nominatimTimeout,
		NominatimRPS:       rps,

		GeocodeCacheSize: cacheSize,
		GeocodeCachePath: envOrDefault("GEOCODE_CACHE_PATH", "data/geocode.db"),

		KafkaBrokers:     parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaEventsTopic: envOrDefault("KAFKA_EVENTS_TOPIC", "listing-intake-events"),
		KafkaEnabled:     kafkaEnabled,

		MediaMaxFiles:       maxFiles,
		MediaMaxFileSizeMB:  maxFileSize,
		MediaAcceptImages:   envOrDefault("MEDIA_ACCEPT_IMAGES", "true") == "true",
		MediaAcceptVideos:   envOrDefault("MEDIA_ACCEPT_VIDEOS", "true") == "true",
		MediaMaxDimensionPx: maxDimension,
	}

	if cfg.NominatimBaseURL == "" {
		return nil, errors.New("NOMINATIM_BASE_URL is required")
	}
	if cfg.NominatimUserAgent == "" {
		return nil, errors.New("NOMINATIM_USER_AGENT is required")
	}
	if cfg.NominatimRPS <= 0 {
		return nil, errors.New("NOMINATIM_RATE_PER_SEC must be positive")
	}
	if cfg.GeocodeCacheSize <= 0 {
		return nil, errors.New("GEOCODE_CACHE_SIZE must be positive")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
		}
		if cfg.KafkaEventsTopic == "" {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_EVENTS_TOPIC is not set")
		}
	}
	if cfg.MediaMaxFiles <= 0 {
		return nil, errors.New("MEDIA_MAX_FILES must be positive")
	}
	if cfg.MediaMaxFileSizeMB <= 0 {
		return nil, errors.New("MEDIA_MAX_FILE_SIZE_MB must be positive")
	}

	return cfg, nil
}

// MediaMaxFileSizeBytes returns the per-file size cap in bytes.
func (c *Config) MediaMaxFileSizeBytes() int64 {
	return int64(c.MediaMaxFileSizeMB) * 1024 * 1024
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseDuration(key, fallback string) (time.Duration, error) {
	s := envOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return f, nil
}
