package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/localmart/listing-intake/internal/adapter/httpserver"
	kafkaadapter "github.com/localmart/listing-intake/internal/adapter/kafka"
	"github.com/localmart/listing-intake/internal/adapter/nominatim"
	"github.com/localmart/listing-intake/internal/config"
	"github.com/localmart/listing-intake/internal/geocache"
	"github.com/localmart/listing-intake/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Cache tiers: in-process LRU in front of an optional SQLite store that
	// survives restarts. GEOCODE_CACHE_PATH="" runs memory-only.
	var durable *geocache.SQLiteStore
	var store geocache.Store = geocache.NewLRU(cfg.GeocodeCacheSize)
	if cfg.GeocodeCachePath != "" {
		durable, err = geocache.NewSQLiteStore(cfg.GeocodeCachePath)
		if err != nil {
			logger.Error("failed to open geocode cache store", "path", cfg.GeocodeCachePath, "error", err)
			os.Exit(1)
		}
		store = geocache.NewTiered(store, durable)
		logger.Info("durable geocode cache enabled", "path", durable.Path())
	}

	client := nominatim.NewClient(cfg.NominatimBaseURL, cfg.NominatimUserAgent, cfg.NominatimTimeout, cfg.NominatimRPS, metrics, logger)
	geocoder := nominatim.NewCachedGeocoder(client, store, metrics, logger)
	logger.Info("nominatim geocoding configured",
		"base_url", cfg.NominatimBaseURL,
		"rate_per_sec", cfg.NominatimRPS,
		"cache_size", cfg.GeocodeCacheSize)

	// Event publishing is feature-flagged via KAFKA_ENABLED.
	var sink httpserver.EventSink
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger)
		sink = publisher
		logger.Info("kafka event publishing enabled", "topic", cfg.KafkaEventsTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka event publishing disabled")
	}

	srv := httpserver.NewServer(cfg.HTTPAddr, geocoder, readiness{durable}, sink, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}
	if durable != nil {
		if err := durable.Close(); err != nil {
			logger.Error("cache store close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// readiness reports ready when the durable cache store (if configured) is
// reachable. A memory-only deployment is always ready.
type readiness struct {
	store *geocache.SQLiteStore
}

func (r readiness) CheckReadiness(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	return r.store.CheckReadiness(ctx)
}
