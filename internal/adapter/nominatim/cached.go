package nominatim

import (
	"context"
	"log/slog"

	"github.com/localmart/listing-intake/internal/domain"
	"github.com/localmart/listing-intake/internal/geocache"
	"github.com/localmart/listing-intake/internal/observability"
)

// CachedGeocoder wraps a Geocoder with the injected forward-lookup cache.
// Not-found outcomes are cached too (negative caching), so text the
// provider has confirmed unresolvable is never queried again. Failures are
// never cached. Reverse and Suggest pass through uncached.
type CachedGeocoder struct {
	inner   domain.Geocoder
	store   geocache.Store
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, store geocache.Store, metrics *observability.Metrics, logger *slog.Logger) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		store:   store,
		metrics: metrics,
		logger:  logger,
	}
}

func (c *CachedGeocoder) Forward(ctx context.Context, text string) (*domain.Coordinates, error) {
	key := domain.NormalizeLocationKey(text)

	entry, ok, err := c.store.Get(key)
	if err != nil {
		// A broken cache degrades to a provider call, not a failure.
		c.logger.Warn("geocode cache read failed", "key", key, "error", err)
	} else if ok {
		c.metrics.GeocodeCache.WithLabelValues("forward", "hit").Inc()
		return cloneCoordinates(entry.Coordinates), nil
	}
	c.metrics.GeocodeCache.WithLabelValues("forward", "miss").Inc()

	coords, err := c.inner.Forward(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := c.store.Set(key, geocache.Entry{Coordinates: cloneCoordinates(coords)}); err != nil {
		c.logger.Warn("geocode cache write failed", "key", key, "error", err)
	}
	return coords, nil
}

func (c *CachedGeocoder) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	return c.inner.Reverse(ctx, lat, lng)
}

func (c *CachedGeocoder) Suggest(ctx context.Context, query string) ([]string, error) {
	return c.inner.Suggest(ctx, query)
}

// cloneCoordinates copies a point so cache entries never alias caller state.
func cloneCoordinates(c *domain.Coordinates) *domain.Coordinates {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
