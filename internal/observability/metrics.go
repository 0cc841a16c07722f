package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// intake service.
type Metrics struct {
	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={forward,reverse,suggest}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: method={forward}, result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={forward,reverse,suggest}
	GeocodeRetries     prometheus.Counter

	// Resolver metrics.
	Verifications *prometheus.CounterVec // labels: outcome={verified,not_found,error}

	// Media pipeline metrics.
	MediaItems          *prometheus.CounterVec // labels: kind={image,video}, outcome={complete,error,rejected,dropped}
	MediaEncodeDuration prometheus.Histogram
}

// NewMetrics creates and registers all intake metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeRetries,
		m.Verifications,
		m.MediaItems,
		m.MediaEncodeDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "listing_intake",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "listing_intake",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "listing_intake",
			Name:      "geocode_api_duration_seconds",
			Help:      "Nominatim API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		GeocodeRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "listing_intake",
			Name:      "geocode_retries_total",
			Help:      "Geocoding request attempts beyond the first.",
		}),
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "listing_intake",
			Name:      "location_verifications_total",
			Help:      "Location verification attempts by outcome.",
		}, []string{"outcome"}),
		MediaItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "listing_intake",
			Name:      "media_items_total",
			Help:      "Media items by kind and terminal outcome.",
		}, []string{"kind", "outcome"}),
		MediaEncodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "listing_intake",
			Name:      "media_encode_duration_seconds",
			Help:      "Duration of a single media item encode.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}
