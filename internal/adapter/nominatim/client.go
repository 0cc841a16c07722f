// Package nominatim implements domain.Geocoder against the OSM Nominatim
// HTTP API, with retry, rate limiting, and response caching.
package nominatim

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/localmart/listing-intake/internal/domain"
	"github.com/localmart/listing-intake/internal/observability"
)

const maxSuggestions = 5

// Client is a Nominatim geocoding client. Nominatim's usage policy requires
// a descriptive User-Agent and at most one request per second, enforced by
// the limiter.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim client.
func NewClient(baseURL, userAgent string, timeout time.Duration, rps float64, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		clock:   clockwork.NewRealClock(),
		metrics: metrics,
		logger:  logger,
	}
}

// Forward resolves free text to its best-match point. Returns (nil, nil)
// when the provider answers with zero matches.
func (c *Client) Forward(ctx context.Context, text string) (*domain.Coordinates, error) {
	params := url.Values{
		"format": {"json"},
		"q":      {text},
		"limit":  {"1"},
	}

	var results []searchResult
	if err := c.getJSON(ctx, "forward", "/search?"+params.Encode(), &results); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("forward", "error").Inc()
		return nil, err
	}

	if len(results) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues("forward", "empty").Inc()
		return nil, nil
	}

	lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
	lng, lngErr := strconv.ParseFloat(results[0].Lon, 64)
	if latErr != nil || lngErr != nil {
		c.metrics.GeocodeRequests.WithLabelValues("forward", "error").Inc()
		return nil, &domain.GeocodingError{
			Cause: domain.FailureGeneric,
			Err:   fmt.Errorf("parse coordinates %q,%q", results[0].Lat, results[0].Lon),
		}
	}

	c.metrics.GeocodeRequests.WithLabelValues("forward", "success").Inc()
	return &domain.Coordinates{Lat: lat, Lng: lng}, nil
}

// Reverse resolves a point to its display name. A successful response
// without an address yields the synthesized fallback string instead of an
// error.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	params := url.Values{
		"format":         {"json"},
		"lat":            {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":            {strconv.FormatFloat(lng, 'f', -1, 64)},
		"zoom":           {"18"},
		"addressdetails": {"1"},
	}

	var res reverseResponse
	if err := c.getJSON(ctx, "reverse", "/reverse?"+params.Encode(), &res); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("reverse", "error").Inc()
		return "", err
	}

	if res.Error != "" || res.DisplayName == "" {
		c.metrics.GeocodeRequests.WithLabelValues("reverse", "empty").Inc()
		return domain.FallbackAddress(lat, lng), nil
	}

	c.metrics.GeocodeRequests.WithLabelValues("reverse", "success").Inc()
	return res.DisplayName, nil
}

// Suggest returns up to five display-name candidates for partial text.
func (c *Client) Suggest(ctx context.Context, query string) ([]string, error) {
	if len(strings.TrimSpace(query)) < domain.MinSuggestQueryLen {
		return []string{}, nil
	}

	params := url.Values{
		"format": {"json"},
		"q":      {query},
		"limit":  {strconv.Itoa(maxSuggestions)},
	}

	var results []searchResult
	if err := c.getJSON(ctx, "suggest", "/search?"+params.Encode(), &results); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("suggest", "error").Inc()
		return nil, err
	}

	names := make([]string, 0, len(results))
	for _, r := range results {
		if r.DisplayName == "" {
			continue
		}
		names = append(names, r.DisplayName)
		if len(names) == maxSuggestions {
			break
		}
	}

	c.metrics.GeocodeRequests.WithLabelValues("suggest", "success").Inc()
	return names, nil
}

// Nominatim API response types.

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}
