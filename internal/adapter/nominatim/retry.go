package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/localmart/listing-intake/internal/domain"
)

// Retry policy shared by all three operations: exponential backoff with a
// 1s base and doubling delay, three attempts total. Only rate limiting
// (429), server errors, and transport failures are retried; other client
// errors fail immediately.
const (
	maxAttempts     = 3
	baseRetryDelay  = 1000 * time.Millisecond
	retryMultiplier = 2
)

// getJSON performs a rate-limited GET with retries, decoding the body into v.
func (c *Client) getJSON(ctx context.Context, method, pathAndQuery string, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &domain.GeocodingError{Cause: domain.FailureGeneric, Err: err}
	}

	delay := baseRetryDelay
	var lastErr *domain.GeocodingError

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			c.metrics.GeocodeRetries.Inc()
			if !c.sleep(ctx, delay) {
				return &domain.GeocodingError{Cause: domain.FailureGeneric, Err: ctx.Err()}
			}
			delay *= retryMultiplier
		}

		status, err := c.attempt(ctx, method, pathAndQuery, v)
		if err == nil {
			return nil
		}

		lastErr = classify(status, err)
		if !retryable(status) {
			break
		}
		c.logger.Warn("geocode request failed, retrying",
			"method", method,
			"attempt", attempt,
			"status", status,
			"error", err,
		)
	}

	return lastErr
}

// attempt performs one request. A zero status means the request never
// produced an HTTP response (transport failure).
func (c *Client) attempt(ctx context.Context, method, pathAndQuery string, v any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathAndQuery, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	timer := prometheus.NewTimer(c.metrics.GeocodeAPIDuration.WithLabelValues(method))
	resp, err := c.httpClient.Do(req)
	timer.ObserveDuration()
	if err != nil {
		return 0, fmt.Errorf("%s geocode request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}

// sleep waits for d on the injected clock, returning false if the context
// was cancelled first.
func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	t := c.clock.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.Chan():
		return true
	}
}

func retryable(status int) bool {
	return status == 0 || status == http.StatusTooManyRequests || status >= 500
}

func classify(status int, err error) *domain.GeocodingError {
	var cause domain.GeocodeFailure
	switch {
	case status == http.StatusTooManyRequests:
		cause = domain.FailureRateLimited
	case status >= 500:
		cause = domain.FailureServerUnavailable
	case status == 0:
		cause = domain.FailureNetwork
	case status >= 400:
		cause = domain.FailureBadRequest
	default:
		cause = domain.FailureGeneric
	}
	return &domain.GeocodingError{Cause: cause, Status: status, Err: err}
}
