package httpserver_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localmart/listing-intake/internal/adapter/httpserver"
	"github.com/localmart/listing-intake/internal/domain"
	"github.com/localmart/listing-intake/internal/observability"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockGeocoder struct {
	forward  map[string]*domain.Coordinates
	forwards int
	fwdErr   error
	reverse  string
	revErr   error
	suggest  []string
	sugErr   error
}

func (m *mockGeocoder) Forward(_ context.Context, text string) (*domain.Coordinates, error) {
	m.forwards++
	if m.fwdErr != nil {
		return nil, m.fwdErr
	}
	return m.forward[domain.NormalizeLocationKey(text)], nil
}

func (m *mockGeocoder) Reverse(_ context.Context, _, _ float64) (string, error) {
	return m.reverse, m.revErr
}

func (m *mockGeocoder) Suggest(_ context.Context, _ string) ([]string, error) {
	return m.suggest, m.sugErr
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.IntakeEvent
}

func (s *recordingSink) Publish(_ context.Context, events ...domain.IntakeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return nil
}

func (s *recordingSink) published() []domain.IntakeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.IntakeEvent(nil), s.events...)
}

func newTestServer(geo *mockGeocoder, readyErr error, sink httpserver.EventSink) *httpserver.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httpserver.NewServer(":0", geo, &mockReadiness{err: readyErr}, sink, logger, observability.NewMetricsForTesting())
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(&mockGeocoder{}, nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(&mockGeocoder{}, nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(&mockGeocoder{}, fmt.Errorf("cache store offline"), nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "cache store offline", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&mockGeocoder{}, nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestVerify_ReturnsCanonicalAddressAndPublishes(t *testing.T) {
	geo := &mockGeocoder{
		forward: map[string]*domain.Coordinates{
			"indiranagar": {Lat: 12.9716, Lng: 77.6412},
		},
		reverse: "Indiranagar, Bengaluru, Karnataka, India",
	}
	sink := &recordingSink{}
	srv := newTestServer(geo, nil, sink)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/locations/verify",
		strings.NewReader(`{"text":"Indiranagar"}`))

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Query   string  `json:"query"`
		Address string  `json:"address"`
		Lat     float64 `json:"lat"`
		Lng     float64 `json:"lng"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Indiranagar", body.Query)
	assert.Equal(t, "Indiranagar, Bengaluru, Karnataka, India", body.Address)
	assert.InDelta(t, 12.9716, body.Lat, 1e-9)
	assert.InDelta(t, 77.6412, body.Lng, 1e-9)

	events := sink.published()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventLocationVerified, events[0].Type)
	require.NotNil(t, events[0].Location)
	assert.Equal(t, "Indiranagar", events[0].Location.Query)
}

func TestVerify_UnknownLocationReturns404(t *testing.T) {
	srv := newTestServer(&mockGeocoder{}, nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/locations/verify",
		strings.NewReader(`{"text":"xyzzyplugh"}`))

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.LocationNotFoundMessage, body["error"])
}

func TestVerify_RateLimitedReturns429(t *testing.T) {
	geo := &mockGeocoder{fwdErr: &domain.GeocodingError{Cause: domain.FailureRateLimited, Status: 429}}
	srv := newTestServer(geo, nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/locations/verify",
		strings.NewReader(`{"text":"koramangala"}`))

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestVerify_ProviderDownReturns502(t *testing.T) {
	geo := &mockGeocoder{fwdErr: &domain.GeocodingError{Cause: domain.FailureServerUnavailable, Status: 503}}
	srv := newTestServer(geo, nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/locations/verify",
		strings.NewReader(`{"text":"koramangala"}`))

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestVerify_EmptyTextReturns400(t *testing.T) {
	geo := &mockGeocoder{}
	srv := newTestServer(geo, nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/locations/verify",
		strings.NewReader(`{"text":"   "}`))

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, geo.forwards)
}

func TestVerify_ReverseFailureKeepsSubmittedText(t *testing.T) {
	geo := &mockGeocoder{
		forward: map[string]*domain.Coordinates{
			"hsr layout": {Lat: 12.9121, Lng: 77.6446},
		},
		revErr: &domain.GeocodingError{Cause: domain.FailureNetwork},
	}
	srv := newTestServer(geo, nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/locations/verify",
		strings.NewReader(`{"text":"HSR Layout"}`))

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "HSR Layout", body["address"])
}

func TestSuggest_ReturnsNames(t *testing.T) {
	geo := &mockGeocoder{suggest: []string{"Indiranagar, Bengaluru", "Indira Nagar, Lucknow"}}
	srv := newTestServer(geo, nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/locations/suggest?q=indira", nil)

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Suggestions []string `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"Indiranagar, Bengaluru", "Indira Nagar, Lucknow"}, body.Suggestions)
}

func TestSuggest_ShortQueryReturnsEmptyList(t *testing.T) {
	geo := &mockGeocoder{suggest: []string{"should not appear"}}
	srv := newTestServer(geo, nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/locations/suggest?q=ab", nil)

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"suggestions":[]}`, rec.Body.String())
}

func TestSuggest_ProviderFailureDegradesToEmpty(t *testing.T) {
	geo := &mockGeocoder{sugErr: &domain.GeocodingError{Cause: domain.FailureServerUnavailable}}
	srv := newTestServer(geo, nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/locations/suggest?q=indiranagar", nil)

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"suggestions":[]}`, rec.Body.String())
}
