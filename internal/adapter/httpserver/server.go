// Package httpserver exposes the intake service's HTTP surface: health,
// readiness, and metrics endpoints plus stateless location verification
// and suggestion routes.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/localmart/listing-intake/internal/domain"
	"github.com/localmart/listing-intake/internal/observability"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// EventSink receives intake events for downstream consumers. A nil sink
// disables publishing.
type EventSink interface {
	Publish(ctx context.Context, events ...domain.IntakeEvent) error
}

// Server exposes the intake HTTP endpoints.
type Server struct {
	httpServer *http.Server
	geocoder   domain.Geocoder
	sink       EventSink
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates an HTTP server with health, metrics, and location routes.
func NewServer(addr string, geocoder domain.Geocoder, ready ReadinessChecker, sink EventSink, logger *slog.Logger, metrics *observability.Metrics) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		geocoder: geocoder,
		sink:     sink,
		logger:   logger,
		metrics:  metrics,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /v1/locations/verify", s.handleVerify)
	mux.HandleFunc("GET /v1/locations/suggest", s.handleSuggest)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

type verifyRequest struct {
	Text string `json:"text"`
}

type verifyResponse struct {
	Query   string  `json:"query"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// handleVerify runs a one-shot forward-then-reverse resolution of the
// submitted text. A verified location is also published to the event sink.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	coords, err := s.geocoder.Forward(r.Context(), text)
	if err != nil {
		s.metrics.Verifications.WithLabelValues("error").Inc()
		writeError(w, statusFor(err), domain.UserMessage(err))
		return
	}
	if coords == nil {
		s.metrics.Verifications.WithLabelValues("not_found").Inc()
		writeError(w, http.StatusNotFound, domain.LocationNotFoundMessage)
		return
	}

	address := text
	if addr, rerr := s.geocoder.Reverse(r.Context(), coords.Lat, coords.Lng); rerr == nil {
		address = addr
	} else {
		s.logger.Warn("canonicalizing reverse geocode failed", "error", rerr)
	}

	s.metrics.Verifications.WithLabelValues("verified").Inc()
	if s.sink != nil {
		event := domain.NewLocationVerifiedEvent(text, address, *coords, time.Now())
		if perr := s.sink.Publish(r.Context(), event); perr != nil {
			s.logger.Error("publishing location.verified failed", "error", perr)
		}
	}

	writeJSON(w, http.StatusOK, verifyResponse{
		Query:   text,
		Address: address,
		Lat:     coords.Lat,
		Lng:     coords.Lng,
	})
}

type suggestResponse struct {
	Suggestions []string `json:"suggestions"`
}

// handleSuggest returns up to five display names for a partial query.
// Provider failures degrade to an empty list; suggestions are advisory.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) < domain.MinSuggestQueryLen {
		writeJSON(w, http.StatusOK, suggestResponse{Suggestions: []string{}})
		return
	}

	names, err := s.geocoder.Suggest(r.Context(), query)
	if err != nil {
		s.logger.Debug("suggestion fetch failed", "query", query, "error", err)
		names = nil
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, suggestResponse{Suggestions: names})
}

// statusFor maps geocoding failures onto response codes.
func statusFor(err error) int {
	var gerr *domain.GeocodingError
	if errors.As(err, &gerr) {
		switch gerr.Cause {
		case domain.FailureRateLimited:
			return http.StatusTooManyRequests
		case domain.FailureBadRequest:
			return http.StatusBadRequest
		default:
			return http.StatusBadGateway
		}
	}
	return http.StatusBadGateway
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
