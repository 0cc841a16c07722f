// Package resolver implements the location state machine backing one
// address input: debounced suggestion fetches, verification against a
// geocoder, map selection, and device geolocation.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/localmart/listing-intake/internal/domain"
	"github.com/localmart/listing-intake/internal/observability"
)

// debounceInterval is how long typed input must be stable before a
// suggestion fetch is issued.
const debounceInterval = 300 * time.Millisecond

// State is a read-only snapshot of the resolver. Coordinates is non-nil
// exactly when Status is Verified; Err is non-empty exactly when Status is
// Error; Suggestions are only populated while typing.
type State struct {
	Text        string
	Coordinates *domain.Coordinates
	Status      domain.LocationStatus
	Err         string
	Suggestions []string
}

// Resolver owns one location-text/coordinate pair. All operations are safe
// for concurrent use; after Close every mutation is a no-op and in-flight
// results are discarded.
type Resolver struct {
	geocoder domain.Geocoder
	locator  Locator
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	state      State
	generation int // invalidates in-flight suggestion fetches
	debounce   clockwork.Timer
	updates    chan State
}

// Option configures a Resolver at construction.
type Option func(*Resolver)

// WithClock substitutes the time source; tests pass a fake clock.
func WithClock(c clockwork.Clock) Option {
	return func(r *Resolver) { r.clock = c }
}

// WithLocator provides the platform location service. Without one,
// UseMyLocation reports geolocation as unsupported.
func WithLocator(l Locator) Option {
	return func(r *Resolver) { r.locator = l }
}

// WithSeed initializes the resolver from persisted form state. Seeding with
// coordinates implies the location was already verified.
func WithSeed(text string, coords *domain.Coordinates) Option {
	return func(r *Resolver) {
		r.state.Text = text
		if coords != nil {
			c := *coords
			r.state.Coordinates = &c
			r.state.Status = domain.LocationVerified
		}
	}
}

// New creates a Resolver in the Idle state.
func New(geocoder domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Resolver {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Resolver{
		geocoder: geocoder,
		clock:    clockwork.NewRealClock(),
		logger:   logger,
		metrics:  metrics,
		ctx:      ctx,
		cancel:   cancel,
		state:    State{Status: domain.LocationIdle},
		updates:  make(chan State, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Snapshot returns a copy of the current state.
func (r *Resolver) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Updates delivers coalesced state snapshots: the channel always holds the
// most recent state, older unread snapshots are dropped.
func (r *Resolver) Updates() <-chan State {
	return r.updates
}

// SetText records a keystroke: the resolver enters Typing, previous
// verification is discarded, and a suggestion fetch is scheduled once the
// input has been stable for the debounce interval. Input shorter than
// MinSuggestQueryLen clears suggestions without a fetch.
func (r *Resolver) SetText(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closedLocked() {
		return
	}

	r.stopDebounceLocked()
	r.generation++
	r.state = State{Text: text, Status: domain.LocationTyping}

	if len(strings.TrimSpace(text)) >= domain.MinSuggestQueryLen {
		gen := r.generation
		r.debounce = r.clock.AfterFunc(debounceInterval, func() {
			r.fetchSuggestions(gen, text)
		})
	}
	r.notifyLocked()
}

// SelectSuggestion commits a candidate from the suggestion list and
// immediately verifies it.
func (r *Resolver) SelectSuggestion(text string) *domain.Coordinates {
	r.mu.Lock()
	if r.closedLocked() {
		r.mu.Unlock()
		return nil
	}
	r.stopDebounceLocked()
	r.generation++
	r.state.Text = text
	r.state.Suggestions = nil
	r.mu.Unlock()

	return r.verifyLocation(text)
}

// Verify resolves the current text. Already-verified coordinates are
// returned without a network call; empty text and an in-flight
// verification return nil with no state change.
func (r *Resolver) Verify() *domain.Coordinates {
	r.mu.Lock()
	if r.closedLocked() {
		r.mu.Unlock()
		return nil
	}
	st := r.state
	if st.Status == domain.LocationVerified && st.Coordinates != nil {
		c := *st.Coordinates
		r.mu.Unlock()
		return &c
	}
	if strings.TrimSpace(st.Text) == "" || st.Status == domain.LocationVerifying {
		r.mu.Unlock()
		return nil
	}
	text := st.Text
	r.mu.Unlock()

	return r.verifyLocation(text)
}

// SelectFromMap applies a point chosen on the map picker. The caller
// supplies the display name; no network call is made.
func (r *Resolver) SelectFromMap(lat, lng float64, name string) {
	r.setVerified(name, domain.Coordinates{Lat: lat, Lng: lng})
}

// UseMyLocation resolves the device position. The raw coordinates are
// returned whenever the platform fix succeeds, even if the address lookup
// for them fails; in that case the text falls back to a synthesized
// "Lat: …, Lng: …" string and the location is still Verified, since the
// coordinates themselves are authoritative.
func (r *Resolver) UseMyLocation() *domain.Coordinates {
	if r.locator == nil {
		r.setError(domain.GeolocationMessage(domain.ErrGeolocationUnsupported))
		return nil
	}

	r.mu.Lock()
	if r.closedLocked() {
		r.mu.Unlock()
		return nil
	}
	r.stopDebounceLocked()
	r.generation++
	r.state.Status = domain.LocationGeolocating
	r.state.Err = ""
	r.state.Suggestions = nil
	r.notifyLocked()
	r.mu.Unlock()

	coords, err := r.locator.Current(r.ctx)
	if err != nil {
		r.setError(domain.GeolocationMessage(err))
		return nil
	}

	addr, rerr := r.geocoder.Reverse(r.ctx, coords.Lat, coords.Lng)
	if rerr != nil {
		r.logger.Warn("reverse geocode after device fix failed", "error", rerr)
		addr = fmt.Sprintf("Lat: %.4f, Lng: %.4f", coords.Lat, coords.Lng)
	}

	r.setVerified(addr, coords)
	return &coords
}

// Reset returns the resolver to its initial Idle state.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closedLocked() {
		return
	}
	r.stopDebounceLocked()
	r.generation++
	r.state = State{Status: domain.LocationIdle}
	r.notifyLocked()
}

// Close tears the resolver down. In-flight fetches are not aborted; their
// results are discarded when they complete.
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopDebounceLocked()
	r.cancel()
}

// verifyLocation runs the Verifying → {Verified | Error} transition for text.
func (r *Resolver) verifyLocation(text string) *domain.Coordinates {
	r.mu.Lock()
	if r.closedLocked() {
		r.mu.Unlock()
		return nil
	}
	r.state.Status = domain.LocationVerifying
	r.state.Coordinates = nil
	r.state.Err = ""
	r.state.Suggestions = nil
	r.notifyLocked()
	r.mu.Unlock()

	coords, err := r.geocoder.Forward(r.ctx, text)
	if err != nil {
		r.metrics.Verifications.WithLabelValues("error").Inc()
		r.setError(domain.UserMessage(err))
		return nil
	}
	if coords == nil {
		r.metrics.Verifications.WithLabelValues("not_found").Inc()
		r.setError(domain.LocationNotFoundMessage)
		return nil
	}

	// Substitute the provider's canonical display string for the raw input.
	// If that lookup fails the user's text stands; the point is verified
	// either way.
	canonical := text
	if addr, rerr := r.geocoder.Reverse(r.ctx, coords.Lat, coords.Lng); rerr == nil {
		canonical = addr
	} else {
		r.logger.Warn("canonicalizing reverse geocode failed", "error", rerr)
	}

	r.metrics.Verifications.WithLabelValues("verified").Inc()
	r.setVerified(canonical, *coords)
	c := *coords
	return &c
}

// fetchSuggestions runs after the debounce settles. Results are applied
// only if this fetch is still the latest and the user is still typing.
func (r *Resolver) fetchSuggestions(gen int, text string) {
	names, err := r.geocoder.Suggest(r.ctx, text)
	if err != nil {
		// No suggestions is not a failure worth surfacing.
		r.logger.Debug("suggestion fetch failed", "text", text, "error", err)
		names = nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closedLocked() || gen != r.generation || r.state.Status != domain.LocationTyping {
		return
	}
	r.state.Suggestions = names
	r.notifyLocked()
}

func (r *Resolver) setVerified(text string, coords domain.Coordinates) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closedLocked() {
		return
	}
	r.stopDebounceLocked()
	r.state = State{
		Text:        text,
		Coordinates: &coords,
		Status:      domain.LocationVerified,
	}
	r.notifyLocked()
}

func (r *Resolver) setError(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closedLocked() {
		return
	}
	r.stopDebounceLocked()
	r.state = State{
		Text:   r.state.Text,
		Status: domain.LocationError,
		Err:    msg,
	}
	r.notifyLocked()
}

func (r *Resolver) closedLocked() bool {
	return r.ctx.Err() != nil
}

func (r *Resolver) stopDebounceLocked() {
	if r.debounce != nil {
		r.debounce.Stop()
		r.debounce = nil
	}
}

func (r *Resolver) snapshotLocked() State {
	snap := r.state
	if snap.Coordinates != nil {
		c := *snap.Coordinates
		snap.Coordinates = &c
	}
	if snap.Suggestions != nil {
		snap.Suggestions = append([]string(nil), snap.Suggestions...)
	}
	return snap
}

// notifyLocked publishes the current state, dropping any unread older
// snapshot so the channel never blocks a state transition.
func (r *Resolver) notifyLocked() {
	snap := r.snapshotLocked()
	for {
		select {
		case r.updates <- snap:
			return
		default:
		}
		select {
		case <-r.updates:
		default:
		}
	}
}
