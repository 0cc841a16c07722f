package domain

import (
	"fmt"
	"strings"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LocationStatus enumerates the resolver states. The states are mutually
// exclusive; Verified is the only state in which coordinates are present.
type LocationStatus string

const (
	LocationIdle        LocationStatus = "idle"
	LocationTyping      LocationStatus = "typing"
	LocationVerifying   LocationStatus = "verifying"
	LocationGeolocating LocationStatus = "geolocating"
	LocationVerified    LocationStatus = "verified"
	LocationError       LocationStatus = "error"
)

// MinSuggestQueryLen is the shortest input that triggers a suggestion fetch.
// Shorter queries return no candidates without touching the provider.
const MinSuggestQueryLen = 3

// NormalizeLocationKey produces the cache key for a free-text location.
func NormalizeLocationKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// FallbackAddress synthesizes a display string for a point the provider
// could not name.
func FallbackAddress(lat, lng float64) string {
	return fmt.Sprintf("Location near %.4f, %.4f", lat, lng)
}
