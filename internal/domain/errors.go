package domain

import (
	"errors"
	"fmt"
)

// GeocodeFailure classifies why a geocoding call failed, after retries.
type GeocodeFailure string

const (
	FailureRateLimited       GeocodeFailure = "rate_limited"
	FailureServerUnavailable GeocodeFailure = "server_unavailable"
	FailureNetwork           GeocodeFailure = "network"
	FailureBadRequest        GeocodeFailure = "bad_request"
	FailureGeneric           GeocodeFailure = "generic"
)

// GeocodingError is a transport or provider failure with retries exhausted.
// Message is what the UI shows; Err preserves the underlying cause.
type GeocodingError struct {
	Cause  GeocodeFailure
	Status int // HTTP status when the provider answered, 0 otherwise
	Err    error
}

func (e *GeocodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("geocoding: %s: %v", e.Cause, e.Err)
	}
	return fmt.Sprintf("geocoding: %s", e.Cause)
}

func (e *GeocodingError) Unwrap() error { return e.Err }

// Message returns the user-facing text for this failure class.
func (e *GeocodingError) Message() string {
	switch e.Cause {
	case FailureRateLimited:
		return "The location service is busy right now. Please try again in a moment."
	case FailureServerUnavailable:
		return "The location service is temporarily unavailable. Please try again later."
	case FailureNetwork:
		return "Could not reach the location service. Check your connection and try again."
	case FailureBadRequest:
		return "That location could not be understood. Try rephrasing the address."
	default:
		return "Something went wrong while looking up that location. Please try again."
	}
}

// ErrLocationNotFound means the provider answered with zero matches.
// Distinct from GeocodingError: the service worked, the text did not resolve.
var ErrLocationNotFound = errors.New("location not found")

// LocationNotFoundMessage guides the user toward the map picker.
const LocationNotFoundMessage = "Could not find this location. Check the spelling or pick a point on the map."

// Platform geolocation failures. Never retried.
var (
	ErrGeolocationUnsupported = errors.New("geolocation not supported")
	ErrGeolocationDenied      = errors.New("geolocation permission denied")
	ErrGeolocationUnavailable = errors.New("geolocation position unavailable")
	ErrGeolocationTimeout     = errors.New("geolocation timed out")
)

// GeolocationMessage maps a platform geolocation failure to user-facing text.
func GeolocationMessage(err error) string {
	switch {
	case errors.Is(err, ErrGeolocationUnsupported):
		return "Location services are not available on this device."
	case errors.Is(err, ErrGeolocationDenied):
		return "Location permission was denied. Allow location access or enter an address."
	case errors.Is(err, ErrGeolocationUnavailable):
		return "Your position could not be determined. Try entering an address instead."
	case errors.Is(err, ErrGeolocationTimeout):
		return "Finding your location took too long. Try again or enter an address."
	default:
		return "Could not get your location."
	}
}

// UserMessage extracts display text from any resolver-facing error.
func UserMessage(err error) string {
	var ge *GeocodingError
	switch {
	case errors.As(err, &ge):
		return ge.Message()
	case errors.Is(err, ErrLocationNotFound):
		return LocationNotFoundMessage
	case errors.Is(err, ErrGeolocationUnsupported),
		errors.Is(err, ErrGeolocationDenied),
		errors.Is(err, ErrGeolocationUnavailable),
		errors.Is(err, ErrGeolocationTimeout):
		return GeolocationMessage(err)
	default:
		return (&GeocodingError{Cause: FailureGeneric}).Message()
	}
}
