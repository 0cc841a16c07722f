package domain

import "context"

// Geocoder translates free text to coordinates and back.
type Geocoder interface {
	// Forward resolves free text to a best-match point. A nil result with a
	// nil error means the provider answered and found nothing.
	Forward(ctx context.Context, text string) (*Coordinates, error)

	// Reverse resolves a point to a human-readable address. When the
	// provider answers without an address the implementation returns a
	// synthesized fallback string rather than an error.
	Reverse(ctx context.Context, lat, lng float64) (string, error)

	// Suggest returns up to five display-name candidates for partial text.
	// Queries shorter than MinSuggestQueryLen return an empty slice without
	// a provider call.
	Suggest(ctx context.Context, query string) ([]string, error)
}
