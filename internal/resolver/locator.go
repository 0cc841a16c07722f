package resolver

import (
	"context"

	"github.com/localmart/listing-intake/internal/domain"
)

// Locator abstracts the platform location service. Implementations report
// failures with the domain geolocation sentinels (ErrGeolocationDenied,
// ErrGeolocationUnavailable, ErrGeolocationTimeout) so the resolver can
// surface a cause-specific message. Locator failures are never retried.
type Locator interface {
	Current(ctx context.Context) (domain.Coordinates, error)
}
