// Package geocache provides the forward-geocode cache: an explicit
// injected capability rather than ambient global state. Keys are normalized
// location strings; values record either a resolved point or a confirmed
// "no result" so unresolvable text is never queried twice.
package geocache

import "github.com/localmart/listing-intake/internal/domain"

// Entry is one cached forward-geocode outcome. A nil Coordinates records a
// negative result: the provider answered and found nothing.
type Entry struct {
	Coordinates *domain.Coordinates `json:"coordinates"`
}

// Store is the cache capability handed to the geocoding layer.
type Store interface {
	// Get returns the entry for key and whether one exists.
	Get(key string) (Entry, bool, error)

	// Set records the entry for key, overwriting any previous value.
	Set(key string, e Entry) error
}
