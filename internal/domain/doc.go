// Package domain models the listing-intake core: location resolution and
// media ingestion for marketplace listings.
//
// # Location resolution
//
// A listing carries one free-text address per location field. The resolver
// (internal/resolver) turns that text into coordinates through a
// [Geocoder], which the nominatim adapter implements against the OSM
// Nominatim API:
//
//	forward:  GET /search?format=json&q=<text>&limit=1   → [{lat, lon}]
//	reverse:  GET /reverse?format=json&lat=..&lon=..&zoom=18&addressdetails=1
//	suggest:  GET /search?format=json&q=<text>&limit=5   → [{display_name}]
//
// Forward lookups are cached under a normalized key (lowercased, trimmed
// text) including negative results, so a string the provider has confirmed
// unresolvable is never queried twice. Reverse lookups that succeed without
// an address synthesize "Location near <lat>, <lng>" at four decimal places
// instead of failing: a coordinate the user picked is always presentable.
//
// # Media ingestion
//
// Each listing gallery is backed by one media pipeline (internal/media).
// Files are validated at acceptance (type, size, gallery capacity), then
// encoded concurrently into a durable base64 data-URL representation.
// A [MediaItem] is always in exactly one of three states: Uploading with a
// progress percentage, Complete with a FinalRef, or Error with a message.
//
// # Events
//
// Verified locations and completed media encodes are published downstream
// as [IntakeEvent] values for the marketplace search indexer.
package domain
