package domain

import (
	"time"

	"github.com/google/uuid"
)

// Intake event types published for the downstream search indexer.
const (
	EventLocationVerified = "location.verified"
	EventMediaEncoded     = "media.encoded"
)

// IntakeEvent is the envelope published to the events topic. Exactly one of
// Location or Media is set, matching Type.
type IntakeEvent struct {
	ID         string           `json:"id"`
	Type       string           `json:"type"`
	OccurredAt time.Time        `json:"occurred_at"`
	Location   *LocationPayload `json:"location,omitempty"`
	Media      *MediaPayload    `json:"media,omitempty"`
}

// LocationPayload describes a successfully verified location.
type LocationPayload struct {
	Query   string  `json:"query"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// MediaPayload describes a media item that finished encoding.
type MediaPayload struct {
	ItemID    string    `json:"item_id"`
	Kind      MediaKind `json:"kind"`
	Name      string    `json:"name"`
	SizeBytes int64     `json:"size_bytes"`
}

// NewLocationVerifiedEvent builds a location.verified event.
func NewLocationVerifiedEvent(query, address string, coords Coordinates, now time.Time) IntakeEvent {
	return IntakeEvent{
		ID:         uuid.NewString(),
		Type:       EventLocationVerified,
		OccurredAt: now.UTC(),
		Location: &LocationPayload{
			Query:   query,
			Address: address,
			Lat:     coords.Lat,
			Lng:     coords.Lng,
		},
	}
}

// NewMediaEncodedEvent builds a media.encoded event from an item snapshot.
func NewMediaEncodedEvent(item MediaItem, now time.Time) IntakeEvent {
	return IntakeEvent{
		ID:         uuid.NewString(),
		Type:       EventMediaEncoded,
		OccurredAt: now.UTC(),
		Media: &MediaPayload{
			ItemID:    item.ID,
			Kind:      item.Kind,
			Name:      item.Name,
			SizeBytes: item.SizeBytes,
		},
	}
}
