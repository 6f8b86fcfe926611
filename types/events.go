package types

import (
	"context"
	"encoding/json"
	"time"
)

type EventType string

const (
	CategoryLocation = "LOCATION"

	// Location events
	EventTypeLocationUpdated EventType = CategoryLocation + "_UPDATED"
)

// BaseEvent carries the fields common to every analytics event.
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Version   int       `json:"version"`
}

// EventMetadata for tracking and debugging
type EventMetadata struct {
	CorrelationID string            `json:"correlationId,omitempty"`
	Source        string            `json:"source"`
	Tags          map[string]string `json:"tags,omitempty"`
}

// Event is the envelope delivered to the analytics pipeline.
type Event struct {
	BaseEvent
	Metadata EventMetadata   `json:"metadata"`
	Payload  json.RawMessage `json:"payload"`
}

// AnalyticsSink accepts finished location event records. Submissions are
// fire-and-forget from the caller's perspective; delivery and retry are
// the sink's responsibility.
type AnalyticsSink interface {
	Submit(ctx context.Context, event LocationEvent) error
}
