package types

import (
	"strconv"
	"time"
)

// Location is an immutable snapshot of a device position reported by a
// location provider.
type Location struct {
	Latitude           float64   `json:"latitude"`
	Longitude          float64   `json:"longitude"`
	HorizontalAccuracy float64   `json:"horizontalAccuracy"`
	VerticalAccuracy   float64   `json:"verticalAccuracy"`
	Altitude           float64   `json:"altitude"`
	Course             float64   `json:"course"`
	Speed              float64   `json:"speed"`
	Timestamp          time.Time `json:"timestamp"`
}

// ProviderStatus describes whether a location provider is currently
// delivering updates.
type ProviderStatus string

const (
	ProviderStatusNotUpdating ProviderStatus = "NOT_UPDATING"
	ProviderStatusUpdating    ProviderStatus = "UPDATING"
	ProviderStatusShutDown    ProviderStatus = "SHUT_DOWN"
)

// AuthorizationState reflects the system-level user permission for
// location access. The platform owns it; the service only reads it.
type AuthorizationState string

const (
	AuthorizationNotDetermined AuthorizationState = "NOT_DETERMINED"
	AuthorizationDenied        AuthorizationState = "DENIED"
	AuthorizationAuthorized    AuthorizationState = "AUTHORIZED"
)

// UpdateType tags why an observation occurred.
type UpdateType string

const (
	// UpdateTypeContinuous marks updates from the standard (continuous) provider.
	UpdateTypeContinuous UpdateType = "CONTINUOUS"
	// UpdateTypeChange marks updates from the significant-change provider.
	UpdateTypeChange UpdateType = "CHANGE"
	// UpdateTypeSingle marks one-shot location requests.
	UpdateTypeSingle UpdateType = "SINGLE"
	// UpdateTypeNone marks locations reported directly to analytics
	// without a known trigger.
	UpdateTypeNone UpdateType = "NONE"
)

// LastReportedLocation pairs the most recently reported location with the
// time it was reported. Owned exclusively by the location service.
type LastReportedLocation struct {
	Location   Location  `json:"location"`
	ReportedAt time.Time `json:"reportedAt"`
}

// LocationEvent is the finished record handed to the analytics sink.
// Coordinates are serialized as strings with seven digits of precision,
// which gives sub-meter resolution at the equator.
type LocationEvent struct {
	Latitude           string     `json:"lat"`
	Longitude          string     `json:"long"`
	HorizontalAccuracy string     `json:"h_accuracy"`
	VerticalAccuracy   string     `json:"v_accuracy"`
	UpdateType         UpdateType `json:"update_type"`
	Provider           string     `json:"provider"`
	DistanceFilter     string     `json:"update_dist,omitempty"`
	DesiredAccuracy    string     `json:"requested_accuracy,omitempty"`
	Foreground         bool       `json:"foreground"`
	Timestamp          time.Time  `json:"timestamp"`
}

// SevenDigitString formats a coordinate with seven digits after the
// decimal point.
func SevenDigitString(v float64) string {
	return strconv.FormatFloat(v, 'f', 7, 64)
}

// AccuracyString formats an accuracy or distance value for an analytics
// payload.
func AccuracyString(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}

// NewLocationEvent builds a LocationEvent from a location and the
// provider metadata captured at report time.
func NewLocationEvent(loc Location, updateType UpdateType, provider string, foreground bool) LocationEvent {
	return LocationEvent{
		Latitude:           SevenDigitString(loc.Latitude),
		Longitude:          SevenDigitString(loc.Longitude),
		HorizontalAccuracy: AccuracyString(loc.HorizontalAccuracy),
		VerticalAccuracy:   AccuracyString(loc.VerticalAccuracy),
		UpdateType:         updateType,
		Provider:           provider,
		Foreground:         foreground,
		Timestamp:          loc.Timestamp,
	}
}
