// Package platform abstracts the host location API. The service never
// talks to device sensors directly; it consumes these interfaces and the
// host environment supplies the implementations.
package platform

import (
	"github.com/atlas-mobile/location-service/types"
)

// Observer receives asynchronous callbacks from a Source. Callbacks may
// arrive on arbitrary goroutines; consumers are responsible for
// serializing them.
type Observer interface {
	// SourceLocation delivers a new fix.
	SourceLocation(loc types.Location)
	// SourceError delivers a sensing failure. fatal indicates the source
	// cannot continue delivering fixes.
	SourceError(err error, fatal bool)
	// SourceAuthorizationChanged delivers a change in the system
	// authorization state.
	SourceAuthorizationChanged(state types.AuthorizationState)
}

// Source is one platform location-sensing mechanism. Implementations run
// their sensing on their own goroutines and deliver results through the
// subscribed Observer.
type Source interface {
	// Start begins delivering fixes. Starting an already-started source
	// is a no-op.
	Start() error
	// Stop halts delivery. Stopping a stopped source is a no-op.
	Stop()
	// Location returns the most recent raw fix, if one is available.
	// This may be fresher than anything reported through the Observer.
	Location() (types.Location, bool)
	// Subscribe registers the observer for callbacks. Only one observer
	// is supported; a second call replaces the first.
	Subscribe(obs Observer)
}

// Monitor exposes read-only system permission queries. The service
// consults these but does not own them.
type Monitor interface {
	AuthorizationState() types.AuthorizationState
	ServicesEnabled() bool
	WillPromptUser() bool
}
