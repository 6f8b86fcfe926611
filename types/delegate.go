package types

// Delegate receives notifications from the location service. All methods
// are invoked from the service's serialization point; implementations
// should return quickly and must not call back into the service while
// handling a notification.
type Delegate interface {
	// OnError is called when a provider reports a failure.
	OnError(err error)
	// OnAuthorizationChanged is called when the system authorization
	// state changes.
	OnAuthorizationChanged(state AuthorizationState)
	// OnLocationUpdate is called after an observation passes the
	// throttle and is reported. old is nil for the first report.
	OnLocationUpdate(newLoc Location, old *Location)
}

// NopDelegate is a null-object Delegate. Embed it to implement only the
// notifications you care about.
type NopDelegate struct{}

func (NopDelegate) OnError(error)                             {}
func (NopDelegate) OnAuthorizationChanged(AuthorizationState) {}
func (NopDelegate) OnLocationUpdate(Location, *Location)      {}
