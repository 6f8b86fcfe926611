package services

import (
	"sync"

	apperrors "github.com/atlas-mobile/location-service/errors"
	"github.com/atlas-mobile/location-service/logger"
	"github.com/atlas-mobile/location-service/platform"
	"github.com/atlas-mobile/location-service/types"
	"go.uber.org/zap"
)

// Provider names carried through to analytics events.
const (
	ProviderNameStandard          = "standard"
	ProviderNameSignificantChange = "significant"
)

// Provider is one location-sensing adapter owned by the location service.
type Provider interface {
	// Start begins updates. Starting an already-Updating provider is a
	// success no-op.
	Start() error
	// Stop halts updates. Stopping a stopped provider is a no-op.
	Stop()
	// Status reports the provider's current state.
	Status() types.ProviderStatus
	// Name identifies the provider in events and logs.
	Name() string
	// Location returns the most recent raw fix from the underlying
	// source, which may be fresher than anything reported.
	Location() (types.Location, bool)
	// SetPurpose sets the string shown to the user when the platform
	// prompts for permission.
	SetPurpose(purpose string)
}

// TunableProvider is a Provider accepting accuracy and distance tuning.
type TunableProvider interface {
	Provider
	DesiredAccuracy() float64
	SetDesiredAccuracy(meters float64) error
	DistanceFilter() float64
	SetDistanceFilter(meters float64) error
}

// ProviderDelegate receives callbacks marshaled from provider adapters.
// The location service implements it and serializes every call.
type ProviderDelegate interface {
	ProviderLocationUpdated(provider string, loc types.Location)
	ProviderFailed(provider string, err error, fatal bool)
	ProviderAuthorizationChanged(provider string, state types.AuthorizationState)
}

// baseProvider implements the adapter behavior shared by both providers:
// status bookkeeping, idempotent start/stop and callback forwarding.
type baseProvider struct {
	name     string
	source   platform.Source
	delegate ProviderDelegate
	log      *zap.SugaredLogger

	mu      sync.Mutex
	status  types.ProviderStatus
	purpose string
}

func newBaseProvider(name string, source platform.Source, delegate ProviderDelegate) baseProvider {
	return baseProvider{
		name:     name,
		source:   source,
		delegate: delegate,
		log:      logger.GetLogger().Named(name),
		status:   types.ProviderStatusNotUpdating,
	}
}

func (p *baseProvider) Start() error {
	p.mu.Lock()
	if p.status == types.ProviderStatusUpdating {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	if err := p.source.Start(); err != nil {
		return apperrors.ProviderStartFailed(p.name, err)
	}

	p.mu.Lock()
	p.status = types.ProviderStatusUpdating
	p.mu.Unlock()
	p.log.Infow("Provider started")
	return nil
}

func (p *baseProvider) Stop() {
	p.stopWithStatus(types.ProviderStatusNotUpdating)
}

// shutDown stops the provider and marks it shut down until authorization
// changes externally.
func (p *baseProvider) shutDown() {
	p.stopWithStatus(types.ProviderStatusShutDown)
}

func (p *baseProvider) stopWithStatus(status types.ProviderStatus) {
	p.mu.Lock()
	if p.status != types.ProviderStatusUpdating {
		if p.status != status {
			p.status = status
		}
		p.mu.Unlock()
		return
	}
	p.status = status
	p.mu.Unlock()

	p.source.Stop()
	p.log.Infow("Provider stopped", "status", status)
}

// reset returns a shut-down provider to the idle state.
func (p *baseProvider) reset() {
	p.mu.Lock()
	if p.status == types.ProviderStatusShutDown {
		p.status = types.ProviderStatusNotUpdating
	}
	p.mu.Unlock()
}

func (p *baseProvider) Status() types.ProviderStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *baseProvider) Name() string {
	return p.name
}

func (p *baseProvider) Location() (types.Location, bool) {
	return p.source.Location()
}

func (p *baseProvider) SetPurpose(purpose string) {
	p.mu.Lock()
	p.purpose = purpose
	p.mu.Unlock()
}

func (p *baseProvider) Purpose() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.purpose
}

// platform.Observer implementation. Calls arrive on source goroutines and
// are forwarded to the delegate, which serializes them.

func (p *baseProvider) SourceLocation(loc types.Location) {
	p.delegate.ProviderLocationUpdated(p.name, loc)
}

func (p *baseProvider) SourceError(err error, fatal bool) {
	if fatal {
		// A hard sensing failure leaves the provider idle; the next
		// start attempt is independent.
		p.mu.Lock()
		p.status = types.ProviderStatusNotUpdating
		p.mu.Unlock()
	}
	p.delegate.ProviderFailed(p.name, err, fatal)
}

func (p *baseProvider) SourceAuthorizationChanged(state types.AuthorizationState) {
	p.delegate.ProviderAuthorizationChanged(p.name, state)
}

// StandardProvider wraps the continuous high-accuracy source. It accepts
// distance-filter and desired-accuracy tuning.
type StandardProvider struct {
	baseProvider

	tuneMu          sync.Mutex
	desiredAccuracy float64
	distanceFilter  float64
}

// NewStandardProvider creates the continuous provider adapter and
// subscribes it to the source.
func NewStandardProvider(source platform.Source, delegate ProviderDelegate, desiredAccuracy, distanceFilter float64) *StandardProvider {
	p := &StandardProvider{
		baseProvider:    newBaseProvider(ProviderNameStandard, source, delegate),
		desiredAccuracy: desiredAccuracy,
		distanceFilter:  distanceFilter,
	}
	source.Subscribe(p)
	return p
}

func (p *StandardProvider) DesiredAccuracy() float64 {
	p.tuneMu.Lock()
	defer p.tuneMu.Unlock()
	return p.desiredAccuracy
}

func (p *StandardProvider) SetDesiredAccuracy(meters float64) error {
	if meters < 0 {
		return apperrors.ValidationFailed("invalid desired accuracy", "value must be non-negative")
	}
	p.tuneMu.Lock()
	p.desiredAccuracy = meters
	p.tuneMu.Unlock()
	return nil
}

func (p *StandardProvider) DistanceFilter() float64 {
	p.tuneMu.Lock()
	defer p.tuneMu.Unlock()
	return p.distanceFilter
}

func (p *StandardProvider) SetDistanceFilter(meters float64) error {
	if meters < 0 {
		return apperrors.ValidationFailed("invalid distance filter", "value must be non-negative")
	}
	p.tuneMu.Lock()
	p.distanceFilter = meters
	p.tuneMu.Unlock()
	return nil
}

// SignificantChangeProvider wraps the low-power event-driven source. It
// exposes no tuning parameters.
type SignificantChangeProvider struct {
	baseProvider
}

// NewSignificantChangeProvider creates the significant-change provider
// adapter and subscribes it to the source.
func NewSignificantChangeProvider(source platform.Source, delegate ProviderDelegate) *SignificantChangeProvider {
	p := &SignificantChangeProvider{
		baseProvider: newBaseProvider(ProviderNameSignificantChange, source, delegate),
	}
	source.Subscribe(p)
	return p
}
