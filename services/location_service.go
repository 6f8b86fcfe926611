package services

import (
	"context"
	"sync"
	"time"

	"github.com/atlas-mobile/location-service/config"
	apperrors "github.com/atlas-mobile/location-service/errors"
	"github.com/atlas-mobile/location-service/logger"
	"github.com/atlas-mobile/location-service/platform"
	"github.com/atlas-mobile/location-service/store"
	"github.com/atlas-mobile/location-service/types"
	"go.uber.org/zap"
)

// singleResult resolves one waiter of a one-shot location request.
type singleResult struct {
	loc types.Location
	err error
}

// singleRequest tracks an outstanding one-shot location request. Multiple
// concurrent callers share one request and are all resolved by the first
// observation, error or cancellation.
type singleRequest struct {
	waiters []chan singleResult
	// startedProvider records that the standard provider was started
	// solely for this request and should be stopped when it resolves.
	startedProvider bool
	// automatic marks foreground-triggered requests, whose observations
	// are classified Continuous and throttled.
	automatic bool
}

// LocationService coordinates both location providers, enforces the
// authorization policy, throttles observations and dispatches validated
// observations to the analytics sink and the registered delegate.
//
// One mutex serializes all state transitions. Provider callbacks, API
// calls and host events all funnel through it; delegate and sink calls
// are made outside the lock.
type LocationService struct {
	log      *zap.SugaredLogger
	monitor  platform.Monitor
	sink     types.AnalyticsSink
	settings store.SettingsStore

	standard  *StandardProvider
	sigChange *SignificantChangeProvider

	mu             sync.Mutex
	cfg            config.LocationConfig
	serviceEnabled bool
	authState      types.AuthorizationState
	delegate       types.Delegate
	last           *types.LastReportedLocation
	single         *singleRequest
	// foreground tracks the host's last foreground/background signal and
	// is recorded on every analytics event.
	foreground bool
	// deferred start flags, retried when authorization recovers
	deferredStandard  bool
	deferredSigChange bool
}

// NewLocationService constructs the service with the given purpose and
// configuration, wiring both provider adapters to their platform sources.
// The persisted service-enabled flag is loaded from the settings store,
// falling back to the configured initial value.
func NewLocationService(
	cfg config.LocationConfig,
	monitor platform.Monitor,
	standardSource platform.Source,
	changeSource platform.Source,
	sink types.AnalyticsSink,
	settings store.SettingsStore,
) *LocationService {
	s := &LocationService{
		log:        logger.GetLogger().Named("location"),
		monitor:    monitor,
		sink:       sink,
		settings:   settings,
		cfg:        cfg,
		delegate:   types.NopDelegate{},
		foreground: true,
	}

	s.standard = NewStandardProvider(standardSource, s, cfg.DesiredAccuracyMeters, cfg.DistanceFilterMeters)
	s.sigChange = NewSignificantChangeProvider(changeSource, s)
	s.standard.SetPurpose(cfg.Purpose)
	s.sigChange.SetPurpose(cfg.Purpose)

	enabled, err := settings.LoadServiceEnabled(context.Background(), cfg.ServiceEnabled)
	if err != nil {
		s.log.Warnw("Failed to load persisted service-enabled flag, using configured default",
			"default", cfg.ServiceEnabled, "error", err)
	}
	s.serviceEnabled = enabled
	s.authState = monitor.AuthorizationState()

	return s
}

// SetDelegate registers the delegate receiving service notifications.
// Passing nil restores the no-op delegate.
func (s *LocationService) SetDelegate(d types.Delegate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d == nil {
		d = types.NopDelegate{}
	}
	s.delegate = d
}

// --- Starting and stopping location services ---

// StartReportingStandardLocation starts the continuous high-accuracy
// provider. A policy denial records a deferred start, retried when
// authorization recovers, and is returned as an AuthorizationDenied
// error; it is not reported through the delegate's error callback.
func (s *LocationService) StartReportingStandardLocation() error {
	return s.startProvider(s.standard, &s.deferredStandard)
}

// StopReportingStandardLocation stops the continuous provider and
// cancels any outstanding one-shot request.
func (s *LocationService) StopReportingStandardLocation() {
	s.mu.Lock()
	s.deferredStandard = false
	single := s.takeSingleLocked()
	s.mu.Unlock()

	s.resolveSingle(single, singleResult{err: apperrors.RequestCanceled("single location request canceled by stop")})
	s.standard.Stop()
	s.log.Infow("Stopped standard location")
}

// StartReportingSignificantLocationChanges starts the low-power
// event-driven provider.
func (s *LocationService) StartReportingSignificantLocationChanges() error {
	return s.startProvider(s.sigChange, &s.deferredSigChange)
}

// StopReportingSignificantLocationChanges stops the event-driven provider.
func (s *LocationService) StopReportingSignificantLocationChanges() {
	s.mu.Lock()
	s.deferredSigChange = false
	s.mu.Unlock()

	s.sigChange.Stop()
	s.log.Infow("Stopped significant-change location")
}

// startProvider applies the authorization policy, then starts the
// adapter. deferred is guarded by s.mu.
func (s *LocationService) startProvider(p Provider, deferred *bool) error {
	s.mu.Lock()
	s.refreshAuthLocked()
	decision := EvaluateStart(s.authState, s.serviceEnabled, s.cfg.PromptUserForLocationServices)
	if decision == DecisionDeny {
		*deferred = true
		state := s.authState
		s.mu.Unlock()
		s.log.Infow("Start deferred by policy", "provider", p.Name(), "auth_state", state)
		return apperrors.AuthorizationDenied("location service start denied by policy")
	}
	*deferred = false
	s.mu.Unlock()

	if decision == DecisionProceedWithPrompt {
		s.log.Infow("Starting provider; platform may prompt user",
			"provider", p.Name(), "will_prompt", s.monitor.WillPromptUser())
	}

	if bp, ok := p.(interface{ reset() }); ok {
		bp.reset()
	}
	if err := p.Start(); err != nil {
		s.log.Errorw("Provider start failed", "provider", p.Name(), "error", err)
		s.notifyError(err)
		return err
	}
	return nil
}

// --- One-shot location ---

// ReportCurrentLocation starts the standard provider long enough to
// obtain a single location, reports it, and stops the provider again if
// it was started solely for this request. The wait is bounded by ctx and
// the configured single-location timeout.
func (s *LocationService) ReportCurrentLocation(ctx context.Context) (types.Location, error) {
	return s.requestLocation(ctx, false)
}

// HandleAppForeground triggers an automatic one-shot request when
// automatic foreground location is enabled. The throttle still governs
// whether the resulting observation is reported.
func (s *LocationService) HandleAppForeground(ctx context.Context) {
	s.mu.Lock()
	s.foreground = true
	enabled := s.cfg.AutomaticLocationOnForegroundEnabled
	s.mu.Unlock()
	if !enabled {
		return
	}

	if _, err := s.requestLocation(ctx, true); err != nil {
		s.log.Debugw("Automatic foreground location request did not complete", "error", err)
	}
}

// HandleAppBackground records that the host app left the foreground, so
// subsequent analytics events carry the background flag.
func (s *LocationService) HandleAppBackground() {
	s.mu.Lock()
	s.foreground = false
	s.mu.Unlock()
}

func (s *LocationService) requestLocation(ctx context.Context, automatic bool) (types.Location, error) {
	s.mu.Lock()
	s.refreshAuthLocked()
	decision := EvaluateStart(s.authState, s.serviceEnabled, s.cfg.PromptUserForLocationServices)
	if decision == DecisionDeny {
		s.mu.Unlock()
		return types.Location{}, apperrors.AuthorizationDenied("location access denied")
	}

	timeout := s.cfg.SingleLocationTimeout()
	ch := make(chan singleResult, 1)
	startProvider := false
	if s.single == nil {
		startProvider = s.standard.Status() != types.ProviderStatusUpdating
		s.single = &singleRequest{
			startedProvider: startProvider,
			automatic:       automatic,
		}
	}
	s.single.waiters = append(s.single.waiters, ch)
	s.mu.Unlock()

	if startProvider {
		s.standard.reset()
		if err := s.standard.Start(); err != nil {
			s.mu.Lock()
			single := s.takeSingleLocked()
			s.mu.Unlock()
			s.resolveSingle(single, singleResult{err: err})
			s.notifyError(err)
			return types.Location{}, err
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.err != nil {
			return types.Location{}, res.err
		}
		return res.loc, nil
	case <-ctx.Done():
		s.cancelSingle(apperrors.Wrap(ctx.Err(), apperrors.RequestCanceledError, "single location request canceled"))
		return types.Location{}, apperrors.Wrap(ctx.Err(), apperrors.RequestCanceledError, "single location request canceled")
	case <-timer.C:
		err := apperrors.ObservationTimeout("no observation arrived within the bounded wait")
		s.cancelSingle(err)
		s.notifyError(err)
		return types.Location{}, err
	}
}

// cancelSingle resolves an outstanding one-shot request with err and
// releases the provider if it was started for the request.
func (s *LocationService) cancelSingle(err error) {
	s.mu.Lock()
	single := s.takeSingleLocked()
	s.mu.Unlock()
	s.resolveSingle(single, singleResult{err: err})
}

// takeSingleLocked detaches the outstanding one-shot request. Caller
// holds s.mu.
func (s *LocationService) takeSingleLocked() *singleRequest {
	single := s.single
	s.single = nil
	return single
}

// resolveSingle fans the result out to every waiter and stops the
// standard provider when this request started it (or when configured to
// stop an independently running provider).
func (s *LocationService) resolveSingle(single *singleRequest, res singleResult) {
	if single == nil {
		return
	}
	for _, ch := range single.waiters {
		select {
		case ch <- res:
		default:
		}
	}

	s.mu.Lock()
	stopProvider := single.startedProvider || s.cfg.SingleRequestStopsContinuous
	s.mu.Unlock()
	if stopProvider {
		s.standard.Stop()
	}
}

// --- Reporting path ---

// ReportLocationToAnalytics sends a location directly to the analytics
// sink, attributed to the named provider. Direct reports are never
// throttled.
func (s *LocationService) ReportLocationToAnalytics(loc types.Location, provider string) {
	s.reportLocation(loc, types.UpdateTypeNone, provider, false)
}

// reportLocation is the single chokepoint every reporting path funnels
// through. It applies the throttle, and it is the only place the
// last-reported location is mutated, which keeps it consistent with
// analytics dispatch.
func (s *LocationService) reportLocation(loc types.Location, updateType types.UpdateType, provider string, automatic bool) {
	s.mu.Lock()
	minInterval := s.cfg.MinimumTimeBetweenForegroundUpdates()
	if !ShouldReport(loc, s.last, updateType, minInterval, automatic) {
		s.mu.Unlock()
		s.log.Debugw("Observation suppressed by throttle",
			"provider", provider, "update_type", updateType)
		return
	}

	var prev *types.Location
	if s.last != nil {
		p := s.last.Location
		prev = &p
	}

	// The authoritative location is monotonically replaced, never rolled
	// back to an older observation. A stale fix is still dispatched; it
	// just does not become the last reported location.
	if s.last == nil || !loc.Timestamp.Before(s.last.Location.Timestamp) {
		s.last = &types.LastReportedLocation{Location: loc, ReportedAt: time.Now()}
	} else {
		s.log.Debugw("Keeping newer authoritative location", "provider", provider)
	}
	delegate := s.delegate
	foreground := s.foreground
	s.mu.Unlock()

	event := types.NewLocationEvent(loc, updateType, provider, foreground)
	if provider == ProviderNameStandard {
		event.DesiredAccuracy = types.AccuracyString(s.standard.DesiredAccuracy())
		event.DistanceFilter = types.AccuracyString(s.standard.DistanceFilter())
	}

	if err := s.sink.Submit(context.Background(), event); err != nil {
		// Fire-and-forget: a sink failure never fails the reporting path.
		s.log.Warnw("Analytics submission failed", "provider", provider, "error", err)
	}

	delegate.OnLocationUpdate(loc, prev)
}

// --- Provider delegate (serialization point for provider callbacks) ---

// ProviderLocationUpdated classifies and reports an observation from a
// provider adapter.
func (s *LocationService) ProviderLocationUpdated(provider string, loc types.Location) {
	updateType := types.UpdateTypeContinuous
	automatic := false
	var single *singleRequest

	s.mu.Lock()
	switch provider {
	case ProviderNameSignificantChange:
		updateType = types.UpdateTypeChange
	case ProviderNameStandard:
		if s.single != nil {
			single = s.takeSingleLocked()
			if single.automatic {
				// Foreground-triggered observations stay Continuous so
				// the minimum foreground interval governs them.
				automatic = true
			} else {
				updateType = types.UpdateTypeSingle
			}
		}
	}
	s.mu.Unlock()

	s.reportLocation(loc, updateType, provider, automatic)
	s.resolveSingle(single, singleResult{loc: loc})
}

// ProviderFailed forwards a provider error to the delegate. A fatal
// error has already returned the provider to idle; an outstanding
// one-shot on the standard provider resolves with the error.
func (s *LocationService) ProviderFailed(provider string, err error, fatal bool) {
	if fatal {
		err = apperrors.ProviderFault(provider, err)
	}
	s.log.Errorw("Provider reported an error", "provider", provider, "fatal", fatal, "error", err)

	if provider == ProviderNameStandard {
		s.mu.Lock()
		single := s.takeSingleLocked()
		s.mu.Unlock()
		s.resolveSingle(single, singleResult{err: err})
	}

	s.notifyError(err)
}

// ProviderAuthorizationChanged refreshes the cached authorization state.
// Denial force-stops both providers and fails any pending one-shot; a
// recovery to Authorized retries deferred starts.
func (s *LocationService) ProviderAuthorizationChanged(provider string, state types.AuthorizationState) {
	s.mu.Lock()
	if state == s.authState {
		// Both adapters observe the same system state; notify once.
		s.mu.Unlock()
		return
	}
	prev := s.authState
	s.authState = state
	delegate := s.delegate

	var single *singleRequest
	retryStandard, retrySigChange := false, false
	switch {
	case state == types.AuthorizationDenied:
		single = s.takeSingleLocked()
	case state == types.AuthorizationAuthorized &&
		(prev == types.AuthorizationDenied || prev == types.AuthorizationNotDetermined):
		retryStandard = s.deferredStandard
		retrySigChange = s.deferredSigChange
	}
	s.mu.Unlock()

	s.log.Infow("Authorization state changed",
		"provider", provider, "from", prev, "to", state)
	delegate.OnAuthorizationChanged(state)

	if state == types.AuthorizationDenied {
		s.resolveSingle(single, singleResult{err: apperrors.AuthorizationDenied("location access denied")})
		s.standard.shutDown()
		s.sigChange.shutDown()
		return
	}

	if state == types.AuthorizationAuthorized {
		// Recovery returns shut-down providers to idle even when no
		// deferred start is pending.
		s.standard.reset()
		s.sigChange.reset()
	}

	if retryStandard {
		if err := s.StartReportingStandardLocation(); err != nil {
			s.log.Warnw("Deferred standard start failed", "error", err)
		}
	}
	if retrySigChange {
		if err := s.StartReportingSignificantLocationChanges(); err != nil {
			s.log.Warnw("Deferred significant-change start failed", "error", err)
		}
	}
}

// refreshAuthLocked re-reads the system authorization state. Caller
// holds s.mu.
func (s *LocationService) refreshAuthLocked() {
	s.authState = s.monitor.AuthorizationState()
	if !s.monitor.ServicesEnabled() {
		// The global platform switch overrides everything else.
		s.authState = types.AuthorizationDenied
	}
}

func (s *LocationService) notifyError(err error) {
	s.mu.Lock()
	delegate := s.delegate
	s.mu.Unlock()
	delegate.OnError(err)
}

// --- Status and recent activity accessors ---

// StandardLocationStatus reports the continuous provider's status.
func (s *LocationService) StandardLocationStatus() types.ProviderStatus {
	return s.standard.Status()
}

// SignificantChangeStatus reports the event-driven provider's status.
func (s *LocationService) SignificantChangeStatus() types.ProviderStatus {
	return s.sigChange.Status()
}

// SingleLocationStatus reports whether a one-shot request is outstanding.
func (s *LocationService) SingleLocationStatus() types.ProviderStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.single != nil {
		return types.ProviderStatusUpdating
	}
	return types.ProviderStatusNotUpdating
}

// AuthorizationState returns the most recently observed system
// authorization state.
func (s *LocationService) AuthorizationState() types.AuthorizationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authState
}

// WillPromptUser reports whether the platform would prompt the user on
// the next start attempt.
func (s *LocationService) WillPromptUser() bool {
	return s.monitor.WillPromptUser()
}

// LastReportedLocation returns a copy of the last location reported to
// analytics, or nil if none has been reported.
func (s *LocationService) LastReportedLocation() *types.LastReportedLocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	last := *s.last
	return &last
}

// DateOfLastLocation returns when the last location was reported, or the
// zero time if none has been reported.
func (s *LocationService) DateOfLastLocation() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return time.Time{}
	}
	return s.last.ReportedAt
}

// Location returns the most recent raw fix from the standard source. It
// may be fresher than the last reported location.
func (s *LocationService) Location() (types.Location, bool) {
	return s.standard.Location()
}

// --- Configuration accessors ---

// ServiceEnabled reports whether the location service is allowed to run.
func (s *LocationService) ServiceEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serviceEnabled
}

// SetServiceEnabled persists the service-enabled flag through the
// settings store. Disabling does not stop running providers; it prevents
// future starts.
func (s *LocationService) SetServiceEnabled(ctx context.Context, enabled bool) error {
	if err := s.settings.SaveServiceEnabled(ctx, enabled); err != nil {
		return err
	}
	s.mu.Lock()
	s.serviceEnabled = enabled
	s.mu.Unlock()
	s.log.Infow("Service-enabled flag updated", "enabled", enabled)
	return nil
}

// PromptUserForLocationServices reports whether starts may re-prompt a
// user who previously denied access.
func (s *LocationService) PromptUserForLocationServices() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.PromptUserForLocationServices
}

func (s *LocationService) SetPromptUserForLocationServices(allowed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.PromptUserForLocationServices = allowed
}

// AutomaticLocationOnForegroundEnabled reports whether foreground events
// trigger an automatic location request.
func (s *LocationService) AutomaticLocationOnForegroundEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.AutomaticLocationOnForegroundEnabled
}

func (s *LocationService) SetAutomaticLocationOnForegroundEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.AutomaticLocationOnForegroundEnabled = enabled
}

// BackgroundLocationServiceEnabled reports whether providers keep
// running while the app is backgrounded.
func (s *LocationService) BackgroundLocationServiceEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.BackgroundLocationServiceEnabled
}

func (s *LocationService) SetBackgroundLocationServiceEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.BackgroundLocationServiceEnabled = enabled
}

// MinimumTimeBetweenForegroundUpdates returns the throttle interval for
// automatic foreground updates.
func (s *LocationService) MinimumTimeBetweenForegroundUpdates() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.MinimumTimeBetweenForegroundUpdates()
}

// SetMinimumTimeBetweenForegroundUpdates rejects negative intervals and
// intervals that are not a whole number of seconds.
func (s *LocationService) SetMinimumTimeBetweenForegroundUpdates(d time.Duration) error {
	if d < 0 {
		return apperrors.ValidationFailed("invalid minimum foreground interval", "value must be non-negative")
	}
	if d%time.Second != 0 {
		return apperrors.ValidationFailed("invalid minimum foreground interval", "value must be a whole number of seconds")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.MinimumForegroundIntervalSeconds = int(d / time.Second)
	return nil
}

// Purpose returns the string shown to the user when the platform prompts
// for permission.
func (s *LocationService) Purpose() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Purpose
}

// SetPurpose propagates the purpose string to both providers.
func (s *LocationService) SetPurpose(purpose string) {
	s.mu.Lock()
	s.cfg.Purpose = purpose
	s.mu.Unlock()
	s.standard.SetPurpose(purpose)
	s.sigChange.SetPurpose(purpose)
}

// StandardLocationDesiredAccuracy returns the standard provider's
// desired accuracy in meters.
func (s *LocationService) StandardLocationDesiredAccuracy() float64 {
	return s.standard.DesiredAccuracy()
}

func (s *LocationService) SetStandardLocationDesiredAccuracy(meters float64) error {
	return s.standard.SetDesiredAccuracy(meters)
}

// StandardLocationDistanceFilter returns the standard provider's
// distance filter in meters.
func (s *LocationService) StandardLocationDistanceFilter() float64 {
	return s.standard.DistanceFilter()
}

func (s *LocationService) SetStandardLocationDistanceFilter(meters float64) error {
	return s.standard.SetDistanceFilter(meters)
}
