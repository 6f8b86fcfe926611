package services

import (
	"context"
	"sync"

	"github.com/atlas-mobile/location-service/config"
	"github.com/atlas-mobile/location-service/logger"
	"github.com/atlas-mobile/location-service/platform"
	"github.com/atlas-mobile/location-service/store"
	"github.com/atlas-mobile/location-service/types"
	"github.com/stretchr/testify/mock"
)

func init() {
	logger.IsTest = true
}

// fakeSource is a hand-driven platform.Source for tests.
type fakeSource struct {
	mu         sync.Mutex
	obs        platform.Observer
	started    bool
	startErr   error
	startCalls int
	stopCalls  int
	last       *types.Location
}

func (f *fakeSource) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCalls++
	if f.startErr != nil {
		return f.startErr
	}
	f.started = true
	return nil
}

func (f *fakeSource) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCalls++
	f.started = false
}

func (f *fakeSource) Location() (types.Location, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.last == nil {
		return types.Location{}, false
	}
	return *f.last, true
}

func (f *fakeSource) Subscribe(obs platform.Observer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.obs = obs
}

func (f *fakeSource) running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

func (f *fakeSource) setStartErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startErr = err
}

func (f *fakeSource) emitLocation(loc types.Location) {
	f.mu.Lock()
	f.last = &loc
	obs := f.obs
	f.mu.Unlock()
	obs.SourceLocation(loc)
}

func (f *fakeSource) emitError(err error, fatal bool) {
	f.mu.Lock()
	obs := f.obs
	f.mu.Unlock()
	obs.SourceError(err, fatal)
}

func (f *fakeSource) emitAuthorizationChanged(state types.AuthorizationState) {
	f.mu.Lock()
	obs := f.obs
	f.mu.Unlock()
	obs.SourceAuthorizationChanged(state)
}

// fakeMonitor is a hand-driven platform.Monitor.
type fakeMonitor struct {
	mu      sync.Mutex
	state   types.AuthorizationState
	enabled bool
}

func newFakeMonitor(state types.AuthorizationState) *fakeMonitor {
	return &fakeMonitor{state: state, enabled: true}
}

func (m *fakeMonitor) AuthorizationState() types.AuthorizationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *fakeMonitor) ServicesEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

func (m *fakeMonitor) WillPromptUser() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == types.AuthorizationNotDetermined
}

func (m *fakeMonitor) setState(state types.AuthorizationState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
}

// recordingSink counts submissions deterministically.
type recordingSink struct {
	mu     sync.Mutex
	events []types.LocationEvent
}

func (s *recordingSink) Submit(_ context.Context, event types.LocationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) submitted() []types.LocationEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.LocationEvent, len(s.events))
	copy(out, s.events)
	return out
}

// MockAnalyticsSink is a testify mock for expectation-style tests.
type MockAnalyticsSink struct {
	mock.Mock
}

func (m *MockAnalyticsSink) Submit(ctx context.Context, event types.LocationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// recordingDelegate records every notification.
type recordingDelegate struct {
	mu          sync.Mutex
	errors      []error
	authChanges []types.AuthorizationState
	updates     []types.Location
	previous    []*types.Location
}

func (d *recordingDelegate) OnError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errors = append(d.errors, err)
}

func (d *recordingDelegate) OnAuthorizationChanged(state types.AuthorizationState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.authChanges = append(d.authChanges, state)
}

func (d *recordingDelegate) OnLocationUpdate(newLoc types.Location, old *types.Location) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updates = append(d.updates, newLoc)
	d.previous = append(d.previous, old)
}

func (d *recordingDelegate) errorCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.errors)
}

func (d *recordingDelegate) authChangeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.authChanges)
}

func (d *recordingDelegate) updateCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.updates)
}

func testLocationConfig() config.LocationConfig {
	return config.LocationConfig{
		ServiceEnabled:                   true,
		MinimumForegroundIntervalSeconds: 120,
		SingleLocationTimeoutSeconds:     1,
		DesiredAccuracyMeters:            10,
		DistanceFilterMeters:             0,
		Purpose:                          "testing",
	}
}

// testHarness bundles a service with its collaborator fakes.
type testHarness struct {
	svc       *LocationService
	monitor   *fakeMonitor
	standard  *fakeSource
	sigChange *fakeSource
	sink      *recordingSink
	delegate  *recordingDelegate
}

func newTestHarness(cfg config.LocationConfig, authState types.AuthorizationState) *testHarness {
	h := &testHarness{
		monitor:   newFakeMonitor(authState),
		standard:  &fakeSource{},
		sigChange: &fakeSource{},
		sink:      &recordingSink{},
		delegate:  &recordingDelegate{},
	}
	h.svc = NewLocationService(cfg, h.monitor, h.standard, h.sigChange, h.sink, store.NewMemorySettingsStore())
	h.svc.SetDelegate(h.delegate)
	return h
}
