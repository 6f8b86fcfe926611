package platform

import (
	"math/rand"
	"sync"
	"time"

	"github.com/atlas-mobile/location-service/types"
)

// Simulator is an in-process platform used by the demo binary and
// integration-style tests. It owns the simulated authorization state and
// hands out sources that random-walk around a starting coordinate.
type Simulator struct {
	mu        sync.Mutex
	authState types.AuthorizationState
	enabled   bool
	sources   []*SimulatedSource
}

// NewSimulator returns a simulator with services enabled and
// authorization not yet determined.
func NewSimulator() *Simulator {
	return &Simulator{
		authState: types.AuthorizationNotDetermined,
		enabled:   true,
	}
}

func (s *Simulator) AuthorizationState() types.AuthorizationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authState
}

func (s *Simulator) ServicesEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

func (s *Simulator) WillPromptUser() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authState == types.AuthorizationNotDetermined
}

// SetAuthorizationState changes the simulated permission state and
// notifies every subscribed source observer, mirroring how the real
// platform broadcasts authorization changes.
func (s *Simulator) SetAuthorizationState(state types.AuthorizationState) {
	s.mu.Lock()
	s.authState = state
	sources := make([]*SimulatedSource, len(s.sources))
	copy(sources, s.sources)
	s.mu.Unlock()

	for _, src := range sources {
		src.notifyAuthorizationChanged(state)
	}
}

// SetServicesEnabled toggles the simulated global location switch.
func (s *Simulator) SetServicesEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// NewSource creates a simulated source emitting a fix every interval,
// random-walking from the given starting coordinate.
func (s *Simulator) NewSource(startLat, startLon float64, interval time.Duration) *SimulatedSource {
	src := &SimulatedSource{
		sim:      s,
		lat:      startLat,
		lon:      startLon,
		interval: interval,
	}
	s.mu.Lock()
	s.sources = append(s.sources, src)
	s.mu.Unlock()
	return src
}

// SimulatedSource implements Source with a ticker-driven random walk.
type SimulatedSource struct {
	sim      *Simulator
	interval time.Duration

	mu       sync.Mutex
	obs      Observer
	lat, lon float64
	last     *types.Location
	stop     chan struct{}
}

func (s *SimulatedSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return nil
	}
	s.stop = make(chan struct{})
	go s.run(s.stop)
	return nil
}

func (s *SimulatedSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return
	}
	close(s.stop)
	s.stop = nil
}

func (s *SimulatedSource) Location() (types.Location, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return types.Location{}, false
	}
	return *s.last, true
}

func (s *SimulatedSource) Subscribe(obs Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.obs = obs
}

func (s *SimulatedSource) run(stop chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.emit()
		}
	}
}

func (s *SimulatedSource) emit() {
	s.mu.Lock()
	// Roughly a few meters of drift per tick.
	s.lat += (rand.Float64() - 0.5) * 0.0001
	s.lon += (rand.Float64() - 0.5) * 0.0001
	loc := types.Location{
		Latitude:           s.lat,
		Longitude:          s.lon,
		HorizontalAccuracy: 5 + rand.Float64()*10,
		VerticalAccuracy:   10,
		Speed:              rand.Float64() * 2,
		Course:             rand.Float64() * 360,
		Timestamp:          time.Now(),
	}
	s.last = &loc
	obs := s.obs
	s.mu.Unlock()

	if obs != nil {
		obs.SourceLocation(loc)
	}
}

func (s *SimulatedSource) notifyAuthorizationChanged(state types.AuthorizationState) {
	s.mu.Lock()
	obs := s.obs
	s.mu.Unlock()
	if obs != nil {
		obs.SourceAuthorizationChanged(state)
	}
}
