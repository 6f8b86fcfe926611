// Package store persists the process-wide location service settings.
// Only the service-enabled flag survives restarts; every other setting is
// per-instance and lives in memory.
package store

import (
	"context"
	"sync"
)

// SettingsStore loads and saves the persisted service-enabled flag.
type SettingsStore interface {
	// LoadServiceEnabled returns the persisted flag. A missing value
	// reports the provided default without error.
	LoadServiceEnabled(ctx context.Context, def bool) (bool, error)
	// SaveServiceEnabled persists the flag.
	SaveServiceEnabled(ctx context.Context, enabled bool) error
}

// MemorySettingsStore is an in-memory SettingsStore used in tests and in
// deployments without a backing key-value store.
type MemorySettingsStore struct {
	mu      sync.Mutex
	set     bool
	enabled bool
}

// NewMemorySettingsStore creates an empty in-memory store.
func NewMemorySettingsStore() *MemorySettingsStore {
	return &MemorySettingsStore{}
}

func (s *MemorySettingsStore) LoadServiceEnabled(_ context.Context, def bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return def, nil
	}
	return s.enabled, nil
}

func (s *MemorySettingsStore) SaveServiceEnabled(_ context.Context, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set = true
	s.enabled = enabled
	return nil
}
