package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Server.Environment)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)

	assert.False(t, cfg.Location.ServiceEnabled)
	assert.False(t, cfg.Location.PromptUserForLocationServices)
	assert.Equal(t, 120, cfg.Location.MinimumForegroundIntervalSeconds)
	assert.Equal(t, 120*time.Second, cfg.Location.MinimumTimeBetweenForegroundUpdates())
	assert.Equal(t, 30*time.Second, cfg.Location.SingleLocationTimeout())
	assert.False(t, cfg.Location.SingleRequestStopsContinuous)
	assert.Equal(t, DefaultPurpose, cfg.Location.Purpose)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("LOCATION_SERVICE_ENABLED", "true")
	t.Setenv("LOCATION_MIN_FOREGROUND_INTERVAL_SECONDS", "60")
	t.Setenv("LOCATION_PURPOSE", "Find nearby stores")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.Location.ServiceEnabled)
	assert.Equal(t, 60, cfg.Location.MinimumForegroundIntervalSeconds)
	assert.Equal(t, "Find nearby stores", cfg.Location.Purpose)
}

func TestValidateLocationConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*LocationConfig)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			mutate:  func(lc *LocationConfig) {},
			wantErr: false,
		},
		{
			name:    "negative foreground interval",
			mutate:  func(lc *LocationConfig) { lc.MinimumForegroundIntervalSeconds = -1 },
			wantErr: true,
		},
		{
			name:    "zero single location timeout",
			mutate:  func(lc *LocationConfig) { lc.SingleLocationTimeoutSeconds = 0 },
			wantErr: true,
		},
		{
			name:    "negative desired accuracy",
			mutate:  func(lc *LocationConfig) { lc.DesiredAccuracyMeters = -5 },
			wantErr: true,
		},
		{
			name:    "negative distance filter",
			mutate:  func(lc *LocationConfig) { lc.DistanceFilterMeters = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := LocationConfig{
				MinimumForegroundIntervalSeconds: 120,
				SingleLocationTimeoutSeconds:     30,
				DesiredAccuracyMeters:            10,
				Purpose:                          "test",
			}
			tt.mutate(&lc)
			err := validateLocationConfig(&lc)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateLocationConfigDefaultsEmptyPurpose(t *testing.T) {
	lc := LocationConfig{
		MinimumForegroundIntervalSeconds: 120,
		SingleLocationTimeoutSeconds:     30,
	}
	require.NoError(t, validateLocationConfig(&lc))
	assert.Equal(t, DefaultPurpose, lc.Purpose)
}
