package services

import (
	"testing"
	"time"

	"github.com/atlas-mobile/location-service/types"
	"github.com/stretchr/testify/assert"
)

func locationAt(ts time.Time) types.Location {
	return types.Location{
		Latitude:  45.0,
		Longitude: -75.0,
		Timestamp: ts,
	}
}

func lastAt(ts time.Time) *types.LastReportedLocation {
	return &types.LastReportedLocation{
		Location:   locationAt(ts),
		ReportedAt: ts,
	}
}

func TestShouldReportContinuous(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	minInterval := 120 * time.Second

	tests := []struct {
		name      string
		candidate types.Location
		last      *types.LastReportedLocation
		automatic bool
		want      bool
	}{
		{
			name:      "no previous report passes",
			candidate: locationAt(base),
			last:      nil,
			automatic: true,
			want:      true,
		},
		{
			name:      "below interval suppressed",
			candidate: locationAt(base.Add(60 * time.Second)),
			last:      lastAt(base),
			automatic: true,
			want:      false,
		},
		{
			name:      "at interval boundary passes",
			candidate: locationAt(base.Add(120 * time.Second)),
			last:      lastAt(base),
			automatic: true,
			want:      true,
		},
		{
			name:      "above interval passes",
			candidate: locationAt(base.Add(121 * time.Second)),
			last:      lastAt(base),
			automatic: true,
			want:      true,
		},
		{
			name:      "explicit start is never rate-limited",
			candidate: locationAt(base.Add(time.Second)),
			last:      lastAt(base),
			automatic: false,
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShouldReport(tt.candidate, tt.last, types.UpdateTypeContinuous, minInterval, tt.automatic)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShouldReportNeverSuppressesOtherUpdateTypes(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	last := lastAt(base)
	candidate := locationAt(base.Add(time.Second))

	for _, updateType := range []types.UpdateType{
		types.UpdateTypeChange,
		types.UpdateTypeSingle,
		types.UpdateTypeNone,
	} {
		assert.True(t, ShouldReport(candidate, last, updateType, time.Hour, true),
			"update type %s must never be suppressed", updateType)
	}
}

// Scenario from the throttling contract: minInterval=120s, observations
// at t=0, t=60 and t=121.
func TestShouldReportForegroundScenario(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	minInterval := 120 * time.Second

	assert.True(t, ShouldReport(locationAt(base), nil, types.UpdateTypeContinuous, minInterval, true))

	last := lastAt(base)
	assert.False(t, ShouldReport(locationAt(base.Add(60*time.Second)), last, types.UpdateTypeContinuous, minInterval, true))
	assert.True(t, ShouldReport(locationAt(base.Add(121*time.Second)), last, types.UpdateTypeContinuous, minInterval, true))
}
