package services

import (
	"time"

	"github.com/atlas-mobile/location-service/types"
)

// ShouldReport decides whether a candidate observation is fresh enough to
// report. Single, Change and direct analytics reports always pass.
// Continuous updates from an explicit start request always pass; only
// automatic (foreground-triggered) continuous updates are rate-limited.
// The interval boundary is inclusive.
//
// No side effects: the caller updates the last reported location only
// after a true result and a successful dispatch.
func ShouldReport(candidate types.Location, last *types.LastReportedLocation, updateType types.UpdateType, minInterval time.Duration, automatic bool) bool {
	if updateType != types.UpdateTypeContinuous {
		return true
	}
	if !automatic {
		return true
	}
	if last == nil {
		return true
	}
	return candidate.Timestamp.Sub(last.Location.Timestamp) >= minInterval
}
