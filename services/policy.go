package services

import (
	"github.com/atlas-mobile/location-service/types"
)

// Decision is the outcome of evaluating whether a provider may start.
type Decision string

const (
	// DecisionProceed allows the provider to start immediately.
	DecisionProceed Decision = "PROCEED"
	// DecisionDeny refuses the start; the attempt is recorded so it can
	// be retried when authorization changes.
	DecisionDeny Decision = "DENY"
	// DecisionProceedWithPrompt allows the start knowing the platform
	// will prompt the user for permission.
	DecisionProceedWithPrompt Decision = "PROCEED_WITH_PROMPT"
)

// EvaluateStart maps the system permission state and user configuration
// into a start decision. Pure function; re-evaluated on every start
// attempt and on every authorization-change callback.
func EvaluateStart(authState types.AuthorizationState, serviceEnabled, promptAllowed bool) Decision {
	if !serviceEnabled {
		return DecisionDeny
	}

	switch authState {
	case types.AuthorizationAuthorized:
		return DecisionProceed
	case types.AuthorizationNotDetermined:
		// The platform will prompt on start.
		return DecisionProceedWithPrompt
	case types.AuthorizationDenied:
		if promptAllowed {
			// Caller explicitly requested a re-prompt.
			return DecisionProceedWithPrompt
		}
		return DecisionDeny
	default:
		return DecisionDeny
	}
}
