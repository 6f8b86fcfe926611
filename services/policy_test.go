package services

import (
	"testing"

	"github.com/atlas-mobile/location-service/types"
	"github.com/stretchr/testify/assert"
)

func TestEvaluateStart(t *testing.T) {
	tests := []struct {
		name           string
		authState      types.AuthorizationState
		serviceEnabled bool
		promptAllowed  bool
		want           Decision
	}{
		{
			name:           "service disabled denies regardless of authorization",
			authState:      types.AuthorizationAuthorized,
			serviceEnabled: false,
			promptAllowed:  true,
			want:           DecisionDeny,
		},
		{
			name:           "authorized proceeds",
			authState:      types.AuthorizationAuthorized,
			serviceEnabled: true,
			want:           DecisionProceed,
		},
		{
			name:           "not determined proceeds with prompt",
			authState:      types.AuthorizationNotDetermined,
			serviceEnabled: true,
			want:           DecisionProceedWithPrompt,
		},
		{
			name:           "denied without prompt permission denies",
			authState:      types.AuthorizationDenied,
			serviceEnabled: true,
			promptAllowed:  false,
			want:           DecisionDeny,
		},
		{
			name:           "denied with prompt permission re-prompts",
			authState:      types.AuthorizationDenied,
			serviceEnabled: true,
			promptAllowed:  true,
			want:           DecisionProceedWithPrompt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateStart(tt.authState, tt.serviceEnabled, tt.promptAllowed)
			assert.Equal(t, tt.want, got)
		})
	}
}
