package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorFormatting(t *testing.T) {
	err := New(ValidationError, "invalid distance filter", "value must be non-negative")
	assert.Equal(t, "VALIDATION_ERROR: invalid distance filter (value must be non-negative)", err.Error())

	bare := New(ObservationTimeoutError, "no observation arrived", "")
	assert.Equal(t, "OBSERVATION_TIMEOUT: no observation arrived", bare.Error())
}

func TestWrap(t *testing.T) {
	raw := fmt.Errorf("sensor offline")
	err := Wrap(raw, ProviderFaultError, "standard provider failed")

	assert.Equal(t, ProviderFaultError, err.Type)
	assert.Equal(t, "sensor offline", err.Detail)
	assert.ErrorIs(t, err, raw)

	assert.Nil(t, Wrap(nil, ProviderFaultError, "ignored"))
}

func TestHelperConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantType   ErrorType
		wantStatus int
	}{
		{"validation", ValidationFailed("bad value", "detail"), ValidationError, http.StatusBadRequest},
		{"provider start", ProviderStartFailed("standard", fmt.Errorf("boom")), ProviderStartError, http.StatusServiceUnavailable},
		{"authorization", AuthorizationDenied("location access denied"), AuthorizationDeniedError, http.StatusForbidden},
		{"timeout", ObservationTimeout("bounded wait expired"), ObservationTimeoutError, http.StatusGatewayTimeout},
		{"fault", ProviderFault("significant", fmt.Errorf("hardware")), ProviderFaultError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatus)
		})
	}
}

func TestTypePredicates(t *testing.T) {
	assert.True(t, IsAuthorizationDenied(AuthorizationDenied("denied")))
	assert.True(t, IsTimeout(ObservationTimeout("timed out")))
	assert.True(t, IsValidation(ValidationFailed("bad", "")))

	wrapped := fmt.Errorf("context: %w", ObservationTimeout("timed out"))
	assert.True(t, IsTimeout(wrapped))

	assert.False(t, IsTimeout(fmt.Errorf("plain error")))
	assert.False(t, IsAuthorizationDenied(nil))
}
