package services

import (
	"fmt"
	"testing"

	apperrors "github.com/atlas-mobile/location-service/errors"
	"github.com/atlas-mobile/location-service/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nopProviderDelegate satisfies ProviderDelegate for adapter-only tests.
type nopProviderDelegate struct{}

func (nopProviderDelegate) ProviderLocationUpdated(string, types.Location)                {}
func (nopProviderDelegate) ProviderFailed(string, error, bool)                            {}
func (nopProviderDelegate) ProviderAuthorizationChanged(string, types.AuthorizationState) {}

func TestStandardProviderStartStopIdempotent(t *testing.T) {
	src := &fakeSource{}
	p := NewStandardProvider(src, nopProviderDelegate{}, 10, 0)

	assert.Equal(t, types.ProviderStatusNotUpdating, p.Status())

	require.NoError(t, p.Start())
	assert.Equal(t, types.ProviderStatusUpdating, p.Status())
	assert.Equal(t, 1, src.startCalls)

	// Starting an Updating provider is a success no-op.
	require.NoError(t, p.Start())
	assert.Equal(t, 1, src.startCalls)

	p.Stop()
	assert.Equal(t, types.ProviderStatusNotUpdating, p.Status())
	assert.Equal(t, 1, src.stopCalls)

	// Stopping a stopped provider is a no-op.
	p.Stop()
	assert.Equal(t, 1, src.stopCalls)
}

func TestStandardProviderStartFailure(t *testing.T) {
	src := &fakeSource{}
	src.setStartErr(fmt.Errorf("platform refused"))
	p := NewStandardProvider(src, nopProviderDelegate{}, 10, 0)

	err := p.Start()
	require.Error(t, err)
	assert.Equal(t, types.ProviderStatusNotUpdating, p.Status())

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ProviderStartError, appErr.Type)

	// A subsequent start is retried independently.
	src.setStartErr(nil)
	require.NoError(t, p.Start())
	assert.Equal(t, types.ProviderStatusUpdating, p.Status())
}

func TestStandardProviderTuning(t *testing.T) {
	p := NewStandardProvider(&fakeSource{}, nopProviderDelegate{}, 10, 50)

	assert.Equal(t, 10.0, p.DesiredAccuracy())
	assert.Equal(t, 50.0, p.DistanceFilter())

	require.NoError(t, p.SetDesiredAccuracy(25))
	assert.Equal(t, 25.0, p.DesiredAccuracy())

	require.NoError(t, p.SetDistanceFilter(100))
	assert.Equal(t, 100.0, p.DistanceFilter())

	// Invalid values are rejected, not clamped.
	assert.Error(t, p.SetDesiredAccuracy(-1))
	assert.Equal(t, 25.0, p.DesiredAccuracy())
	assert.Error(t, p.SetDistanceFilter(-5))
	assert.Equal(t, 100.0, p.DistanceFilter())
}

func TestProviderFatalErrorReturnsToIdle(t *testing.T) {
	src := &fakeSource{}
	p := NewStandardProvider(src, nopProviderDelegate{}, 10, 0)

	require.NoError(t, p.Start())
	src.emitError(fmt.Errorf("hardware fault"), true)
	assert.Equal(t, types.ProviderStatusNotUpdating, p.Status())

	// Non-fatal errors leave the provider running.
	require.NoError(t, p.Start())
	src.emitError(fmt.Errorf("transient"), false)
	assert.Equal(t, types.ProviderStatusUpdating, p.Status())
}

func TestProviderShutDownAndReset(t *testing.T) {
	src := &fakeSource{}
	p := NewSignificantChangeProvider(src, nopProviderDelegate{})

	require.NoError(t, p.Start())
	p.shutDown()
	assert.Equal(t, types.ProviderStatusShutDown, p.Status())
	assert.False(t, src.running())

	p.reset()
	assert.Equal(t, types.ProviderStatusNotUpdating, p.Status())
}

func TestSignificantChangeProviderIsNotTunable(t *testing.T) {
	var p Provider = NewSignificantChangeProvider(&fakeSource{}, nopProviderDelegate{})
	_, tunable := p.(TunableProvider)
	assert.False(t, tunable)

	var std Provider = NewStandardProvider(&fakeSource{}, nopProviderDelegate{}, 10, 0)
	_, tunable = std.(TunableProvider)
	assert.True(t, tunable)
}
