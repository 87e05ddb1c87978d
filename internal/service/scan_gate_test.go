package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryScanGateCooldownPerDevice(t *testing.T) {
	clock := newFakeClock(t0)
	gate := NewMemoryScanGate(clock)
	ctx := context.Background()

	_, ok, err := gate.TryAcquire(ctx, "lab-a")
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, _ = gate.TryAcquire(ctx, "lab-a")
	assert.False(t, ok, "busy device must reject")

	_, ok, _ = gate.TryAcquire(ctx, "lab-b")
	assert.True(t, ok, "devices are independent")

	require.NoError(t, gate.Release(ctx, "lab-a", "", 2500*time.Millisecond))
	_, ok, _ = gate.TryAcquire(ctx, "lab-a")
	assert.False(t, ok, "cooling down")

	clock.Advance(2499 * time.Millisecond)
	_, ok, _ = gate.TryAcquire(ctx, "lab-a")
	assert.False(t, ok)

	clock.Advance(time.Millisecond)
	_, ok, _ = gate.TryAcquire(ctx, "lab-a")
	assert.True(t, ok)
}

func TestMemoryScanGateReleaseUnknownDevice(t *testing.T) {
	gate := NewMemoryScanGate(newFakeClock(t0))
	assert.NoError(t, gate.Release(context.Background(), "ghost", "", time.Second))
}
