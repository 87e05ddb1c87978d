package service

import (
	"context"
	"sync"
	"time"
)

// ScanGate debounces scans per device. TryAcquire returns a lease that Release must present.
type ScanGate interface {
	TryAcquire(ctx context.Context, device string) (lease string, ok bool, err error)
	Release(ctx context.Context, device, lease string, cooldown time.Duration) error
}

// MemoryScanGate debounces scans per device inside one process.
type MemoryScanGate struct {
	clock Clock

	mu      sync.Mutex
	devices map[string]*deviceGate
}

type deviceGate struct {
	scanning  bool
	coolUntil time.Time
}

// NewMemoryScanGate constructs the gate.
func NewMemoryScanGate(clock Clock) *MemoryScanGate {
	if clock == nil {
		clock = NewSystemClock(nil)
	}
	return &MemoryScanGate{clock: clock, devices: make(map[string]*deviceGate)}
}

// TryAcquire sets the scanning flag. It fails while a scan is processing or cooling down. The flag
// never expires in-process, so the lease is always empty.
func (g *MemoryScanGate) TryAcquire(_ context.Context, device string) (string, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	state, ok := g.devices[device]
	if !ok {
		state = &deviceGate{}
		g.devices[device] = state
	}
	if state.scanning || g.clock.Now().Before(state.coolUntil) {
		return "", false, nil
	}
	state.scanning = true
	return "", true, nil
}

// Release clears the scanning flag and starts the cooldown.
func (g *MemoryScanGate) Release(_ context.Context, device, _ string, cooldown time.Duration) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	state, ok := g.devices[device]
	if !ok {
		return nil
	}
	state.scanning = false
	state.coolUntil = g.clock.Now().Add(cooldown)
	return nil
}
