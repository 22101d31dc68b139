package actuator

import (
	"context"
	"fmt"
	"time"

	"garden-controller/internal/clock"
)

// DefaultPulse is how long the pump runs per watering
const DefaultPulse = 500 * time.Millisecond

// Relay switches the water pump
type Relay interface {
	SetState(on bool) error
}

// Waterer runs timed pump pulses
type Waterer struct {
	relay Relay
	clock clock.Clock
	pulse time.Duration
}

// NewWaterer creates a waterer with the given pulse length
func NewWaterer(relay Relay, clk clock.Clock, pulse time.Duration) *Waterer {
	return &Waterer{relay: relay, clock: clk, pulse: pulse}
}

// Pulse switches the relay on, waits, and switches it off.
// delivered reports whether the pump was switched on at all.
// The relay is switched off even if ctx is cancelled mid-pulse.
func (w *Waterer) Pulse(ctx context.Context) (delivered bool, err error) {
	if err := w.relay.SetState(true); err != nil {
		return false, fmt.Errorf("relay on failed: %w", err)
	}

	sleepErr := w.clock.Sleep(ctx, w.pulse)

	if err := w.relay.SetState(false); err != nil {
		return true, fmt.Errorf("relay off failed, pump may be stuck on: %w", err)
	}
	if sleepErr != nil {
		return true, fmt.Errorf("watering pulse cut short: %w", sleepErr)
	}
	return true, nil
}
