package control

import "time"

// ShadeDwell is the minimum time the shade stays closed
const ShadeDwell = 300_000 * time.Millisecond

// ShadePosition is the physical state of the shade
type ShadePosition string

const (
	ShadeOpen   ShadePosition = "OPEN"
	ShadeClosed ShadePosition = "CLOSED"
)

// Transition is the shade move decided for one cycle
type Transition string

const (
	TransitionNone  Transition = "NONE"
	TransitionClose Transition = "CLOSE"
	TransitionOpen  Transition = "OPEN"
)

// ShadeState is Open, or Closed since a given instant
type ShadeState struct {
	Position    ShadePosition `json:"position"`
	ClosedSince time.Time     `json:"closed_since,omitempty"`
}

// ShadeMachine implements the timed-hysteresis shade policy.
// It performs at most one transition per Step/Commit pair.
type ShadeMachine struct {
	state ShadeState
	dwell time.Duration
}

// NewShadeMachine starts with the shade open
func NewShadeMachine(dwell time.Duration) *ShadeMachine {
	return &ShadeMachine{
		state: ShadeState{Position: ShadeOpen},
		dwell: dwell,
	}
}

// State returns the current shade state
func (m *ShadeMachine) State() ShadeState {
	return m.state
}

// Step decides the transition for this cycle without changing state.
// Closing takes precedence; re-opening waits for the dwell time.
func (m *ShadeMachine) Step(now time.Time, shadeFires bool) Transition {
	switch m.state.Position {
	case ShadeOpen:
		if shadeFires {
			return TransitionClose
		}
	case ShadeClosed:
		if now.Sub(m.state.ClosedSince) >= m.dwell {
			return TransitionOpen
		}
	}
	return TransitionNone
}

// Commit applies a transition once its actuator command succeeded
func (m *ShadeMachine) Commit(t Transition, now time.Time) {
	switch {
	case t == TransitionClose && m.state.Position == ShadeOpen:
		m.state = ShadeState{Position: ShadeClosed, ClosedSince: now}
	case t == TransitionOpen && m.state.Position == ShadeClosed:
		m.state = ShadeState{Position: ShadeOpen}
	}
}
