package control

import (
	"testing"
	"time"
)

func TestShadeMachine_InitialOpen(t *testing.T) {
	m := NewShadeMachine(ShadeDwell)
	if m.State().Position != ShadeOpen {
		t.Errorf("Expected initial state OPEN, got %s", m.State().Position)
	}
	if got := m.Step(time.Unix(0, 0), false); got != TransitionNone {
		t.Errorf("Expected no transition without a shade decision, got %s", got)
	}
}

func TestShadeMachine_CloseThenDwell(t *testing.T) {
	m := NewShadeMachine(ShadeDwell)
	t0 := time.Unix(1_700_000_000, 0)

	if got := m.Step(t0, true); got != TransitionClose {
		t.Fatalf("Expected CLOSE, got %s", got)
	}
	m.Commit(TransitionClose, t0)
	if s := m.State(); s.Position != ShadeClosed || !s.ClosedSince.Equal(t0) {
		t.Fatalf("Expected CLOSED since %v, got %+v", t0, s)
	}

	// Still shading or not, the shade holds until the dwell elapses
	for _, elapsed := range []time.Duration{0, time.Second, 299_999 * time.Millisecond} {
		for _, fires := range []bool{true, false} {
			if got := m.Step(t0.Add(elapsed), fires); got != TransitionNone {
				t.Errorf("Expected NONE at +%v (fires=%v), got %s", elapsed, fires, got)
			}
		}
	}

	if got := m.Step(t0.Add(ShadeDwell), false); got != TransitionOpen {
		t.Fatalf("Expected OPEN exactly at dwell, got %s", got)
	}
	m.Commit(TransitionOpen, t0.Add(ShadeDwell))
	if m.State().Position != ShadeOpen {
		t.Errorf("Expected OPEN after commit, got %s", m.State().Position)
	}
}

func TestShadeMachine_ReopenEvenIfStillSunny(t *testing.T) {
	m := NewShadeMachine(ShadeDwell)
	t0 := time.Unix(0, 0)
	m.Commit(m.Step(t0, true), t0)

	if got := m.Step(t0.Add(time.Hour), true); got != TransitionOpen {
		t.Errorf("Expected OPEN after dwell regardless of shade decision, got %s", got)
	}
}

func TestShadeMachine_StepDoesNotMutate(t *testing.T) {
	m := NewShadeMachine(ShadeDwell)
	t0 := time.Unix(0, 0)

	m.Step(t0, true)
	if m.State().Position != ShadeOpen {
		t.Error("Expected Step alone to leave the state unchanged")
	}
}

func TestShadeMachine_CommitIgnoresInvalidTransitions(t *testing.T) {
	m := NewShadeMachine(ShadeDwell)
	t0 := time.Unix(0, 0)

	m.Commit(TransitionOpen, t0)
	if m.State().Position != ShadeOpen || !m.State().ClosedSince.IsZero() {
		t.Errorf("Expected OPEN -> OPEN commit to be ignored, got %+v", m.State())
	}

	m.Commit(TransitionClose, t0)
	m.Commit(TransitionClose, t0.Add(time.Minute))
	if !m.State().ClosedSince.Equal(t0) {
		t.Errorf("Expected second CLOSE to keep the original closure time, got %v", m.State().ClosedSince)
	}
}
