package actuator

import (
	"context"
	"errors"
	"testing"
	"time"

	"garden-controller/internal/clock"
)

type recordingServo struct {
	duties []int
	failAt int // fail on the n-th command (1-based), 0 = never
}

func (s *recordingServo) SetAngleDuty(duty int) error {
	s.duties = append(s.duties, duty)
	if s.failAt > 0 && len(s.duties) == s.failAt {
		return errors.New("pwm write failed")
	}
	return nil
}

type recordingRelay struct {
	states  []bool
	failOn  bool
	failOff bool
}

func (r *recordingRelay) SetState(on bool) error {
	r.states = append(r.states, on)
	if on && r.failOn {
		return errors.New("gpio on failed")
	}
	if !on && r.failOff {
		return errors.New("gpio off failed")
	}
	return nil
}

func TestMap(t *testing.T) {
	tests := []struct {
		x, inMin, inMax, outMin, outMax int
		want                            int
	}{
		{0, 0, 180, 1000, 2000, 1000},
		{180, 0, 180, 1000, 2000, 2000},
		{90, 0, 180, 1000, 2000, 1500},
		{45, 0, 180, 1000, 2000, 1250},
		{135, 0, 180, 1000, 2000, 1750},
		{1, 0, 180, 1000, 2000, 1005}, // 1000/180 truncates to 5
		{200, 0, 180, 1000, 2000, 2111},
		{5, 0, 10, 100, 0, 50}, // inverted output range
	}

	for _, tt := range tests {
		got := Map(tt.x, tt.inMin, tt.inMax, tt.outMin, tt.outMax)
		if got != tt.want {
			t.Errorf("Map(%d, %d, %d, %d, %d): expected %d, got %d",
				tt.x, tt.inMin, tt.inMax, tt.outMin, tt.outMax, tt.want, got)
		}
	}
}

func TestDutyMapper_Validate(t *testing.T) {
	if err := DefaultDutyMapper().Validate(); err != nil {
		t.Errorf("Expected default mapper to be valid, got %v", err)
	}
	if err := (DutyMapper{AngleMin: 90, AngleMax: 90}).Validate(); err == nil {
		t.Error("Expected error for empty angle range")
	}
	if _, err := NewSweeper(&recordingServo{}, DutyMapper{}, clock.NewFake(time.Unix(0, 0)), 0); err == nil {
		t.Error("Expected NewSweeper to reject an empty angle range")
	}

	narrow := DutyMapper{AngleMin: 0, AngleMax: 180, DutyMin: 1000, DutyMax: 2000}
	if err := narrow.Validate(); err == nil {
		t.Error("Expected error for an angle range that stops short of the closed angle")
	}
	if _, err := NewSweeper(&recordingServo{}, narrow, clock.NewFake(time.Unix(0, 0)), 0); err == nil {
		t.Error("Expected NewSweeper to reject an angle range that stops short of the closed angle")
	}
	if err := (DutyMapper{AngleMin: 40, AngleMax: 200, DutyMin: 1000, DutyMax: 2000}).Validate(); err == nil {
		t.Error("Expected error for an angle range that starts past the open angle")
	}
	if err := (DutyMapper{AngleMin: 200, AngleMax: 0, DutyMin: 2000, DutyMax: 1000}).Validate(); err != nil {
		t.Errorf("Expected inverted range covering the sweep to be valid, got %v", err)
	}
}

func TestSweeper_DutiesStayWithinConfiguredRange(t *testing.T) {
	mapper := DutyMapper{AngleMin: 0, AngleMax: 200, DutyMin: 1000, DutyMax: 2000}
	servo := &recordingServo{}
	sw, err := NewSweeper(servo, mapper, clock.NewFake(time.Unix(0, 0)), 0)
	if err != nil {
		t.Fatalf("NewSweeper failed: %v", err)
	}

	if err := sw.CloseShade(context.Background()); err != nil {
		t.Fatalf("CloseShade failed: %v", err)
	}
	if err := sw.OpenShade(context.Background()); err != nil {
		t.Fatalf("OpenShade failed: %v", err)
	}
	for _, d := range servo.duties {
		if d < mapper.DutyMin || d > mapper.DutyMax {
			t.Fatalf("Expected duty within %d..%d, got %d", mapper.DutyMin, mapper.DutyMax, d)
		}
	}
	if servo.duties[85] != 2000 {
		t.Errorf("Expected closed angle to command the maximum duty 2000, got %d", servo.duties[85])
	}
	if servo.duties[0] != 1150 {
		t.Errorf("Expected open angle to command 1150, got %d", servo.duties[0])
	}
}

func TestSweepAngles(t *testing.T) {
	up := SweepAngles(ShadeOpenAngle, ShadeClosedAngle, SweepStep)
	if len(up) != 86 {
		t.Fatalf("Expected 86 angles from 30 to 200, got %d", len(up))
	}
	if up[0] != 30 || up[len(up)-1] != 200 {
		t.Errorf("Expected 30..200, got %d..%d", up[0], up[len(up)-1])
	}
	for i := 1; i < len(up); i++ {
		if up[i]-up[i-1] != 2 {
			t.Fatalf("Expected step 2 at index %d, got %d -> %d", i, up[i-1], up[i])
		}
	}

	down := SweepAngles(ShadeClosedAngle, ShadeOpenAngle, SweepStep)
	if len(down) != 86 || down[0] != 200 || down[len(down)-1] != 30 {
		t.Errorf("Expected 200..30 in 86 steps, got %v", down)
	}
}

func TestSweeper_CloseIncreasingOpenDecreasing(t *testing.T) {
	servo := &recordingServo{}
	clk := clock.NewFake(time.Unix(0, 0))
	mapper := DefaultDutyMapper()
	sw, err := NewSweeper(servo, mapper, clk, DefaultStepDelay)
	if err != nil {
		t.Fatalf("NewSweeper failed: %v", err)
	}

	if err := sw.CloseShade(context.Background()); err != nil {
		t.Fatalf("CloseShade failed: %v", err)
	}
	if len(servo.duties) != 86 {
		t.Fatalf("Expected 86 duty commands, got %d", len(servo.duties))
	}
	for i, angle := 0, 30; angle <= 200; i, angle = i+1, angle+2 {
		if servo.duties[i] != mapper.Duty(angle) {
			t.Fatalf("Expected duty for %d degrees at index %d, got %d", angle, i, servo.duties[i])
		}
	}
	for i := 1; i < len(servo.duties); i++ {
		if servo.duties[i] <= servo.duties[i-1] {
			t.Fatalf("Expected strictly increasing duties, got %d then %d", servo.duties[i-1], servo.duties[i])
		}
	}
	if len(clk.Sleeps()) != 86 || clk.Sleeps()[0] != DefaultStepDelay {
		t.Errorf("Expected one step delay per command, got %v", clk.Sleeps())
	}

	servo.duties = nil
	if err := sw.OpenShade(context.Background()); err != nil {
		t.Fatalf("OpenShade failed: %v", err)
	}
	if servo.duties[0] != mapper.Duty(200) || servo.duties[len(servo.duties)-1] != mapper.Duty(30) {
		t.Errorf("Expected sweep from 200 to 30 degrees, got %d..%d", servo.duties[0], servo.duties[len(servo.duties)-1])
	}
	for i := 1; i < len(servo.duties); i++ {
		if servo.duties[i] >= servo.duties[i-1] {
			t.Fatalf("Expected strictly decreasing duties, got %d then %d", servo.duties[i-1], servo.duties[i])
		}
	}
}

func TestSweeper_StopsOnServoFault(t *testing.T) {
	servo := &recordingServo{failAt: 3}
	sw, _ := NewSweeper(servo, DefaultDutyMapper(), clock.NewFake(time.Unix(0, 0)), 0)

	if err := sw.CloseShade(context.Background()); err == nil {
		t.Fatal("Expected error from failing servo")
	}
	if len(servo.duties) != 3 {
		t.Errorf("Expected sweep to stop after 3 commands, got %d", len(servo.duties))
	}
}

func TestSweeper_Cancelled(t *testing.T) {
	servo := &recordingServo{}
	sw, _ := NewSweeper(servo, DefaultDutyMapper(), clock.NewFake(time.Unix(0, 0)), DefaultStepDelay)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sw.CloseShade(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestWaterer_Pulse(t *testing.T) {
	relay := &recordingRelay{}
	clk := clock.NewFake(time.Unix(0, 0))
	w := NewWaterer(relay, clk, DefaultPulse)

	delivered, err := w.Pulse(context.Background())
	if err != nil {
		t.Fatalf("Pulse failed: %v", err)
	}
	if !delivered {
		t.Error("Expected delivered=true")
	}
	if len(relay.states) != 2 || !relay.states[0] || relay.states[1] {
		t.Errorf("Expected relay on then off, got %v", relay.states)
	}
	if got := clk.Now().Sub(time.Unix(0, 0)); got != DefaultPulse {
		t.Errorf("Expected pulse of %v, got %v", DefaultPulse, got)
	}
}

func TestWaterer_Faults(t *testing.T) {
	relay := &recordingRelay{failOn: true}
	delivered, err := NewWaterer(relay, clock.NewFake(time.Unix(0, 0)), DefaultPulse).Pulse(context.Background())
	if err == nil || delivered {
		t.Errorf("Expected undelivered pulse with error, got delivered=%v err=%v", delivered, err)
	}
	if len(relay.states) != 1 {
		t.Errorf("Expected no off command after failed on, got %v", relay.states)
	}

	relay = &recordingRelay{failOff: true}
	delivered, err = NewWaterer(relay, clock.NewFake(time.Unix(0, 0)), DefaultPulse).Pulse(context.Background())
	if err == nil || !delivered {
		t.Errorf("Expected delivered pulse with stuck-relay error, got delivered=%v err=%v", delivered, err)
	}
}

func TestWaterer_CancelledStillSwitchesOff(t *testing.T) {
	relay := &recordingRelay{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	delivered, err := NewWaterer(relay, clock.NewFake(time.Unix(0, 0)), DefaultPulse).Pulse(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if !delivered {
		t.Error("Expected delivered=true once the pump was switched on")
	}
	if len(relay.states) != 2 || relay.states[1] {
		t.Errorf("Expected relay switched off after cancellation, got %v", relay.states)
	}
}
