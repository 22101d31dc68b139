// Package actuator drives the shade servo and the water relay.
package actuator

import (
	"context"
	"fmt"
	"time"

	"garden-controller/internal/clock"
)

const (
	// ShadeOpenAngle and ShadeClosedAngle bound the shade sweep in degrees
	ShadeOpenAngle   = 30
	ShadeClosedAngle = 200
	// SweepStep is the angular increment per servo command
	SweepStep = 2
	// DefaultStepDelay lets the horn settle between steps
	DefaultStepDelay = 15 * time.Millisecond
)

// Servo accepts a hardware duty value
type Servo interface {
	SetAngleDuty(duty int) error
}

// Map linearly rescales x from [inMin,inMax] to [outMin,outMax] in integer arithmetic.
// inMax must differ from inMin.
func Map(x, inMin, inMax, outMin, outMax int) int {
	return (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}

// DutyMapper converts servo angles to duty values
type DutyMapper struct {
	AngleMin int
	AngleMax int
	DutyMin  int
	DutyMax  int
}

// DefaultDutyMapper maps 0..ShadeClosedAngle degrees onto 1000..2000 microsecond pulses
func DefaultDutyMapper() DutyMapper {
	return DutyMapper{AngleMin: 0, AngleMax: ShadeClosedAngle, DutyMin: 1000, DutyMax: 2000}
}

// Validate rejects an empty angle range and one that does not cover the shade sweep.
// Every swept angle then maps inside [DutyMin, DutyMax].
func (m DutyMapper) Validate() error {
	if m.AngleMax == m.AngleMin {
		return fmt.Errorf("servo angle range is empty (%d..%d)", m.AngleMin, m.AngleMax)
	}
	lo, hi := m.AngleMin, m.AngleMax
	if lo > hi {
		lo, hi = hi, lo
	}
	if ShadeOpenAngle < lo || ShadeClosedAngle > hi {
		return fmt.Errorf("servo angle range %d..%d does not cover the shade sweep %d..%d",
			m.AngleMin, m.AngleMax, ShadeOpenAngle, ShadeClosedAngle)
	}
	return nil
}

// Duty returns the duty value for an angle
func (m DutyMapper) Duty(angle int) int {
	return Map(angle, m.AngleMin, m.AngleMax, m.DutyMin, m.DutyMax)
}

// Sweeper moves the servo in fixed steps to avoid mechanical shock
type Sweeper struct {
	servo     Servo
	mapper    DutyMapper
	clock     clock.Clock
	stepDelay time.Duration
}

// NewSweeper creates a sweeper with a validated duty mapping
func NewSweeper(servo Servo, mapper DutyMapper, clk clock.Clock, stepDelay time.Duration) (*Sweeper, error) {
	if err := mapper.Validate(); err != nil {
		return nil, err
	}
	return &Sweeper{servo: servo, mapper: mapper, clock: clk, stepDelay: stepDelay}, nil
}

// SweepAngles lists the angles visited moving from -> to inclusive
func SweepAngles(from, to, step int) []int {
	if step <= 0 {
		step = 1
	}
	var angles []int
	if from <= to {
		for a := from; a <= to; a += step {
			angles = append(angles, a)
		}
	} else {
		for a := from; a >= to; a -= step {
			angles = append(angles, a)
		}
	}
	return angles
}

// Sweep issues one duty command per angle, pausing after each
func (s *Sweeper) Sweep(ctx context.Context, from, to int) error {
	for _, angle := range SweepAngles(from, to, SweepStep) {
		if err := s.servo.SetAngleDuty(s.mapper.Duty(angle)); err != nil {
			return fmt.Errorf("servo command at %d degrees failed: %w", angle, err)
		}
		if err := s.clock.Sleep(ctx, s.stepDelay); err != nil {
			return fmt.Errorf("servo sweep interrupted at %d degrees: %w", angle, err)
		}
	}
	return nil
}

// CloseShade sweeps towards the shaded position (increasing angles)
func (s *Sweeper) CloseShade(ctx context.Context) error {
	return s.Sweep(ctx, ShadeOpenAngle, ShadeClosedAngle)
}

// OpenShade sweeps back to the open position (decreasing angles)
func (s *Sweeper) OpenShade(ctx context.Context) error {
	return s.Sweep(ctx, ShadeClosedAngle, ShadeOpenAngle)
}
