// Package control runs the plant care cycle: sample, normalize, decide, actuate, advance.
package control

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"garden-controller/internal/clock"
	"garden-controller/internal/decision"
	"garden-controller/internal/models"
	"garden-controller/internal/sensor"
)

const (
	// DaysPerCycle is one hour expressed in days
	DaysPerCycle = 1.0 / 24.0
	// SunExposureThreshold is the sunlight fraction that counts as "in the sun"
	SunExposureThreshold = 0.5
	// DefaultCyclePeriod is the production cycle period
	DefaultCyclePeriod = time.Hour
	// DefaultReadTimeout bounds each analog conversion
	DefaultReadTimeout = 2 * time.Second
)

var (
	// ErrSensorFault marks a failed or timed-out analog read
	ErrSensorFault = errors.New("sensor fault")
	// ErrActuatorFault marks a failed relay or servo command
	ErrActuatorFault = errors.New("actuator fault")
	// ErrModelFault marks an inference failure during the loop
	ErrModelFault = errors.New("model fault")
)

// Sensor reads raw ADC counts
type Sensor interface {
	ReadAnalog(ctx context.Context, channel int) (int, error)
}

// Decider evaluates the watering and shading models
type Decider interface {
	Evaluate(f models.NormalizedFeatures, daysSinceWatered, timeInSun float64) (decision.Decision, error)
}

// ShadeDriver moves the shade between its two positions
type ShadeDriver interface {
	CloseShade(ctx context.Context) error
	OpenShade(ctx context.Context) error
}

// WaterDriver runs one watering pulse
type WaterDriver interface {
	Pulse(ctx context.Context) (bool, error)
}

// Config holds the controller's timing and channel settings
type Config struct {
	WaterChannel int
	LightChannel int
	CyclePeriod  time.Duration
	ReadTimeout  time.Duration
	ShadeDwell   time.Duration
	Step         float64 // days added per cycle
}

// DefaultConfig returns the production settings
func DefaultConfig() Config {
	return Config{
		WaterChannel: 0,
		LightChannel: 1,
		CyclePeriod:  DefaultCyclePeriod,
		ReadTimeout:  DefaultReadTimeout,
		ShadeDwell:   ShadeDwell,
		Step:         DaysPerCycle,
	}
}

// CycleReport records what happened in one cycle
type CycleReport struct {
	Cycle            uint64
	Timestamp        time.Time
	Sample           models.RawSample
	Features         models.NormalizedFeatures
	Decision         decision.Decision
	Transition       Transition
	Shade            ShadeState
	Watered          bool
	DaysSinceWatered float64
	TimeInSun        float64
}

// Controller owns the shade machine and the counters. It is driven by a single goroutine.
type Controller struct {
	cfg        Config
	sensor     Sensor
	normalizer *sensor.Normalizer
	decider    Decider
	shade      ShadeDriver
	water      WaterDriver
	clock      clock.Clock

	machine          *ShadeMachine
	daysSinceWatered float64
	timeInSun        float64
	cycles           uint64
}

// NewController wires the control loop
func NewController(
	cfg Config,
	s Sensor,
	normalizer *sensor.Normalizer,
	decider Decider,
	shade ShadeDriver,
	water WaterDriver,
	clk clock.Clock,
) (*Controller, error) {
	if cfg.Step <= 0 {
		return nil, fmt.Errorf("cycle step must be positive, got %f", cfg.Step)
	}
	if cfg.CyclePeriod <= 0 {
		return nil, fmt.Errorf("cycle period must be positive, got %v", cfg.CyclePeriod)
	}
	if cfg.ShadeDwell <= 0 {
		return nil, fmt.Errorf("shade dwell must be positive, got %v", cfg.ShadeDwell)
	}
	if cfg.WaterChannel == cfg.LightChannel {
		return nil, fmt.Errorf("water and light sensors share ADC channel %d", cfg.WaterChannel)
	}

	return &Controller{
		cfg:        cfg,
		sensor:     s,
		normalizer: normalizer,
		decider:    decider,
		shade:      shade,
		water:      water,
		clock:      clk,
		machine:    NewShadeMachine(cfg.ShadeDwell),
	}, nil
}

// DaysSinceWatered returns the current dry streak in days
func (c *Controller) DaysSinceWatered() float64 { return c.daysSinceWatered }

// TimeInSun returns the current sun exposure streak in days
func (c *Controller) TimeInSun() float64 { return c.timeInSun }

// ShadeState returns the current shade state
func (c *Controller) ShadeState() ShadeState { return c.machine.State() }

// Run cycles until ctx is cancelled. Faults are logged and the next cycle proceeds.
func (c *Controller) Run(ctx context.Context) {
	log.Printf("Controller: Starting (period=%v, dwell=%v, step=%.4f days)",
		c.cfg.CyclePeriod, c.cfg.ShadeDwell, c.cfg.Step)

	for {
		report, err := c.Cycle(ctx)
		if ctx.Err() != nil {
			log.Println("Controller: Shutting down...")
			return
		}
		logCycle(report, err)

		if err := c.clock.Sleep(ctx, c.cfg.CyclePeriod); err != nil {
			log.Println("Controller: Shutting down...")
			return
		}
	}
}

// Cycle performs one sample -> normalize -> decide -> actuate -> advance pass.
// The counters advance even when the cycle faults.
func (c *Controller) Cycle(ctx context.Context) (CycleReport, error) {
	c.cycles++
	now := c.clock.Now()
	report := CycleReport{
		Cycle:      c.cycles,
		Timestamp:  now,
		Transition: TransitionNone,
	}

	sample, err := c.readSample(ctx, now)
	if err != nil {
		c.advance(false, nil)
		c.fill(&report)
		return report, fmt.Errorf("%w: %w", ErrSensorFault, err)
	}
	report.Sample = sample

	features := c.normalizer.Normalize(sample)
	report.Features = features

	shadeOpen := c.machine.State().Position == ShadeOpen

	d, err := c.decider.Evaluate(features, c.daysSinceWatered, c.timeInSun)
	if err != nil {
		c.advance(false, &exposure{open: shadeOpen, sunlight: features.SunlightFraction})
		c.fill(&report)
		return report, fmt.Errorf("%w: %w", ErrModelFault, err)
	}
	report.Decision = d

	var shadeErr, waterErr error

	transition := c.machine.Step(now, d.Shade)
	if transition != TransitionNone {
		if err := c.moveShade(ctx, transition); err != nil {
			shadeErr = fmt.Errorf("%w: shade %s: %w", ErrActuatorFault, transition, err)
		} else {
			c.machine.Commit(transition, now)
			report.Transition = transition
		}
	}

	watered := false
	if d.Water {
		delivered, err := c.water.Pulse(ctx)
		watered = delivered
		if err != nil {
			waterErr = fmt.Errorf("%w: water: %w", ErrActuatorFault, err)
		}
	}
	report.Watered = watered

	c.advance(watered, &exposure{open: shadeOpen, sunlight: features.SunlightFraction})
	c.fill(&report)
	return report, errors.Join(shadeErr, waterErr)
}

// exposure is what the cycle observed about sunlight on the plant
type exposure struct {
	open     bool
	sunlight float64
}

// advance updates the watering streak and, when observed, the sun exposure streak
func (c *Controller) advance(watered bool, exp *exposure) {
	if watered {
		c.daysSinceWatered = c.cfg.Step
	} else {
		c.daysSinceWatered += c.cfg.Step
	}

	if exp == nil {
		return
	}
	if exp.open && exp.sunlight >= SunExposureThreshold {
		c.timeInSun += c.cfg.Step
	} else {
		c.timeInSun = 0
	}
}

func (c *Controller) fill(report *CycleReport) {
	report.Shade = c.machine.State()
	report.DaysSinceWatered = c.daysSinceWatered
	report.TimeInSun = c.timeInSun
}

func (c *Controller) readSample(ctx context.Context, now time.Time) (models.RawSample, error) {
	water, err := c.readChannel(ctx, c.cfg.WaterChannel)
	if err != nil {
		return models.RawSample{}, fmt.Errorf("water channel %d: %w", c.cfg.WaterChannel, err)
	}
	light, err := c.readChannel(ctx, c.cfg.LightChannel)
	if err != nil {
		return models.RawSample{}, fmt.Errorf("light channel %d: %w", c.cfg.LightChannel, err)
	}
	return models.RawSample{Timestamp: now, WaterADC: water, LightADC: light}, nil
}

func (c *Controller) readChannel(ctx context.Context, channel int) (int, error) {
	if c.cfg.ReadTimeout <= 0 {
		return c.sensor.ReadAnalog(ctx, channel)
	}
	readCtx, cancel := context.WithTimeout(ctx, c.cfg.ReadTimeout)
	defer cancel()
	return c.sensor.ReadAnalog(readCtx, channel)
}

func (c *Controller) moveShade(ctx context.Context, t Transition) error {
	switch t {
	case TransitionClose:
		return c.shade.CloseShade(ctx)
	case TransitionOpen:
		return c.shade.OpenShade(ctx)
	}
	return nil
}

func logCycle(r CycleReport, err error) {
	if err != nil {
		if errors.Is(err, ErrActuatorFault) {
			log.Printf("ACTUATOR FAULT: cycle %d: %v", r.Cycle, err)
		} else {
			log.Printf("Controller: Cycle %d skipped: %v", r.Cycle, err)
		}
	}
	if errors.Is(err, ErrSensorFault) || errors.Is(err, ErrModelFault) {
		log.Printf("Controller: Cycle %d counters: days_since_watered=%.4f, time_in_sun=%.4f",
			r.Cycle, r.DaysSinceWatered, r.TimeInSun)
		return
	}

	log.Printf("Controller: Cycle %d: water_adc=%d light_adc=%d wetness=%.3f sunlight=%.3f",
		r.Cycle, r.Sample.WaterADC, r.Sample.LightADC, r.Features.Wetness, r.Features.SunlightFraction)
	log.Printf("Controller: Cycle %d: water_score=%.3f shade_score=%.3f watered=%v shade=%s transition=%s days_since_watered=%.4f time_in_sun=%.4f",
		r.Cycle, r.Decision.WaterScore, r.Decision.ShadeScore, r.Watered, r.Shade.Position, r.Transition,
		r.DaysSinceWatered, r.TimeInSun)
}
