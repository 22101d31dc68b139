// Package simulator provides a bench plant that stands in for the sensors,
// the pump relay and the shade servo when no hardware is attached.
package simulator

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"garden-controller/internal/clock"
)

// PlantConfig describes the simulated bed
type PlantConfig struct {
	WaterChannel int
	LightChannel int
	WaterADCMax  int
	LightADCMax  int

	InitialWetness float64
	DryPerRead     float64 // wetness lost on every soil reading
	WaterPerSecond float64 // wetness gained per second the pump runs
	ShadeFactor    float64 // fraction of sunlight passing a closed shade
	ShadedDuty     int     // servo duty at or above which the shade counts as closed
}

// DefaultPlantConfig returns a bed that needs water every few hours
func DefaultPlantConfig() PlantConfig {
	return PlantConfig{
		WaterChannel:   0,
		LightChannel:   1,
		WaterADCMax:    3500,
		LightADCMax:    3038,
		InitialWetness: 0.6,
		DryPerRead:     0.02,
		WaterPerSecond: 0.3,
		ShadeFactor:    0.3,
		ShadedDuty:     2000,
	}
}

// Plant is a deterministic soil and light model driven by the clock
type Plant struct {
	cfg   PlantConfig
	clock clock.Clock

	mu        sync.Mutex
	wetness   float64
	pumpOn    bool
	pumpSince time.Time
	duty      int
	watered   int
}

// NewPlant creates a simulated plant
func NewPlant(cfg PlantConfig, clk clock.Clock) (*Plant, error) {
	if cfg.WaterChannel == cfg.LightChannel {
		return nil, fmt.Errorf("simulator channels must differ, both are %d", cfg.WaterChannel)
	}
	if cfg.WaterADCMax <= 0 || cfg.LightADCMax <= 0 {
		return nil, fmt.Errorf("simulator ADC maxima must be positive")
	}
	return &Plant{cfg: cfg, clock: clk, wetness: clamp(cfg.InitialWetness)}, nil
}

// ReadAnalog returns the raw count for the soil or light channel
func (p *Plant) ReadAnalog(ctx context.Context, channel int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch channel {
	case p.cfg.WaterChannel:
		raw := p.waterCount()
		p.wetness = clamp(p.wetness - p.cfg.DryPerRead)
		return raw, nil
	case p.cfg.LightChannel:
		return p.lightCount(), nil
	default:
		return 0, fmt.Errorf("simulator has no sensor on channel %d", channel)
	}
}

// SetState switches the simulated pump. Wetness is credited when it stops.
func (p *Plant) SetState(on bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	switch {
	case on && !p.pumpOn:
		p.pumpOn = true
		p.pumpSince = now
	case !on && p.pumpOn:
		p.pumpOn = false
		p.wetness = clamp(p.wetness + now.Sub(p.pumpSince).Seconds()*p.cfg.WaterPerSecond)
		p.watered++
		log.Printf("Simulator: Watered, wetness now %.2f", p.wetness)
	}
	return nil
}

// SetAngleDuty records the servo duty
func (p *Plant) SetAngleDuty(duty int) error {
	p.mu.Lock()
	p.duty = duty
	p.mu.Unlock()
	return nil
}

// Wetness returns the current soil wetness
func (p *Plant) Wetness() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wetness
}

// Shaded reports whether the last servo duty closes the shade
func (p *Plant) Shaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shaded()
}

// Waterings returns the number of completed pump runs
func (p *Plant) Waterings() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.watered
}

func (p *Plant) shaded() bool {
	return p.duty >= p.cfg.ShadedDuty
}

// waterCount inverts the normalizer's wetness curve
func (p *Plant) waterCount() int {
	frac := 1 - 0.60*(p.wetness+0.25)
	return int(math.Round(frac * float64(p.cfg.WaterADCMax)))
}

func (p *Plant) lightCount() int {
	sun := Daylight(p.clock.Now())
	if p.shaded() {
		sun *= p.cfg.ShadeFactor
	}
	return int(math.Round((1 - sun) * float64(p.cfg.LightADCMax)))
}

// Daylight is a clear-sky curve: zero at night, 1 at solar noon, sunrise 06:00, sunset 18:00
func Daylight(t time.Time) float64 {
	hour := float64(t.Hour()) + float64(t.Minute())/60
	if hour <= 6 || hour >= 18 {
		return 0
	}
	return math.Sin(math.Pi * (hour - 6) / 12)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
