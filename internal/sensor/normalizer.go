// Package sensor converts raw ADC counts into normalized plant features.
package sensor

import (
	"fmt"

	"garden-controller/internal/models"
)

const (
	// DefaultWaterADCMax is the soil probe reading in completely dry air
	DefaultWaterADCMax = 3500
	// DefaultLightADCMax is the photoresistor reading in full darkness
	DefaultLightADCMax = 3038

	// wetnessSpan and wetnessOffset rescale the probe's usable band onto roughly [0,1]
	wetnessSpan   = 0.60
	wetnessOffset = 0.25
)

// Calibration holds the ADC maxima used for normalization
type Calibration struct {
	WaterADCMax int
	LightADCMax int
	Clamp       bool // clamp features to [0,1]
}

// DefaultCalibration returns the bench-calibrated constants
func DefaultCalibration() Calibration {
	return Calibration{
		WaterADCMax: DefaultWaterADCMax,
		LightADCMax: DefaultLightADCMax,
	}
}

// Validate rejects calibrations that would divide by zero
func (c Calibration) Validate() error {
	if c.WaterADCMax <= 0 {
		return fmt.Errorf("water ADC max must be positive, got %d", c.WaterADCMax)
	}
	if c.LightADCMax <= 0 {
		return fmt.Errorf("light ADC max must be positive, got %d", c.LightADCMax)
	}
	return nil
}

// Normalizer turns RawSamples into NormalizedFeatures
type Normalizer struct {
	cal Calibration
}

// NewNormalizer creates a normalizer for a validated calibration
func NewNormalizer(cal Calibration) (*Normalizer, error) {
	if err := cal.Validate(); err != nil {
		return nil, err
	}
	return &Normalizer{cal: cal}, nil
}

// Normalize is pure: the same sample always yields the same features.
// Out-of-range readings pass through unclamped unless Clamp is set.
func (n *Normalizer) Normalize(raw models.RawSample) models.NormalizedFeatures {
	dryness := float64(raw.WaterADC) / float64(n.cal.WaterADCMax)
	wetness := ((1 - dryness) / wetnessSpan) - wetnessOffset

	// Photoresistor polarity: brighter light = lower reading
	sunlight := 1 - float64(raw.LightADC)/float64(n.cal.LightADCMax)

	if n.cal.Clamp {
		wetness = clampUnit(wetness)
		sunlight = clampUnit(sunlight)
	}

	return models.NormalizedFeatures{
		Wetness:          wetness,
		SunlightFraction: sunlight,
	}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
