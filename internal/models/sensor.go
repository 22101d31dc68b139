package models

import "time"

// RawSample holds one cycle's raw ADC counts
type RawSample struct {
	Timestamp time.Time `json:"timestamp"`
	WaterADC  int       `json:"water_adc"` // higher = drier soil
	LightADC  int       `json:"light_adc"` // higher = darker
}

// NormalizedFeatures are the physical quantities derived from a RawSample.
// Values are not guaranteed to lie in [0,1].
type NormalizedFeatures struct {
	Wetness          float64 `json:"wetness"`
	SunlightFraction float64 `json:"sunlight_fraction"`
}

// ModelRecord is a serialized inference model as stored in the model registry
type ModelRecord struct {
	Name       string    `json:"name"`
	Version    uint32    `json:"version"`
	Activation string    `json:"activation"`
	Network    string    `json:"network"` // serialized network (JSON)
	CreatedAt  time.Time `json:"created_at"`
}
