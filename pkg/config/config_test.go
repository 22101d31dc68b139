package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.HardwareBackend != BackendGPIO {
		t.Errorf("Expected default backend %s, got %s", BackendGPIO, cfg.HardwareBackend)
	}
	if cfg.CyclePeriod != time.Hour {
		t.Errorf("Expected default period 1h, got %v", cfg.CyclePeriod)
	}
	if cfg.WaterADCMax != 3500 || cfg.LightADCMax != 3038 {
		t.Errorf("Expected calibration 3500/3038, got %d/%d", cfg.WaterADCMax, cfg.LightADCMax)
	}
	if cfg.ClampFeatures {
		t.Error("Expected features unclamped by default")
	}
	if cfg.ServoAngleMin != 0 || cfg.ServoAngleMax != 200 {
		t.Errorf("Expected servo angle range 0..200, got %d..%d", cfg.ServoAngleMin, cfg.ServoAngleMax)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HARDWARE_BACKEND", "mqtt")
	t.Setenv("CYCLE_PERIOD", "30m")
	t.Setenv("WATER_ADC_MAX", "4000")
	t.Setenv("CLAMP_FEATURES", "true")
	t.Setenv("SERVO_STEP_DELAY", "20ms")

	cfg := Load()

	if cfg.HardwareBackend != BackendMQTT {
		t.Errorf("Expected backend mqtt, got %s", cfg.HardwareBackend)
	}
	if cfg.CyclePeriod != 30*time.Minute {
		t.Errorf("Expected period 30m, got %v", cfg.CyclePeriod)
	}
	if cfg.WaterADCMax != 4000 {
		t.Errorf("Expected water max 4000, got %d", cfg.WaterADCMax)
	}
	if !cfg.ClampFeatures {
		t.Error("Expected clamp enabled")
	}
	if cfg.ServoStepDelay != 20*time.Millisecond {
		t.Errorf("Expected step delay 20ms, got %v", cfg.ServoStepDelay)
	}
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("CYCLE_PERIOD", "hourly")
	t.Setenv("WATER_ADC_MAX", "lots")
	t.Setenv("DEBUG_MODE", "maybe")

	cfg := Load()

	if cfg.CyclePeriod != time.Hour {
		t.Errorf("Expected fallback period 1h, got %v", cfg.CyclePeriod)
	}
	if cfg.WaterADCMax != 3500 {
		t.Errorf("Expected fallback water max 3500, got %d", cfg.WaterADCMax)
	}
	if cfg.DebugMode {
		t.Error("Expected fallback debug mode false")
	}
}

func TestPeriod_DebugMode(t *testing.T) {
	t.Setenv("DEBUG_MODE", "true")

	cfg := Load()
	if cfg.Period() != 5*time.Second {
		t.Errorf("Expected debug period 5s, got %v", cfg.Period())
	}

	cfg.DebugMode = false
	if cfg.Period() != time.Hour {
		t.Errorf("Expected production period 1h, got %v", cfg.Period())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.HardwareBackend = "serial" }},
		{"unknown model source", func(c *Config) { c.ModelSource = "s3" }},
		{"zero period", func(c *Config) { c.CyclePeriod = 0 }},
		{"shared channel", func(c *Config) { c.LightADCChannel = c.WaterADCChannel }},
		{"negative channel", func(c *Config) { c.WaterADCChannel = -1 }},
		{"flat servo range", func(c *Config) { c.ServoDutyMax = c.ServoDutyMin }},
		{"flat servo angle range", func(c *Config) { c.ServoAngleMax = c.ServoAngleMin }},
		{"empty device id", func(c *Config) { c.DeviceID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}
