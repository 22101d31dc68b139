package decision

import (
	"errors"
	"testing"

	"garden-controller/internal/ml"
	"garden-controller/internal/models"
)

// fixedPredictor returns a canned output and records the last input
type fixedPredictor struct {
	out  []float64
	err  error
	last []float64
}

func (p *fixedPredictor) Predict(features []float64) ([]float64, error) {
	p.last = append([]float64(nil), features...)
	return p.out, p.err
}

func TestEvaluate_FeatureVectors(t *testing.T) {
	water := &fixedPredictor{out: []float64{0}}
	shade := &fixedPredictor{out: []float64{0}}
	e := NewEngine(water, shade)

	f := models.NormalizedFeatures{Wetness: 0.4, SunlightFraction: 0.8}
	if _, err := e.Evaluate(f, 2.5, 0.125); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	wantWater := []float64{0.8, 0.4, 0.25}
	wantShade := []float64{0.8, 0.4, 0.125}
	for i := range wantWater {
		if water.last[i] != wantWater[i] {
			t.Errorf("Expected water feature %d = %v, got %v", i, wantWater[i], water.last[i])
		}
		if shade.last[i] != wantShade[i] {
			t.Errorf("Expected shade feature %d = %v, got %v", i, wantShade[i], shade.last[i])
		}
	}
}

func TestEvaluate_Thresholds(t *testing.T) {
	tests := []struct {
		name      string
		water     float64
		shade     float64
		wantWater bool
		wantShade bool
	}{
		{"both below", 0.5, 0.5, false, false},
		{"water at threshold fires", 0.9, 0.0, true, false},
		{"water just below", 0.8999, 0.0, false, false},
		{"shade at threshold holds", 0.0, 0.7, false, false},
		{"shade just above", 0.0, 0.7001, false, true},
		{"both fire", 0.95, 0.8, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(&fixedPredictor{out: []float64{tt.water}}, &fixedPredictor{out: []float64{tt.shade}})
			d, err := e.Evaluate(models.NormalizedFeatures{}, 0, 0)
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}
			if d.Water != tt.wantWater || d.Shade != tt.wantShade {
				t.Errorf("Expected water=%v shade=%v, got water=%v shade=%v", tt.wantWater, tt.wantShade, d.Water, d.Shade)
			}
			if d.WaterScore != tt.water || d.ShadeScore != tt.shade {
				t.Errorf("Expected scores %.4f/%.4f, got %.4f/%.4f", tt.water, tt.shade, d.WaterScore, d.ShadeScore)
			}
		})
	}
}

func TestEvaluate_OnlyFirstOutputConsulted(t *testing.T) {
	e := NewEngine(&fixedPredictor{out: []float64{0.1, 0.99}}, &fixedPredictor{out: []float64{0.1, 0.99}})
	d, err := e.Evaluate(models.NormalizedFeatures{}, 0, 0)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if d.Water || d.Shade {
		t.Errorf("Expected no action from index 0 = 0.1, got %+v", d)
	}
}

func TestEvaluate_ModelFaults(t *testing.T) {
	ok := &fixedPredictor{out: []float64{0.5}}

	tests := []struct {
		name  string
		water Predictor
		shade Predictor
	}{
		{"nil water model", nil, ok},
		{"empty shade output", ok, &fixedPredictor{out: nil}},
		{"water predict error", &fixedPredictor{err: ml.ErrInvalidModel}, ok},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(tt.water, tt.shade).Evaluate(models.NormalizedFeatures{}, 0, 0)
			if !errors.Is(err, ErrInference) {
				t.Errorf("Expected ErrInference, got %v", err)
			}
			if !errors.Is(err, ml.ErrInvalidModel) {
				t.Errorf("Expected ErrInvalidModel in chain, got %v", err)
			}
		})
	}
}
