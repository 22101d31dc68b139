// Package decision turns normalized features into watering and shading decisions.
package decision

import (
	"errors"
	"fmt"

	"garden-controller/internal/ml"
	"garden-controller/internal/models"
)

const (
	// WaterThreshold is inclusive: water when score >= 0.9
	WaterThreshold = 0.9
	// ShadeThreshold is exclusive: shade when score > 0.7
	ShadeThreshold = 0.7

	// FeatureCount is the width of both inference vectors
	FeatureCount = 3

	// daysScale keeps the dry streak in the same range as the other features
	daysScale = 10.0
)

// ErrInference marks a failed model evaluation
var ErrInference = errors.New("inference failed")

// Predictor is the model capability: features in, outputs out
type Predictor interface {
	Predict(features []float64) ([]float64, error)
}

// Decision is the outcome of one evaluation
type Decision struct {
	WaterScore float64
	ShadeScore float64
	Water      bool
	Shade      bool
}

// Engine evaluates the watering and shading models. It holds no state.
type Engine struct {
	water Predictor
	shade Predictor
}

// NewEngine wires the two models
func NewEngine(water, shade Predictor) *Engine {
	return &Engine{water: water, shade: shade}
}

// WaterFeatures assembles [sunlight, wetness, days/10]
func WaterFeatures(f models.NormalizedFeatures, daysSinceWatered float64) []float64 {
	return []float64{f.SunlightFraction, f.Wetness, daysSinceWatered / daysScale}
}

// ShadeFeatures assembles [sunlight, wetness, time_in_sun]
func ShadeFeatures(f models.NormalizedFeatures, timeInSun float64) []float64 {
	return []float64{f.SunlightFraction, f.Wetness, timeInSun}
}

// Evaluate runs both models. A failure in either model fails the evaluation.
func (e *Engine) Evaluate(f models.NormalizedFeatures, daysSinceWatered, timeInSun float64) (Decision, error) {
	waterScore, err := infer(e.water, WaterFeatures(f, daysSinceWatered))
	if err != nil {
		return Decision{}, fmt.Errorf("water model: %w", err)
	}

	shadeScore, err := infer(e.shade, ShadeFeatures(f, timeInSun))
	if err != nil {
		return Decision{}, fmt.Errorf("shade model: %w", err)
	}

	return Decision{
		WaterScore: waterScore,
		ShadeScore: shadeScore,
		Water:      waterScore >= WaterThreshold,
		Shade:      shadeScore > ShadeThreshold,
	}, nil
}

// infer returns the first element of the model's output vector
func infer(p Predictor, features []float64) (float64, error) {
	if p == nil {
		return 0, fmt.Errorf("%w: %w: model not loaded", ErrInference, ml.ErrInvalidModel)
	}
	out, err := p.Predict(features)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInference, err)
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("%w: %w: empty output vector", ErrInference, ml.ErrInvalidModel)
	}
	return out[0], nil
}
