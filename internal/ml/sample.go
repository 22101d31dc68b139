package ml

import (
	"fmt"
	"log"
	"os"
)

// SampleWaterNetwork favours watering when soil is dry and the dry streak is long.
// Inputs: [sunlight, wetness, days_since_watered/10]
func SampleWaterNetwork() *Network {
	return &Network{
		Activation: Sigmoid,
		Layers: []Layer{
			{
				Weights: [][]float64{{0.5, -8.0, 6.0}},
				Biases:  []float64{1.0},
			},
		},
	}
}

// SampleShadeNetwork favours shading under strong, prolonged sun.
// Inputs: [sunlight, wetness, time_in_sun]
func SampleShadeNetwork() *Network {
	return &Network{
		Activation: Sigmoid,
		Layers: []Layer{
			{
				Weights: [][]float64{{6.0, 0.0, 4.0}},
				Biases:  []float64{-6.0},
			},
		},
	}
}

// CreateSampleModel writes a sample network to path.
// Call this if no model file exists
func CreateSampleModel(path string, net *Network) error {
	data, err := net.Serialize()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}

	log.Printf("Created sample model at %s", path)
	return nil
}
