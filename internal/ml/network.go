// Package ml holds the feed-forward networks used for watering and shading decisions.
package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"strings"
)

// ErrInvalidModel marks a model that is malformed or missing
var ErrInvalidModel = errors.New("invalid model")

// Activation names the function applied after every layer
type Activation string

const (
	Sigmoid Activation = "sigmoid"
	ReLU    Activation = "relu"
	Tanh    Activation = "tanh"
	Linear  Activation = "linear"
)

// ParseActivation resolves an activation name
func ParseActivation(name string) (Activation, error) {
	switch a := Activation(strings.ToLower(strings.TrimSpace(name))); a {
	case Sigmoid, ReLU, Tanh, Linear:
		return a, nil
	default:
		return "", fmt.Errorf("%w: unknown activation %q", ErrInvalidModel, name)
	}
}

func (a Activation) apply(x float64) float64 {
	switch a {
	case Sigmoid:
		return 1 / (1 + math.Exp(-x))
	case ReLU:
		return math.Max(0, x)
	case Tanh:
		return math.Tanh(x)
	default:
		return x
	}
}

// Layer is a dense layer: out[i] = act(sum_j Weights[i][j]*in[j] + Biases[i])
type Layer struct {
	Weights [][]float64 `json:"weights"`
	Biases  []float64   `json:"biases"`
}

// Network is a fixed-topology feed-forward network
type Network struct {
	Activation Activation `json:"activation"`
	Layers     []Layer    `json:"layers"`
}

// Deserialize parses and validates a serialized network.
// An empty activation in the payload takes the given one; a different one is rejected.
func Deserialize(serialized string, activation Activation) (*Network, error) {
	if strings.TrimSpace(serialized) == "" {
		return nil, fmt.Errorf("%w: empty serialized model", ErrInvalidModel)
	}

	var net Network
	if err := json.Unmarshal([]byte(serialized), &net); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal network: %v", ErrInvalidModel, err)
	}

	if net.Activation == "" {
		net.Activation = activation
	}
	act, err := ParseActivation(string(net.Activation))
	if err != nil {
		return nil, err
	}
	if activation != "" && act != activation {
		return nil, fmt.Errorf("%w: network uses %s activation, expected %s", ErrInvalidModel, act, activation)
	}
	net.Activation = act

	if err := net.validate(); err != nil {
		return nil, err
	}
	return &net, nil
}

// LoadFile reads a serialized network from disk
func LoadFile(path string, activation Activation) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read model file: %v", ErrInvalidModel, err)
	}

	net, err := Deserialize(string(data), activation)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	log.Printf("Loaded %s network from %s (%d inputs, %d layers)", net.Activation, path, net.Inputs(), len(net.Layers))
	return net, nil
}

func (n *Network) validate() error {
	if len(n.Layers) == 0 {
		return fmt.Errorf("%w: network has no layers", ErrInvalidModel)
	}

	width := -1
	for li, layer := range n.Layers {
		if len(layer.Weights) == 0 {
			return fmt.Errorf("%w: layer %d has no neurons", ErrInvalidModel, li)
		}
		if len(layer.Biases) != len(layer.Weights) {
			return fmt.Errorf("%w: layer %d has %d biases for %d neurons", ErrInvalidModel, li, len(layer.Biases), len(layer.Weights))
		}
		cols := len(layer.Weights[0])
		if cols == 0 {
			return fmt.Errorf("%w: layer %d has no inputs", ErrInvalidModel, li)
		}
		if width != -1 && cols != width {
			return fmt.Errorf("%w: layer %d expects %d inputs, previous layer emits %d", ErrInvalidModel, li, cols, width)
		}
		for ni, row := range layer.Weights {
			if len(row) != cols {
				return fmt.Errorf("%w: layer %d neuron %d has %d weights, expected %d", ErrInvalidModel, li, ni, len(row), cols)
			}
			for _, w := range row {
				if math.IsNaN(w) || math.IsInf(w, 0) {
					return fmt.Errorf("%w: layer %d neuron %d has a non-finite weight", ErrInvalidModel, li, ni)
				}
			}
			if b := layer.Biases[ni]; math.IsNaN(b) || math.IsInf(b, 0) {
				return fmt.Errorf("%w: layer %d neuron %d has a non-finite bias", ErrInvalidModel, li, ni)
			}
		}
		width = len(layer.Weights)
	}
	return nil
}

// Inputs returns the width of the input vector
func (n *Network) Inputs() int {
	return len(n.Layers[0].Weights[0])
}

// Outputs returns the width of the output vector
func (n *Network) Outputs() int {
	return len(n.Layers[len(n.Layers)-1].Weights)
}

// CheckShape verifies the network fits the caller's feature vector
func (n *Network) CheckShape(inputs, minOutputs int) error {
	if n.Inputs() != inputs {
		return fmt.Errorf("%w: network takes %d inputs, expected %d", ErrInvalidModel, n.Inputs(), inputs)
	}
	if n.Outputs() < minOutputs {
		return fmt.Errorf("%w: network emits %d outputs, expected at least %d", ErrInvalidModel, n.Outputs(), minOutputs)
	}
	return nil
}

// Predict runs a forward pass
func (n *Network) Predict(features []float64) ([]float64, error) {
	if len(features) != n.Inputs() {
		return nil, fmt.Errorf("%w: got %d features, network takes %d", ErrInvalidModel, len(features), n.Inputs())
	}

	current := features
	for _, layer := range n.Layers {
		next := make([]float64, len(layer.Weights))
		for i, row := range layer.Weights {
			sum := layer.Biases[i]
			for j, w := range row {
				sum += w * current[j]
			}
			next[i] = n.Activation.apply(sum)
		}
		current = next
	}
	return current, nil
}

// Serialize encodes the network in the format Deserialize reads
func (n *Network) Serialize() (string, error) {
	data, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal network: %w", err)
	}
	return string(data), nil
}
