// Package neural provides the feedforward policy network that maps
// hummingbird observations to actions.
package neural

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
)

// Network dimensions (compile-time constants for array sizing). NumInputs
// and NumOutputs must match the observation and action vector sizes.
const (
	NumInputs  = 10 // orientation quat + to-flower dir + alignments + distance
	NumHidden  = 16
	NumOutputs = 5 // local force xyz, pitch delta, yaw delta
)

// FFNN is a two-layer feedforward network. Outputs are tanh-activated so
// every action component lands in [-1, 1].
type FFNN struct {
	W1 [NumHidden][NumInputs]float64
	B1 [NumHidden]float64
	W2 [NumOutputs][NumHidden]float64
	B2 [NumOutputs]float64
}

// NewFFNN creates a randomly initialized network.
func NewFFNN(rng *rand.Rand) *FFNN {
	nn := &FFNN{}
	// Xavier initialization
	scale1 := math.Sqrt(2.0 / float64(NumInputs))
	scale2 := math.Sqrt(2.0 / float64(NumHidden))

	for i := range nn.W1 {
		for j := range nn.W1[i] {
			nn.W1[i][j] = rng.NormFloat64() * scale1
		}
	}
	for i := range nn.W2 {
		for j := range nn.W2[i] {
			nn.W2[i][j] = rng.NormFloat64() * scale2
		}
	}
	return nn
}

// Forward computes one action vector from one observation vector.
func (nn *FFNN) Forward(inputs [NumInputs]float64) [NumOutputs]float64 {
	var hidden [NumHidden]float64
	for i := 0; i < NumHidden; i++ {
		sum := nn.B1[i]
		for j := 0; j < NumInputs; j++ {
			sum += nn.W1[i][j] * inputs[j]
		}
		hidden[i] = tanh(sum)
	}

	var outputs [NumOutputs]float64
	for i := 0; i < NumOutputs; i++ {
		sum := nn.B2[i]
		for j := 0; j < NumHidden; j++ {
			sum += nn.W2[i][j] * hidden[j]
		}
		outputs[i] = tanh(sum)
	}
	return outputs
}

// Mutate perturbs every weight and bias with Gaussian noise.
func (nn *FFNN) Mutate(rng *rand.Rand, strength float64) {
	for i := range nn.W1 {
		for j := range nn.W1[i] {
			nn.W1[i][j] += rng.NormFloat64() * strength
		}
		nn.B1[i] += rng.NormFloat64() * strength
	}
	for i := range nn.W2 {
		for j := range nn.W2[i] {
			nn.W2[i][j] += rng.NormFloat64() * strength
		}
		nn.B2[i] += rng.NormFloat64() * strength
	}
}

// Clone creates a deep copy of the network.
func (nn *FFNN) Clone() *FFNN {
	clone := *nn
	return &clone
}

// Dim returns the total number of free parameters.
func Dim() int {
	return NumHidden*NumInputs + NumHidden + NumOutputs*NumHidden + NumOutputs
}

// Vector flattens the parameters in a fixed order: W1 row-major, B1, W2
// row-major, B2. The order is the contract with SetVector.
func (nn *FFNN) Vector() []float64 {
	v := make([]float64, 0, Dim())
	for i := range nn.W1 {
		v = append(v, nn.W1[i][:]...)
	}
	v = append(v, nn.B1[:]...)
	for i := range nn.W2 {
		v = append(v, nn.W2[i][:]...)
	}
	v = append(v, nn.B2[:]...)
	return v
}

// SetVector restores the parameters from a flattened vector.
func (nn *FFNN) SetVector(v []float64) error {
	if len(v) != Dim() {
		return fmt.Errorf("neural: vector has %d parameters, want %d", len(v), Dim())
	}
	k := 0
	for i := range nn.W1 {
		k += copy(nn.W1[i][:], v[k:])
	}
	k += copy(nn.B1[:], v[k:])
	for i := range nn.W2 {
		k += copy(nn.W2[i][:], v[k:])
	}
	copy(nn.B2[:], v[k:])
	return nil
}

// Weights holds flattened parameters for serialization.
type Weights struct {
	Inputs  int       `json:"inputs"`
	Hidden  int       `json:"hidden"`
	Outputs int       `json:"outputs"`
	Params  []float64 `json:"params"`
}

// MarshalWeights flattens the network for serialization.
func (nn *FFNN) MarshalWeights() Weights {
	return Weights{
		Inputs:  NumInputs,
		Hidden:  NumHidden,
		Outputs: NumOutputs,
		Params:  nn.Vector(),
	}
}

// UnmarshalWeights restores the network from serialized form.
func (nn *FFNN) UnmarshalWeights(w Weights) error {
	if w.Inputs != NumInputs || w.Hidden != NumHidden || w.Outputs != NumOutputs {
		return fmt.Errorf("neural: weights sized %dx%dx%d, want %dx%dx%d",
			w.Inputs, w.Hidden, w.Outputs, NumInputs, NumHidden, NumOutputs)
	}
	return nn.SetVector(w.Params)
}

// SaveFile writes the network weights as JSON.
func (nn *FFNN) SaveFile(path string) error {
	data, err := json.MarshalIndent(nn.MarshalWeights(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadFile reads network weights written by SaveFile.
func LoadFile(path string) (*FFNN, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var w Weights
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("neural: parsing weights: %w", err)
	}
	nn := &FFNN{}
	if err := nn.UnmarshalWeights(w); err != nil {
		return nil, err
	}
	return nn, nil
}

// tanh uses a fast rational approximation; the |x|>4 branches are rarely
// taken on trained weights.
func tanh(x float64) float64 {
	if x > 4 {
		return 1
	}
	if x < -4 {
		return -1
	}
	x2 := x * x
	return x * (27 + x2) / (27 + 9*x2)
}
