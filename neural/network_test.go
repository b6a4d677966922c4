package neural

import (
	"math/rand"
	"path/filepath"
	"testing"
)

func TestForwardZeroNetwork(t *testing.T) {
	nn := &FFNN{}
	out := nn.Forward([NumInputs]float64{1, 0.5, -0.5, 0.2, 1, 1, 1, 0, 0, 0.3})
	for i, v := range out {
		if v != 0 {
			t.Errorf("output[%d] = %v from a zero network, want 0", i, v)
		}
	}
}

func TestForwardBounded(t *testing.T) {
	nn := NewFFNN(rand.New(rand.NewSource(1)))
	nn.Mutate(rand.New(rand.NewSource(2)), 5) // blow up the weights

	var inputs [NumInputs]float64
	for i := range inputs {
		inputs[i] = 1
	}
	for i, v := range nn.Forward(inputs) {
		if v < -1 || v > 1 {
			t.Errorf("output[%d] = %v, outside [-1, 1]", i, v)
		}
	}
}

func TestForwardBiasOnly(t *testing.T) {
	nn := &FFNN{}
	nn.B2[3] = 100 // saturates the output activation

	out := nn.Forward([NumInputs]float64{})
	if out[3] != 1 {
		t.Errorf("saturated output = %v, want 1", out[3])
	}
	if out[0] != 0 {
		t.Errorf("untouched output = %v, want 0", out[0])
	}
}

func TestVectorRoundTrip(t *testing.T) {
	nn := NewFFNN(rand.New(rand.NewSource(7)))

	v := nn.Vector()
	if len(v) != Dim() {
		t.Fatalf("vector has %d parameters, want %d", len(v), Dim())
	}

	restored := &FFNN{}
	if err := restored.SetVector(v); err != nil {
		t.Fatalf("SetVector error: %v", err)
	}
	if *restored != *nn {
		t.Error("round-tripped network differs")
	}

	if err := restored.SetVector(v[:10]); err == nil {
		t.Error("SetVector accepted a short vector")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	nn := NewFFNN(rand.New(rand.NewSource(3)))
	clone := nn.Clone()

	clone.W1[0][0] += 1
	if nn.W1[0][0] == clone.W1[0][0] {
		t.Error("mutating the clone changed the original")
	}
}

func TestMutateChangesWeights(t *testing.T) {
	nn := NewFFNN(rand.New(rand.NewSource(4)))
	before := nn.Clone()

	nn.Mutate(rand.New(rand.NewSource(5)), 0.1)
	if *nn == *before {
		t.Error("Mutate left the network unchanged")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	nn := NewFFNN(rand.New(rand.NewSource(9)))
	path := filepath.Join(t.TempDir(), "weights.json")

	if err := nn.SaveFile(path); err != nil {
		t.Fatalf("SaveFile error: %v", err)
	}
	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if *loaded != *nn {
		t.Error("loaded network differs from saved")
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("LoadFile on a missing file did not error")
	}
}
