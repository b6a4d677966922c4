package systems

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

const geomTol = 1e-9

func vecClose(a, b r3.Vec, tol float64) bool {
	return r3.Norm(r3.Sub(a, b)) <= tol
}

// TestEulerYXForward verifies the forward axis for known orientations.
func TestEulerYXForward(t *testing.T) {
	s := math.Sqrt2 / 2

	tests := []struct {
		name       string
		pitch, yaw float64
		want       r3.Vec
	}{
		{"identity", 0, 0, r3.Vec{Z: 1}},
		{"yaw right 90", 0, 90, r3.Vec{X: 1}},
		{"yaw 180", 0, 180, r3.Vec{Z: -1}},
		{"nose down 90", 90, 0, r3.Vec{Y: -1}},
		{"nose up 90", -90, 0, r3.Vec{Y: 1}},
		{"pitch 45 yaw 90", 45, 90, r3.Vec{X: s, Y: -s}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Forward(EulerYX(tc.pitch, tc.yaw))
			if !vecClose(got, tc.want, geomTol) {
				t.Errorf("Forward(EulerYX(%v, %v)) = %+v, want %+v", tc.pitch, tc.yaw, got, tc.want)
			}
		})
	}
}

// TestLookAnglesRoundTrip checks that LookAngles inverts EulerYX over the
// reachable pitch range.
func TestLookAnglesRoundTrip(t *testing.T) {
	for _, pitch := range []float64{-60, -30, 0, 30, 60} {
		for _, yaw := range []float64{-150, -45, 0, 45, 150} {
			dir := Forward(EulerYX(pitch, yaw))
			gotPitch, gotYaw := LookAngles(dir)
			if math.Abs(gotPitch-pitch) > 1e-6 {
				t.Errorf("pitch round trip (%v, %v): got %v", pitch, yaw, gotPitch)
			}
			if math.Abs(WrapAngle180(gotYaw-yaw)) > 1e-6 {
				t.Errorf("yaw round trip (%v, %v): got %v", pitch, yaw, gotYaw)
			}
		}
	}
}

func TestLookAnglesZero(t *testing.T) {
	pitch, yaw := LookAngles(r3.Vec{})
	if pitch != 0 || yaw != 0 {
		t.Errorf("LookAngles(zero) = (%v, %v), want (0, 0)", pitch, yaw)
	}
}

func TestWrapAngle180(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{90, 90},
		{-90, -90},
		{190, -170},
		{-190, 170},
		{360, 0},
		{180, -180},
		{540, -180},
		{-720, 0},
	}
	for _, tc := range tests {
		if got := WrapAngle180(tc.in); math.Abs(got-tc.want) > geomTol {
			t.Errorf("WrapAngle180(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestMoveTowards(t *testing.T) {
	tests := []struct {
		current, target, maxDelta, want float64
	}{
		{0, 1, 0.1, 0.1},
		{0, 0.05, 0.1, 0.05},
		{1, -1, 0.5, 0.5},
		{0.2, 0.2, 0.1, 0.2},
		{-0.5, -1, 0.2, -0.7},
	}
	for _, tc := range tests {
		if got := MoveTowards(tc.current, tc.target, tc.maxDelta); math.Abs(got-tc.want) > geomTol {
			t.Errorf("MoveTowards(%v, %v, %v) = %v, want %v", tc.current, tc.target, tc.maxDelta, got, tc.want)
		}
	}
}

func TestQuatNormalize(t *testing.T) {
	id := QuatIdentity()

	if got := QuatNormalize(quat.Scale(2, id)); got != id {
		t.Errorf("QuatNormalize(2*identity) = %+v, want identity", got)
	}
	if got := QuatNormalize(quat.Number{}); got != id {
		t.Errorf("QuatNormalize(zero) = %+v, want identity", got)
	}
}

func TestRotatePreservesLength(t *testing.T) {
	q := EulerYX(33, -117)
	v := r3.Vec{X: 1.2, Y: -0.4, Z: 2.5}
	got := Rotate(q, v)
	if math.Abs(r3.Norm(got)-r3.Norm(v)) > geomTol {
		t.Errorf("rotation changed length: %v -> %v", r3.Norm(v), r3.Norm(got))
	}
}
