package systems

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestOverlapSphereGround(t *testing.T) {
	cs := NewColliderSet()
	cs.SetGround(0)

	if !cs.OverlapSphere(r3.Vec{Y: 0.04}, 0.05) {
		t.Error("sphere touching the ground did not overlap")
	}
	if cs.OverlapSphere(r3.Vec{Y: 0.06}, 0.05) {
		t.Error("sphere above the ground overlapped")
	}
}

func TestOverlapSphereStatic(t *testing.T) {
	cs := NewColliderSet()
	cs.SetGround(-100)
	cs.AddSphere(r3.Vec{X: 1}, 0.5)

	tests := []struct {
		name   string
		center r3.Vec
		radius float64
		want   bool
	}{
		{"inside", r3.Vec{X: 1.2}, 0.1, true},
		{"touching", r3.Vec{X: 1.7}, 0.2, true},
		{"clear", r3.Vec{X: 2}, 0.2, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := cs.OverlapSphere(tc.center, tc.radius); got != tc.want {
				t.Errorf("OverlapSphere(%+v, %v) = %v, want %v", tc.center, tc.radius, got, tc.want)
			}
		})
	}
}

// TestOverlapSphereFlowerGating checks that a drained flower's body stops
// colliding until the next reset.
func TestOverlapSphereFlowerGating(t *testing.T) {
	_, f := newTestPlant(0, r3.Vec{})
	cs := NewColliderSet()
	cs.SetGround(-100)
	cs.AddFlower(f)

	at := r3.Add(f.BodyCenter(), r3.Vec{X: f.BodyRadius()})
	if !cs.OverlapSphere(at, 0.05) {
		t.Fatal("active flower body did not collide")
	}

	f.Feed(1)
	if cs.OverlapSphere(at, 0.05) {
		t.Error("drained flower body still collides")
	}

	f.Reset()
	if !cs.OverlapSphere(at, 0.05) {
		t.Error("reset flower body does not collide")
	}
}

func TestOutsideBoundary(t *testing.T) {
	cs := NewColliderSet()
	cs.SetGround(0)
	cs.SetBoundary(r3.Vec{}, 10, 8)

	tests := []struct {
		name string
		pos  r3.Vec
		want bool
	}{
		{"center", r3.Vec{Y: 2}, false},
		{"near edge", r3.Vec{X: 9.9, Y: 2}, false},
		{"past radius", r3.Vec{X: 10.5, Y: 2}, true},
		{"below ground", r3.Vec{Y: -0.1}, true},
		{"above ceiling", r3.Vec{Y: 8.5}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := cs.OutsideBoundary(tc.pos); got != tc.want {
				t.Errorf("OutsideBoundary(%+v) = %v, want %v", tc.pos, got, tc.want)
			}
		})
	}
}

func TestOutsideBoundaryUnset(t *testing.T) {
	cs := NewColliderSet()
	if cs.OutsideBoundary(r3.Vec{X: 1e6}) {
		t.Error("OutsideBoundary reported true with no boundary set")
	}
}
