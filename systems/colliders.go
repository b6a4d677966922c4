package systems

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Sphere is a static sphere collider.
type Sphere struct {
	Center r3.Vec
	Radius float64
}

// ColliderSet is the registry of physical colliders used for placement
// validation and boundary checks. Flower body colliders are referenced
// live so that depletion (which deactivates the body) and plant
// re-orientation are reflected without re-registration.
type ColliderSet struct {
	spheres []Sphere
	flowers []*Flower

	groundY  float64
	boundary struct {
		center r3.Vec
		radius float64
		height float64
		set    bool
	}
}

// NewColliderSet creates an empty registry with the ground plane at y=0.
func NewColliderSet() *ColliderSet {
	return &ColliderSet{}
}

// AddSphere registers a static sphere collider.
func (cs *ColliderSet) AddSphere(center r3.Vec, radius float64) {
	cs.spheres = append(cs.spheres, Sphere{Center: center, Radius: radius})
}

// AddFlower registers a flower body collider. The collider tracks the
// flower's live position and active state.
func (cs *ColliderSet) AddFlower(f *Flower) {
	cs.flowers = append(cs.flowers, f)
}

// SetBoundary defines the cylindrical boundary shell around the field.
func (cs *ColliderSet) SetBoundary(center r3.Vec, radius, height float64) {
	cs.boundary.center = center
	cs.boundary.radius = radius
	cs.boundary.height = height
	cs.boundary.set = true
}

// SetGround sets the ground plane height.
func (cs *ColliderSet) SetGround(y float64) {
	cs.groundY = y
}

// OverlapSphere reports whether a sphere at center with the given radius
// overlaps any registered collider or the ground plane. Inactive flower
// bodies do not collide.
func (cs *ColliderSet) OverlapSphere(center r3.Vec, radius float64) bool {
	if center.Y-radius <= cs.groundY {
		return true
	}
	for _, s := range cs.spheres {
		sum := s.Radius + radius
		if r3.Norm2(r3.Sub(center, s.Center)) <= sum*sum {
			return true
		}
	}
	for _, f := range cs.flowers {
		if !f.Active() {
			continue
		}
		// Body collider approximated by a sphere around the body center.
		sum := f.BodyRadius() + radius
		if r3.Norm2(r3.Sub(center, f.BodyCenter())) <= sum*sum {
			return true
		}
	}
	return false
}

// OutsideBoundary reports whether pos lies outside the boundary shell.
// Always false when no boundary was set.
func (cs *ColliderSet) OutsideBoundary(pos r3.Vec) bool {
	if !cs.boundary.set {
		return false
	}
	d := r3.Sub(pos, cs.boundary.center)
	horizSq := d.X*d.X + d.Z*d.Z
	if horizSq > cs.boundary.radius*cs.boundary.radius {
		return true
	}
	return pos.Y < cs.groundY || pos.Y > cs.boundary.height
}
