// Package components defines ECS components for the simulation.
package components

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Position is an entity's world position.
type Position struct {
	Vec r3.Vec
}

// Velocity holds the linear and angular velocity owned by the physics step.
type Velocity struct {
	Linear  r3.Vec
	Angular r3.Vec
}

// Rotation is an entity's world orientation.
type Rotation struct {
	Quat quat.Number
}

// NoTarget marks an empty nearest-target cache.
const NoTarget = -1

// Agent holds the hummingbird's per-episode state. The nearest-target cache
// is an index into the field's flower collection rather than a pointer, so
// the field can be rebuilt without dangling references.
type Agent struct {
	// Control state. Orientation is rebuilt from (Pitch, Yaw, 0) every
	// step; roll is always zero.
	Pitch       float64 // degrees, clamped to the configured max
	Yaw         float64 // degrees, unclamped
	SmoothPitch float64 // low-pass filtered pitch action input
	SmoothYaw   float64 // low-pass filtered yaw action input

	// Episode state
	NectarObtained float64
	Reward         float64 // cumulative episode reward (training mode)
	StepCount      int
	MaxStep        int // step budget, 0 = unbounded
	Episode        int
	Feeds          int // successful feeding contacts this episode
	BoundaryHits   int // boundary collisions this episode

	// Nearest-target cache: index into FlowerField.Flowers(), NoTarget
	// when nothing has been cached. May go stale when another agent
	// depletes the cached flower; refreshed opportunistically.
	TargetIdx int

	// Frozen suspends action application and forces zero velocity.
	// Illegal in training mode.
	Frozen bool
}
