// Package camera provides an orbit camera for viewing the foraging area.
package camera

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Orbit circles a target point at a controlled distance. Yaw wraps freely;
// pitch and distance are clamped so the view never flips or clips through
// the ground.
type Orbit struct {
	// Target is the look-at point in world coordinates
	Target r3.Vec

	// Distance from the target
	Distance float64

	// Yaw around the vertical axis, degrees
	Yaw float64

	// Pitch above the horizon, degrees
	Pitch float64

	// Distance constraints
	MinDistance, MaxDistance float64

	// Pitch constraints
	MinPitch, MaxPitch float64
}

// New creates an orbit camera looking at target from a raised default angle.
func New(target r3.Vec, distance float64) *Orbit {
	return &Orbit{
		Target:      target,
		Distance:    distance,
		Pitch:       25,
		MinDistance: 2,
		MaxDistance: 40,
		MinPitch:    -5,
		MaxPitch:    85,
	}
}

// Position returns the camera position in world coordinates.
func (c *Orbit) Position() r3.Vec {
	yaw := c.Yaw * math.Pi / 180
	pitch := c.Pitch * math.Pi / 180
	offset := r3.Vec{
		X: c.Distance * math.Cos(pitch) * math.Sin(yaw),
		Y: c.Distance * math.Sin(pitch),
		Z: c.Distance * math.Cos(pitch) * math.Cos(yaw),
	}
	return r3.Add(c.Target, offset)
}

// Rotate adjusts yaw and pitch by the given deltas in degrees.
func (c *Orbit) Rotate(dYaw, dPitch float64) {
	c.Yaw = math.Mod(c.Yaw+dYaw, 360)
	c.Pitch = clamp(c.Pitch+dPitch, c.MinPitch, c.MaxPitch)
}

// Dolly scales the orbit distance, clamped to the configured range.
func (c *Orbit) Dolly(factor float64) {
	c.Distance = clamp(c.Distance*factor, c.MinDistance, c.MaxDistance)
}

// Follow moves the target toward p, smoothed by rate (units per second).
// A rate of zero snaps directly.
func (c *Orbit) Follow(p r3.Vec, rate, dt float64) {
	if rate <= 0 {
		c.Target = p
		return
	}
	alpha := 1 - math.Exp(-rate*dt)
	c.Target = r3.Add(c.Target, r3.Scale(alpha, r3.Sub(p, c.Target)))
}

// clamp restricts a value to a range.
func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
