// Package systems provides the simulation systems: flower field, agent
// decision loop, and the collider registry backing both.
package systems

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Axis vectors of the world frame. Y is up; +Z is forward at zero yaw.
var (
	AxisX = r3.Vec{X: 1}
	AxisY = r3.Vec{Y: 1}
	AxisZ = r3.Vec{Z: 1}
)

// QuatIdentity returns the identity orientation.
func QuatIdentity() quat.Number {
	return quat.Number{Real: 1}
}

// AxisAngleDeg returns the rotation of deg degrees about axis.
func AxisAngleDeg(axis r3.Vec, deg float64) quat.Number {
	return quat.Number(r3.NewRotation(deg*math.Pi/180, axis))
}

// EulerYX builds an orientation from pitch and yaw in degrees.
// Yaw rotates about world Y, then pitch about the resulting X axis;
// roll is always zero. Positive pitch points the nose down.
func EulerYX(pitchDeg, yawDeg float64) quat.Number {
	return quat.Mul(AxisAngleDeg(AxisY, yawDeg), AxisAngleDeg(AxisX, pitchDeg))
}

// Rotate applies orientation q to vector v.
func Rotate(q quat.Number, v r3.Vec) r3.Vec {
	return r3.Rotation(q).Rotate(v)
}

// Forward returns the local +Z axis of q in world space.
func Forward(q quat.Number) r3.Vec {
	return Rotate(q, AxisZ)
}

// Up returns the local +Y axis of q in world space.
func Up(q quat.Number) r3.Vec {
	return Rotate(q, AxisY)
}

// QuatNormalize returns q scaled to unit length.
// The identity is returned for a degenerate zero quaternion.
func QuatNormalize(q quat.Number) quat.Number {
	a := quat.Abs(q)
	if a == 0 || math.IsNaN(a) {
		return QuatIdentity()
	}
	return quat.Scale(1/a, q)
}

// LookAngles returns the (pitch, yaw) in degrees that point the forward
// axis along dir, with the world up axis kept overhead.
func LookAngles(dir r3.Vec) (pitchDeg, yawDeg float64) {
	n := r3.Norm(dir)
	if n == 0 {
		return 0, 0
	}
	d := r3.Scale(1/n, dir)
	pitchDeg = math.Asin(clampFloat(-d.Y, -1, 1)) * 180 / math.Pi
	yawDeg = math.Atan2(d.X, d.Z) * 180 / math.Pi
	return pitchDeg, yawDeg
}

// LookRotation returns the up-aligned orientation facing along dir.
func LookRotation(dir r3.Vec) quat.Number {
	pitch, yaw := LookAngles(dir)
	return EulerYX(pitch, yaw)
}

// WrapAngle180 wraps an angle in degrees to [-180, 180].
func WrapAngle180(deg float64) float64 {
	deg = math.Mod(deg+180, 360)
	if deg < 0 {
		deg += 360
	}
	return deg - 180
}

// MoveTowards moves current toward target by at most maxDelta.
func MoveTowards(current, target, maxDelta float64) float64 {
	if math.Abs(target-current) <= maxDelta {
		return target
	}
	if target > current {
		return current + maxDelta
	}
	return current - maxDelta
}

// clampFloat clamps a value between min and max.
func clampFloat(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// clamp01 clamps a value to the [0, 1] range.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
