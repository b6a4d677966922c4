package game

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/colibri/systems"
)

// Policy maps one observation to one action. Called once per agent per
// step from the simulation thread.
type Policy interface {
	Act(obs [systems.ObsSize]float64) [systems.ActSize]float64
}

// SeekerPolicy is a hand-written heuristic that flies the beak toward the
// observed target: thrust along the to-flower direction in the body frame,
// steering the nose onto it. It feeds reliably without learned weights and
// is the default headless policy.
type SeekerPolicy struct {
	SteerGain float64 // action units per degree of heading error
	SlowRange float64 // normalized distance below which thrust tapers
}

// NewSeekerPolicy returns a seeker with tested default gains.
func NewSeekerPolicy() *SeekerPolicy {
	return &SeekerPolicy{SteerGain: 0.05, SlowRange: 0.04}
}

func (p *SeekerPolicy) Act(obs [systems.ObsSize]float64) [systems.ActSize]float64 {
	var act [systems.ActSize]float64

	dir := r3.Vec{X: obs[4], Y: obs[5], Z: obs[6]}
	if dir == (r3.Vec{}) {
		return act // no target, hover in place
	}

	q := quat.Number{Real: obs[0], Imag: obs[1], Jmag: obs[2], Kmag: obs[3]}

	// Taper thrust on final approach so the beak does not overshoot.
	throttle := 1.0
	if p.SlowRange > 0 {
		throttle = math.Min(1, obs[9]/p.SlowRange)
	}
	if throttle < 0.05 {
		throttle = 0.05
	}

	local := systems.Rotate(quat.Conj(q), dir)
	act[systems.ActForceX] = clampAction(local.X * throttle)
	act[systems.ActForceY] = clampAction(local.Y * throttle)
	act[systems.ActForceZ] = clampAction(local.Z * throttle)

	curPitch, curYaw := systems.LookAngles(systems.Forward(q))
	wantPitch, wantYaw := systems.LookAngles(dir)
	act[systems.ActPitch] = clampAction((wantPitch - curPitch) * p.SteerGain)
	act[systems.ActYaw] = clampAction(systems.WrapAngle180(wantYaw-curYaw) * p.SteerGain)

	return act
}

// RandomPolicy emits a smoothed random walk over the action space. Useful
// as an exploration baseline and for soak-testing the environment.
type RandomPolicy struct {
	rng *rand.Rand
	act [systems.ActSize]float64
}

// NewRandomPolicy creates a random policy over its own action state.
func NewRandomPolicy(rng *rand.Rand) *RandomPolicy {
	return &RandomPolicy{rng: rng}
}

func (p *RandomPolicy) Act(_ [systems.ObsSize]float64) [systems.ActSize]float64 {
	for i := range p.act {
		p.act[i] = clampAction(p.act[i]*0.9 + p.rng.NormFloat64()*0.3)
	}
	return p.act
}

// clampAction clamps an action component to [-1, 1].
func clampAction(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
