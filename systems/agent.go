package systems

import (
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/colibri/components"
	"github.com/pthm-cable/colibri/config"
)

// Observation and action vector sizes. The layouts are fixed: policies are
// trained against them.
const (
	ObsSize = 10
	ActSize = 5
)

// Action vector layout: 0-2 local force, 3 pitch delta, 4 yaw delta,
// all nominally in [-1, 1]. Out-of-range values are the action source's
// problem; this layer does not clamp them.
const (
	ActForceX = iota
	ActForceY
	ActForceZ
	ActPitch
	ActYaw
)

// ForagingSystem drives the hummingbird decision loop: action application,
// nearest-target tracking, observation construction, reward shaping, safe
// spawn sampling, and feeding resolution. All methods are synchronous and
// called from the single simulation thread in a fixed per-step order.
type ForagingSystem struct {
	cfg       *config.Config
	field     *FlowerField
	colliders *ColliderSet
	rng       *rand.Rand
	training  bool
}

// NewForagingSystem creates the agent system over a built field.
func NewForagingSystem(cfg *config.Config, field *FlowerField, colliders *ColliderSet, rng *rand.Rand, training bool) *ForagingSystem {
	return &ForagingSystem{
		cfg:       cfg,
		field:     field,
		colliders: colliders,
		rng:       rng,
		training:  training,
	}
}

// Training reports whether rewards and episode resets are active.
func (s *ForagingSystem) Training() bool { return s.training }

// Field returns the flower field the system forages over.
func (s *ForagingSystem) Field() *FlowerField { return s.field }

// BeakTip returns the agent's feeding point: the beak tip, offset along
// the forward axis. All proximity and alignment checks use this point.
func (s *ForagingSystem) BeakTip(pos *components.Position, rot *components.Rotation) r3.Vec {
	return r3.Add(pos.Vec, r3.Scale(s.cfg.Agent.BeakLength, Forward(rot.Quat)))
}

// OnEpisodeBegin resets the agent for a new episode. In training mode the
// whole field is reset first; the agent then respawns (flower-biased with
// the configured probability in training, always flower-biased otherwise)
// and recomputes its nearest target.
func (s *ForagingSystem) OnEpisodeBegin(pos *components.Position, vel *components.Velocity, rot *components.Rotation, ag *components.Agent) {
	if s.training {
		s.field.ResetAll(s.rng, s.cfg.Field.PlantTiltMax)
	}

	ag.NectarObtained = 0
	ag.Reward = 0
	ag.StepCount = 0
	ag.Feeds = 0
	ag.BoundaryHits = 0
	ag.Episode++
	vel.Linear = r3.Vec{}
	vel.Angular = r3.Vec{}

	inFront := true
	if s.training {
		inFront = s.rng.Float64() < s.cfg.Episode.SpawnInFrontChance
	}
	s.MoveToSafePosition(inFront, pos, rot, ag)
	s.UpdateNearestTarget(pos, rot, ag)
}

// MoveToSafePosition places the agent by rejection sampling: candidates are
// drawn until one's clearance sphere overlaps no collider. Exhausting the
// attempt budget means the area is too cluttered to place the agent and is
// a fatal invariant violation. Position and orientation commit together.
func (s *ForagingSystem) MoveToSafePosition(inFront bool, pos *components.Position, rot *components.Rotation, ag *components.Agent) {
	sp := &s.cfg.Spawn

	var candidate r3.Vec
	var pitch, yaw float64
	found := false

	for attempt := 0; attempt < sp.MaxAttempts && !found; attempt++ {
		if inFront {
			// Any flower qualifies, full or empty.
			flowers := s.field.Flowers()
			f := flowers[s.rng.Intn(len(flowers))]
			d := randRange(s.rng, sp.BiasDistMin, sp.BiasDistMax)
			candidate = r3.Add(f.NectarCenter(), r3.Scale(d, f.NectarUp()))
			pitch, yaw = LookAngles(r3.Sub(f.NectarCenter(), candidate))
		} else {
			height := randRange(s.rng, sp.FreeHeightMin, sp.FreeHeightMax)
			radius := randRange(s.rng, sp.FreeRadiusMin, sp.FreeRadiusMax)
			heading := randRange(s.rng, -180, 180)
			// Vertical offset first, then the heading-rotated forward
			// offset; the composition order shapes the distribution.
			offset := r3.Add(
				r3.Scale(height, AxisY),
				Rotate(AxisAngleDeg(AxisY, heading), r3.Scale(radius, AxisZ)),
			)
			candidate = r3.Add(s.field.Origin(), offset)
			pitch = randRange(s.rng, -sp.FreePitchMax, sp.FreePitchMax)
			yaw = randRange(s.rng, -180, 180)
		}

		found = !s.colliders.OverlapSphere(candidate, sp.SafeRadius)
	}

	if !found {
		panic("agent: no safe position found within the attempt budget")
	}

	pos.Vec = candidate
	ag.Pitch = clampFloat(pitch, -s.cfg.Agent.MaxPitch, s.cfg.Agent.MaxPitch)
	ag.Yaw = yaw
	ag.SmoothPitch = 0
	ag.SmoothYaw = 0
	// The spawn orientation keeps the unclamped look pitch so a biased
	// spawn faces the feeding region exactly; the control clamp takes
	// over from the first action step.
	rot.Quat = EulerYX(pitch, yaw)
}

// UpdateNearestTarget refreshes the nearest-target cache with a linear scan
// in the field's canonical order. A flower replaces the candidate when it
// has nectar and either the candidate is empty or it is strictly closer to
// the beak tip; ties keep the earlier-discovered flower. When every flower
// is empty the cache keeps its last assignment, which may be stale.
func (s *ForagingSystem) UpdateNearestTarget(pos *components.Position, rot *components.Rotation, ag *components.Agent) {
	flowers := s.field.Flowers()
	tip := s.BeakTip(pos, rot)

	best := ag.TargetIdx
	if best < 0 || best >= len(flowers) {
		best = components.NoTarget
	}
	var bestDist float64
	if best != components.NoTarget {
		bestDist = r3.Norm(r3.Sub(flowers[best].BodyCenter(), tip))
	}

	for i, f := range flowers {
		if best == components.NoTarget {
			if f.HasNectar() {
				best = i
				bestDist = r3.Norm(r3.Sub(f.BodyCenter(), tip))
			}
			continue
		}
		if !f.HasNectar() {
			continue
		}
		d := r3.Norm(r3.Sub(f.BodyCenter(), tip))
		if !flowers[best].HasNectar() || d < bestDist {
			best = i
			bestDist = d
		}
	}

	ag.TargetIdx = best
}

// CollectObservations builds the 10-float policy observation: orientation
// quaternion, unit vector from beak tip to the target's nectar center, two
// alignment dot products against the negated nectar up-axis, and the
// distance normalized by the field diameter. Without a cached target the
// vector is all zeros.
func (s *ForagingSystem) CollectObservations(pos *components.Position, rot *components.Rotation, ag *components.Agent) [ObsSize]float64 {
	var obs [ObsSize]float64

	flowers := s.field.Flowers()
	if ag.TargetIdx < 0 || ag.TargetIdx >= len(flowers) {
		return obs
	}
	f := flowers[ag.TargetIdx]

	q := QuatNormalize(rot.Quat)
	obs[0] = q.Real
	obs[1] = q.Imag
	obs[2] = q.Jmag
	obs[3] = q.Kmag

	tip := s.BeakTip(pos, rot)
	toFlower := r3.Sub(f.NectarCenter(), tip)
	dist := r3.Norm(toFlower)
	var dir r3.Vec
	if dist > 0 {
		dir = r3.Scale(1/dist, toFlower)
	}
	obs[4] = dir.X
	obs[5] = dir.Y
	obs[6] = dir.Z

	negUp := r3.Scale(-1, f.NectarUp())
	obs[7] = r3.Dot(dir, negUp)
	obs[8] = r3.Dot(Forward(rot.Quat), negUp)
	obs[9] = dist / s.cfg.Field.Diameter

	return obs
}

// ApplyAction applies one action vector: components 0-2 are a local-frame
// force on the body, 3-4 are pitch/yaw deltas low-pass filtered at the
// configured rate. Pitch wraps then hard-clamps; yaw accumulates freely.
// The orientation is rebuilt from (pitch, yaw, 0). No-op while frozen.
func (s *ForagingSystem) ApplyAction(act [ActSize]float64, vel *components.Velocity, rot *components.Rotation, ag *components.Agent) {
	if ag.Frozen {
		return
	}

	local := r3.Vec{X: act[ActForceX], Y: act[ActForceY], Z: act[ActForceZ]}
	force := r3.Scale(s.cfg.Agent.MoveForce, Rotate(rot.Quat, local))
	vel.Linear = r3.Add(vel.Linear, r3.Scale(s.cfg.Physics.DT, force))

	d := &s.cfg.Derived
	ag.SmoothPitch = MoveTowards(ag.SmoothPitch, act[ActPitch], d.SmoothMaxDelta)
	ag.SmoothYaw = MoveTowards(ag.SmoothYaw, act[ActYaw], d.SmoothMaxDelta)

	pitch := WrapAngle180(ag.Pitch + ag.SmoothPitch*d.PitchPerStep)
	ag.Pitch = clampFloat(pitch, -s.cfg.Agent.MaxPitch, s.cfg.Agent.MaxPitch)
	ag.Yaw += ag.SmoothYaw * d.YawPerStep

	rot.Quat = EulerYX(ag.Pitch, ag.Yaw)
}

// Integrate advances the rigid body one step: exponential drag, then
// position update. Frozen agents hold zero velocity.
func (s *ForagingSystem) Integrate(pos *components.Position, vel *components.Velocity, ag *components.Agent) {
	if ag.Frozen {
		vel.Linear = r3.Vec{}
		vel.Angular = r3.Vec{}
		return
	}
	vel.Linear = r3.Scale(s.cfg.Derived.DragFactor, vel.Linear)
	pos.Vec = r3.Add(pos.Vec, r3.Scale(s.cfg.Physics.DT, vel.Linear))
}

// ResolveFeedingContact handles a trigger contact with a nectar region.
// Feeding requires the beak tip within the tip radius of the region's
// closest point: precise alignment, not mere proximity. The shaped reward
// aligns against the cached nearest target, which is not necessarily the
// flower just fed.
func (s *ForagingSystem) ResolveFeedingContact(region RegionID, pos *components.Position, rot *components.Rotation, ag *components.Agent) {
	f := s.field.LookupByRegion(region)
	if !f.Active() {
		return
	}

	tip := s.BeakTip(pos, rot)
	closest := f.ClosestNectarPoint(tip)
	if r3.Norm(r3.Sub(closest, tip)) >= s.cfg.Agent.BeakTipRadius {
		return
	}

	taken := f.Feed(s.cfg.Agent.FeedAmount)
	ag.NectarObtained += taken
	if taken > 0 {
		ag.Feeds++
	}

	if s.training {
		bonus := 0.0
		flowers := s.field.Flowers()
		if ag.TargetIdx >= 0 && ag.TargetIdx < len(flowers) {
			negUp := r3.Scale(-1, flowers[ag.TargetIdx].NectarUp())
			bonus = s.cfg.Reward.AlignmentBonus * clamp01(r3.Dot(Forward(rot.Quat), negUp))
		}
		ag.Reward += s.cfg.Reward.FeedBase + bonus
	}

	if !f.HasNectar() {
		s.UpdateNearestTarget(pos, rot, ag)
	}
}

// OnBoundaryContact applies the boundary collision penalty. No state
// change outside training mode.
func (s *ForagingSystem) OnBoundaryContact(ag *components.Agent) {
	ag.BoundaryHits++
	if s.training {
		ag.Reward += s.cfg.Reward.BoundaryPenalty
	}
}

// SafetyCheck runs once per physics step before observation collection:
// the nearest-target scan re-runs only when the cache is empty. A stale
// non-empty cache is deliberately left to contact-time refresh.
func (s *ForagingSystem) SafetyCheck(pos *components.Position, rot *components.Rotation, ag *components.Agent) {
	if ag.TargetIdx == components.NoTarget {
		s.UpdateNearestTarget(pos, rot, ag)
	}
}

// Freeze suspends action application and zeroes velocity. External control
// only; never legal during training.
func (s *ForagingSystem) Freeze(vel *components.Velocity, ag *components.Agent) {
	if s.training {
		panic("agent: freeze is not supported in training mode")
	}
	ag.Frozen = true
	vel.Linear = r3.Vec{}
	vel.Angular = r3.Vec{}
}

// Unfreeze resumes action application.
func (s *ForagingSystem) Unfreeze(ag *components.Agent) {
	if s.training {
		panic("agent: unfreeze is not supported in training mode")
	}
	ag.Frozen = false
}
