// Package game owns the simulation world: the ECS holding agents, the
// foraging area built around it, and the fixed-step decision loop that
// drives policies, physics, feeding, and episode lifecycle.
package game

import (
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/colibri/components"
	"github.com/pthm-cable/colibri/config"
	"github.com/pthm-cable/colibri/systems"
	"github.com/pthm-cable/colibri/telemetry"
)

// Env is the headless simulation environment. All agents share one area;
// the physics step is fixed and deterministic for a given seed and policy.
type Env struct {
	cfg   *config.Config
	world *ecs.World
	rng   *rand.Rand

	agentMapper *ecs.Map4[
		components.Position,
		components.Velocity,
		components.Rotation,
		components.Agent,
	]
	agentFilter *ecs.Filter4[
		components.Position,
		components.Velocity,
		components.Rotation,
		components.Agent,
	]

	area     *Area
	foraging *systems.ForagingSystem
	policies map[ecs.Entity]Policy

	onEpisode func(telemetry.EpisodeRecord)

	tick     int32
	training bool
}

// NewEnv builds the world and the foraging area. Agents are added
// separately via AddAgent.
func NewEnv(cfg *config.Config, seed int64, training bool) *Env {
	world := ecs.NewWorld()
	rng := rand.New(rand.NewSource(seed))

	e := &Env{
		cfg:      cfg,
		world:    world,
		rng:      rng,
		training: training,
		policies: make(map[ecs.Entity]Policy),
		agentMapper: ecs.NewMap4[
			components.Position,
			components.Velocity,
			components.Rotation,
			components.Agent,
		](world),
		agentFilter: ecs.NewFilter4[
			components.Position,
			components.Velocity,
			components.Rotation,
			components.Agent,
		](world),
	}

	e.area = BuildArea(cfg, r3.Vec{}, rng)
	e.foraging = systems.NewForagingSystem(cfg, e.area.Field, e.area.Colliders, rng, training)

	slog.Info("env_created",
		"plants", len(e.area.Field.Plants()),
		"flowers", len(e.area.Field.Flowers()),
		"training", training,
		"seed", seed,
	)

	return e
}

// AddAgent spawns a hummingbird driven by policy and starts its first
// episode immediately.
func (e *Env) AddAgent(policy Policy) ecs.Entity {
	// The step budget only binds training episodes; play mode runs
	// unbounded.
	maxStep := 0
	if e.training {
		maxStep = e.cfg.Episode.MaxStep
	}

	pos := components.Position{}
	vel := components.Velocity{}
	rot := components.Rotation{Quat: systems.QuatIdentity()}
	ag := components.Agent{
		MaxStep:   maxStep,
		TargetIdx: components.NoTarget,
	}

	entity := e.agentMapper.NewEntity(&pos, &vel, &rot, &ag)
	e.policies[entity] = policy

	p, v, r, a := e.agentMapper.Get(entity)
	e.foraging.OnEpisodeBegin(p, v, r, a)

	return entity
}

// SetPolicy swaps the policy driving an agent.
func (e *Env) SetPolicy(entity ecs.Entity, policy Policy) {
	e.policies[entity] = policy
}

// OnEpisode registers a callback invoked with every finished episode,
// before the next one starts. A nil callback disables recording.
func (e *Env) OnEpisode(fn func(telemetry.EpisodeRecord)) {
	e.onEpisode = fn
}

// Freeze suspends an agent. Only legal outside training.
func (e *Env) Freeze(entity ecs.Entity) {
	_, vel, _, ag := e.agentMapper.Get(entity)
	e.foraging.Freeze(vel, ag)
}

// Unfreeze resumes an agent.
func (e *Env) Unfreeze(entity ecs.Entity) {
	_, _, _, ag := e.agentMapper.Get(entity)
	e.foraging.Unfreeze(ag)
}

// Step advances the simulation one fixed timestep. Per agent, in order:
// observe, decide, act, integrate, boundary check, feeding contacts,
// target-cache safety check, episode bookkeeping.
func (e *Env) Step() {
	query := e.agentFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, vel, rot, ag := query.Get()

		obs := e.foraging.CollectObservations(pos, rot, ag)
		var act [systems.ActSize]float64
		if p := e.policies[entity]; p != nil && !ag.Frozen {
			act = p.Act(obs)
		}

		e.foraging.ApplyAction(act, vel, rot, ag)
		e.foraging.Integrate(pos, vel, ag)

		if e.area.Colliders.OutsideBoundary(pos.Vec) {
			e.foraging.OnBoundaryContact(ag)
			e.clampToBoundary(pos, vel)
		}

		e.resolveContacts(pos, rot, ag)
		e.foraging.SafetyCheck(pos, rot, ag)

		ag.StepCount++
		if ag.MaxStep > 0 && ag.StepCount >= ag.MaxStep {
			e.finishEpisode(pos, vel, rot, ag)
		}
	}
	e.tick++
}

// resolveContacts runs the broad phase for the beak tip against every
// active nectar region and dispatches at most one contact event per
// region per step.
func (e *Env) resolveContacts(pos *components.Position, rot *components.Rotation, ag *components.Agent) {
	tip := e.foraging.BeakTip(pos, rot)
	tipRadius := e.cfg.Agent.BeakTipRadius

	for _, f := range e.area.Field.Flowers() {
		if !f.Active() {
			continue
		}
		reach := f.NectarRadius() + tipRadius
		if r3.Norm2(r3.Sub(f.NectarCenter(), tip)) <= reach*reach {
			e.foraging.ResolveFeedingContact(f.Region(), pos, rot, ag)
		}
	}
}

// clampToBoundary projects an escaped agent back inside the boundary
// shell and kills the outward velocity component.
func (e *Env) clampToBoundary(pos *components.Position, vel *components.Velocity) {
	origin := e.area.Field.Origin()
	radius := e.cfg.Derived.FieldRadius

	d := r3.Sub(pos.Vec, origin)
	horiz := r3.Vec{X: d.X, Z: d.Z}
	if hd := r3.Norm(horiz); hd > radius {
		inward := r3.Scale(radius/hd, horiz)
		pos.Vec = r3.Vec{X: origin.X + inward.X, Y: pos.Vec.Y, Z: origin.Z + inward.Z}
		vel.Linear = r3.Vec{Y: vel.Linear.Y}
	}

	floor := origin.Y + 0.1
	ceiling := origin.Y + e.cfg.Field.Height
	if pos.Vec.Y < floor {
		pos.Vec.Y = floor
		vel.Linear.Y = 0
	} else if pos.Vec.Y > ceiling {
		pos.Vec.Y = ceiling
		vel.Linear.Y = 0
	}
}

// finishEpisode reports the finished episode and starts the next one.
func (e *Env) finishEpisode(pos *components.Position, vel *components.Velocity, rot *components.Rotation, ag *components.Agent) {
	if e.onEpisode != nil {
		e.onEpisode(telemetry.EpisodeRecord{
			Episode:      ag.Episode,
			Steps:        ag.StepCount,
			Nectar:       ag.NectarObtained,
			Reward:       ag.Reward,
			Feeds:        ag.Feeds,
			BoundaryHits: ag.BoundaryHits,
		})
	}

	slog.Debug("episode_end",
		"episode", ag.Episode,
		"steps", ag.StepCount,
		"nectar", ag.NectarObtained,
		"reward", ag.Reward,
		"feeds", ag.Feeds,
		"boundary_hits", ag.BoundaryHits,
	)

	e.foraging.OnEpisodeBegin(pos, vel, rot, ag)
}

// EachAgent visits every agent with its components. The callback must not
// add or remove entities.
func (e *Env) EachAgent(fn func(ecs.Entity, *components.Position, *components.Velocity, *components.Rotation, *components.Agent)) {
	query := e.agentFilter.Query()
	for query.Next() {
		pos, vel, rot, ag := query.Get()
		fn(query.Entity(), pos, vel, rot, ag)
	}
}

// Field returns the flower field shared by all agents.
func (e *Env) Field() *systems.FlowerField { return e.area.Field }

// Foraging exposes the agent system, mainly for the beak tip helper.
func (e *Env) Foraging() *systems.ForagingSystem { return e.foraging }

// Tick returns the number of steps taken.
func (e *Env) Tick() int32 { return e.tick }

// Training reports whether the environment runs in training mode.
func (e *Env) Training() bool { return e.training }
