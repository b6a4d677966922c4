// Package renderer draws the foraging area and its agents with raylib.
// It is strictly a view: nothing here feeds back into the simulation.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/colibri/camera"
	"github.com/pthm-cable/colibri/config"
	"github.com/pthm-cable/colibri/systems"
)

// AgentPose is the render-side view of one agent.
type AgentPose struct {
	Pos     r3.Vec
	Forward r3.Vec
	Frozen  bool
}

// Scene renders the 3D foraging area with an orbit camera.
type Scene struct {
	cfg   *config.Config
	orbit *camera.Orbit
	noise opensimplex.Noise
	t     float64
}

// NewScene creates a scene. Must be called after the raylib window exists.
func NewScene(cfg *config.Config) *Scene {
	return &Scene{
		cfg:   cfg,
		orbit: camera.New(r3.Vec{Y: 2}, 14),
		noise: opensimplex.NewNormalized(1),
	}
}

// Update advances the camera and the sway clock. The camera drifts slowly
// on its own; dragging the right mouse button steers it, the wheel dollies.
func (s *Scene) Update(dt float64) {
	s.t += dt

	if rl.IsMouseButtonDown(rl.MouseRightButton) {
		delta := rl.GetMouseDelta()
		s.orbit.Rotate(float64(delta.X)*0.3, float64(-delta.Y)*0.3)
	} else {
		s.orbit.Rotate(4*dt, 0)
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		s.orbit.Dolly(1 - float64(wheel)*0.1)
	}
}

// rlCamera builds the raylib camera for the current orbit state.
func (s *Scene) rlCamera() rl.Camera3D {
	return rl.Camera3D{
		Position:   vec3(s.orbit.Position()),
		Target:     vec3(s.orbit.Target),
		Up:         rl.Vector3{Y: 1},
		Fovy:       45,
		Projection: rl.CameraPerspective,
	}
}

// Draw renders the area and agents. Flower sway is cosmetic; the physics
// runs on the unswayed positions.
func (s *Scene) Draw(field *systems.FlowerField, agents []AgentPose) {
	rl.BeginMode3D(s.rlCamera())

	s.drawGround(field.Origin())
	s.drawPlants(field)
	for _, a := range agents {
		s.drawAgent(a)
	}

	rl.EndMode3D()
}

func (s *Scene) drawGround(origin r3.Vec) {
	radius := float32(s.cfg.Derived.FieldRadius)
	center := vec3(origin)

	rl.DrawCylinder(
		rl.Vector3{X: center.X, Y: center.Y - 0.05, Z: center.Z},
		radius, radius, 0.05, 48,
		rl.Color{R: 36, G: 66, B: 38, A: 255},
	)

	// Boundary shell.
	rl.DrawCircle3D(
		rl.Vector3{X: center.X, Y: center.Y + 0.02, Z: center.Z},
		radius,
		rl.Vector3{X: 1}, 90,
		rl.Color{R: 200, G: 200, B: 200, A: 90},
	)
}

func (s *Scene) drawPlants(field *systems.FlowerField) {
	stemColor := rl.Color{R: 58, G: 95, B: 48, A: 255}
	stemRadius := float32(s.cfg.Field.StemRadius)
	stemHeight := float32(s.cfg.Field.StemHeight)

	for _, plant := range field.Plants() {
		base := vec3(plant.Pos)
		rl.DrawCylinder(base, stemRadius, stemRadius*1.4, stemHeight, 8, stemColor)
	}

	for _, f := range field.Flowers() {
		body := f.BodyCenter()
		sway := s.swayOffset(body)
		center := vec3(r3.Add(body, sway))

		color := rl.Color{R: 214, G: 69, B: 123, A: 255}
		if f.Material() == systems.MaterialEmpty {
			color = rl.Color{R: 120, G: 110, B: 115, A: 255}
		}
		rl.DrawSphere(center, float32(f.BodyRadius()), color)

		if f.Active() {
			nectar := vec3(r3.Add(f.NectarCenter(), sway))
			rl.DrawSphere(nectar, float32(f.NectarRadius()), rl.Color{R: 250, G: 220, B: 90, A: 255})
		}
	}
}

func (s *Scene) drawAgent(a AgentPose) {
	body := rl.Color{R: 64, G: 180, B: 188, A: 255}
	if a.Frozen {
		body = rl.Color{R: 140, G: 150, B: 160, A: 255}
	}

	bodyRadius := float32(s.cfg.Agent.BodyRadius)
	rl.DrawSphere(vec3(a.Pos), bodyRadius, body)

	tip := r3.Add(a.Pos, r3.Scale(s.cfg.Agent.BeakLength, a.Forward))
	rl.DrawCylinderEx(vec3(a.Pos), vec3(tip), bodyRadius*0.35, 0.002, 8, rl.Color{R: 40, G: 40, B: 46, A: 255})

	// Altitude marker helps judge height against the ground plane.
	ground := rl.Vector3{X: float32(a.Pos.X), Y: 0, Z: float32(a.Pos.Z)}
	rl.DrawLine3D(vec3(a.Pos), ground, rl.Color{R: 255, G: 255, B: 255, A: 40})
}

// swayOffset samples smooth noise to give each flower a gentle idle drift.
func (s *Scene) swayOffset(p r3.Vec) r3.Vec {
	nx := s.noise.Eval3(p.X*0.8, p.Z*0.8, s.t*0.4) - 0.5
	nz := s.noise.Eval3(p.Z*0.8+31.7, p.X*0.8, s.t*0.4) - 0.5
	return r3.Vec{X: nx * 0.04, Z: nz * 0.04}
}

func vec3(v r3.Vec) rl.Vector3 {
	return rl.Vector3{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}
