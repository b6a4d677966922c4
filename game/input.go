package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/colibri/systems"
)

// KeyboardPolicy maps held keys to an action vector for manual flight in
// the graphical mode. W/S drive forward and back, A/D strafe, E/Q climb
// and descend, arrow keys pitch and yaw.
type KeyboardPolicy struct{}

func (KeyboardPolicy) Act(_ [systems.ObsSize]float64) [systems.ActSize]float64 {
	var act [systems.ActSize]float64

	if rl.IsKeyDown(rl.KeyW) {
		act[systems.ActForceZ] = 1
	}
	if rl.IsKeyDown(rl.KeyS) {
		act[systems.ActForceZ] = -1
	}
	if rl.IsKeyDown(rl.KeyD) {
		act[systems.ActForceX] = 1
	}
	if rl.IsKeyDown(rl.KeyA) {
		act[systems.ActForceX] = -1
	}
	if rl.IsKeyDown(rl.KeyE) {
		act[systems.ActForceY] = 1
	}
	if rl.IsKeyDown(rl.KeyQ) {
		act[systems.ActForceY] = -1
	}
	if rl.IsKeyDown(rl.KeyUp) {
		act[systems.ActPitch] = 1
	}
	if rl.IsKeyDown(rl.KeyDown) {
		act[systems.ActPitch] = -1
	}
	if rl.IsKeyDown(rl.KeyRight) {
		act[systems.ActYaw] = 1
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		act[systems.ActYaw] = -1
	}

	return act
}
