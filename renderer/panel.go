package renderer

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/colibri/telemetry"
)

// Panel is the raygui control strip drawn over the scene. The caller reads
// its fields after Draw and applies them to the simulation.
type Panel struct {
	Speed        int  // steps per frame, 1-10
	Paused       bool
	FreezeToggle bool // set for one frame when the freeze button is pressed
}

// NewPanel creates the panel with 1x speed.
func NewPanel() *Panel {
	return &Panel{Speed: 1}
}

// Draw renders the panel and updates its state from the widgets.
func (p *Panel) Draw(stats telemetry.WindowStats, tick int32, nectarLeft float64) {
	p.FreezeToggle = false

	x := float32(10)
	y := float32(10)

	rl.DrawText(fmt.Sprintf("Tick: %d", tick), int32(x), int32(y), 20, rl.White)
	y += 25
	rl.DrawText(fmt.Sprintf("Nectar left: %.2f", nectarLeft), int32(x), int32(y), 20, rl.White)
	y += 25
	rl.DrawText(
		fmt.Sprintf("Episodes: %d  nectar p50: %.2f  reward: %.2f",
			stats.Episodes, stats.NectarP50, stats.RewardMean),
		int32(x), int32(y), 20, rl.White,
	)
	y += 30

	rl.DrawText("Speed", int32(x), int32(y), 14, rl.Gray)
	y += 18
	newSpeed := gui.SliderBar(
		rl.Rectangle{X: x, Y: y, Width: 160, Height: 20},
		"1", "10",
		float32(p.Speed), 1, 10,
	)
	rl.DrawText(fmt.Sprintf("%dx", p.Speed), int32(x+170), int32(y+2), 16, rl.White)
	if int(newSpeed) != p.Speed {
		p.Speed = int(newSpeed)
	}
	y += 30

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: 90, Height: 26}, pauseLabel(p.Paused)) {
		p.Paused = !p.Paused
	}
	if gui.Button(rl.Rectangle{X: x + 100, Y: y, Width: 90, Height: 26}, "Freeze") {
		p.FreezeToggle = true
	}

	if p.Paused {
		rl.DrawText("PAUSED", int32(x), int32(y)+35, 20, rl.Yellow)
	}
}

func pauseLabel(paused bool) string {
	if paused {
		return "Resume"
	}
	return "Pause"
}
