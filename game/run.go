package game

import (
	"context"
	"log/slog"
	"math/rand"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/colibri/components"
	"github.com/pthm-cable/colibri/config"
	"github.com/pthm-cable/colibri/renderer"
	"github.com/pthm-cable/colibri/systems"
	"github.com/pthm-cable/colibri/telemetry"
)

// Options configure a run.
type Options struct {
	Seed           int64
	Training       bool
	Policy         string // "seeker", "random", "keyboard", or "network"
	WeightsPath    string // network weights file, required for "network"
	LogStats       bool
	StatsWindow    int // episodes per stats window (0 = config value)
	OutputDir      string
	DBPath         string
	StreamAddr     string
	StepsPerUpdate int
}

// Runner wires an Env to its telemetry sinks and, in graphical mode, to
// the renderer. It owns the run lifecycle from setup to summary.
type Runner struct {
	cfg   *config.Config
	env   *Env
	agent ecs.Entity
	opts  Options

	collector *telemetry.Collector
	output    *telemetry.OutputManager
	store     *telemetry.Store
	streamer  *telemetry.Streamer

	scene *renderer.Scene
	panel *renderer.Panel

	frozen bool
}

// NewRunner builds the environment, spawns one agent, and connects the
// configured telemetry sinks.
func NewRunner(opts Options) (*Runner, error) {
	cfg := config.Cfg()

	if opts.StepsPerUpdate < 1 {
		opts.StepsPerUpdate = 1
	}
	window := opts.StatsWindow
	if window <= 0 {
		window = cfg.Telemetry.StatsWindow
	}

	r := &Runner{
		cfg:       cfg,
		opts:      opts,
		env:       NewEnv(cfg, opts.Seed, opts.Training),
		collector: telemetry.NewCollector(window),
		panel:     renderer.NewPanel(),
	}

	var policy Policy
	switch opts.Policy {
	case "random":
		policy = NewRandomPolicy(rand.New(rand.NewSource(opts.Seed + 1)))
	case "keyboard":
		policy = KeyboardPolicy{}
	case "network":
		p, err := LoadNetworkPolicy(opts.WeightsPath)
		if err != nil {
			return nil, err
		}
		policy = p
	default:
		policy = NewSeekerPolicy()
	}
	r.agent = r.env.AddAgent(policy)

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	r.output = output
	if err := r.output.WriteConfig(cfg); err != nil {
		return nil, err
	}

	if opts.DBPath != "" {
		store := telemetry.NewStore(opts.DBPath)
		if err := store.Init(context.Background()); err != nil {
			return nil, err
		}
		if err := store.BeginRun(context.Background(), opts.Seed, opts.Training); err != nil {
			return nil, err
		}
		r.store = store
		slog.Info("store_opened", "path", opts.DBPath, "run_id", store.RunID())
	}

	if opts.StreamAddr != "" {
		r.streamer = telemetry.NewStreamer()
		go func() {
			if err := r.streamer.Serve(opts.StreamAddr); err != nil {
				slog.Error("stream_server_failed", "addr", opts.StreamAddr, "error", err)
			}
		}()
		slog.Info("stream_listening", "addr", opts.StreamAddr)
	}

	r.env.OnEpisode(r.handleEpisode)

	return r, nil
}

// handleEpisode fans one finished episode out to every sink and flushes
// window stats on window boundaries.
func (r *Runner) handleEpisode(rec telemetry.EpisodeRecord) {
	r.collector.RecordEpisode(rec)

	if err := r.output.WriteEpisode(rec); err != nil {
		slog.Error("failed to write episode", "error", err)
	}
	if r.store != nil {
		if err := r.store.SaveEpisode(context.Background(), rec); err != nil {
			slog.Error("failed to save episode", "error", err)
		}
	}
	r.streamer.PublishEpisode(rec)

	window := r.cfg.Telemetry.StatsWindow
	if window > 0 && r.collector.TotalEpisodes()%window == 0 {
		stats := r.collector.Stats()
		if r.opts.LogStats {
			stats.LogStats()
		}
		if err := r.output.WriteWindow(stats); err != nil {
			slog.Error("failed to write window stats", "error", err)
		}
		r.streamer.PublishWindow(stats)
	}
}

// UpdateHeadless advances the simulation without any rendering.
func (r *Runner) UpdateHeadless() {
	for i := 0; i < r.opts.StepsPerUpdate; i++ {
		r.env.Step()
	}
}

// Update advances the simulation for one rendered frame, honoring the
// control panel's pause and speed settings.
func (r *Runner) Update() {
	if rl.IsKeyPressed(rl.KeySpace) {
		r.panel.Paused = !r.panel.Paused
	}
	if r.panel.FreezeToggle && !r.env.Training() {
		if r.frozen {
			r.env.Unfreeze(r.agent)
		} else {
			r.env.Freeze(r.agent)
		}
		r.frozen = !r.frozen
	}

	if r.panel.Paused {
		return
	}
	for i := 0; i < r.panel.Speed; i++ {
		r.env.Step()
	}
}

// Draw renders one frame.
func (r *Runner) Draw() {
	if r.scene == nil {
		r.scene = renderer.NewScene(r.cfg)
	}

	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 18, G: 22, B: 30, A: 255})

	r.scene.Update(float64(rl.GetFrameTime()))
	r.scene.Draw(r.env.Field(), r.agentPoses())
	r.panel.Draw(r.collector.Stats(), r.env.Tick(), r.env.Field().NectarAvailable())

	rl.EndDrawing()
}

func (r *Runner) agentPoses() []renderer.AgentPose {
	var poses []renderer.AgentPose
	r.env.EachAgent(func(_ ecs.Entity, pos *components.Position, _ *components.Velocity, rot *components.Rotation, ag *components.Agent) {
		poses = append(poses, renderer.AgentPose{
			Pos:     pos.Vec,
			Forward: systems.Forward(rot.Quat),
			Frozen:  ag.Frozen,
		})
	})
	return poses
}

// Episodes returns the number of finished episodes.
func (r *Runner) Episodes() int { return r.collector.TotalEpisodes() }

// Tick returns the simulation tick.
func (r *Runner) Tick() int32 { return r.env.Tick() }

// Collector exposes the episode collector for summaries.
func (r *Runner) Collector() *telemetry.Collector { return r.collector }

// Close releases the telemetry sinks.
func (r *Runner) Close() {
	if err := r.output.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}
	if r.streamer != nil {
		_ = r.streamer.Close()
	}
}
