package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/mattn/go-isatty"

	"github.com/pthm-cable/colibri/config"
	"github.com/pthm-cable/colibri/game"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	training := flag.Bool("training", false, "Enable training mode (rewards and field resets)")
	policy := flag.String("policy", "seeker", "Agent policy: seeker, random, keyboard, or network")
	weights := flag.String("weights", "", "Network weights file for -policy network")
	logStats := flag.Bool("log-stats", false, "Log window stats via slog")
	statsWindow := flag.Int("stats-window", 0, "Episodes per stats window (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	dbPath := flag.String("db", "", "SQLite database path for episode storage")
	streamAddr := flag.String("stream", "", "Address for the WebSocket telemetry stream (e.g. :8090)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxEpisodes := flag.Int("max-episodes", 0, "Stop after N episodes (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation steps per update call (headless speedup)")

	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Human-readable logs on a terminal, JSON when piped.
	var handler slog.Handler
	if isatty.IsTerminal(os.Stdout.Fd()) {
		handler = slog.NewTextHandler(os.Stdout, nil)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := game.Options{
		Seed:           rngSeed,
		Training:       *training,
		Policy:         *policy,
		WeightsPath:    *weights,
		LogStats:       *logStats,
		StatsWindow:    *statsWindow,
		OutputDir:      *outputDir,
		DBPath:         *dbPath,
		StreamAddr:     *streamAddr,
		StepsPerUpdate: *stepsPerUpdate,
	}

	if *headless {
		runner, err := game.NewRunner(opts)
		if err != nil {
			slog.Error("failed to start run", "error", err)
			os.Exit(1)
		}
		defer runner.Close()

		slog.Info("starting headless run",
			"seed", rngSeed,
			"training", *training,
			"policy", *policy,
			"max_episodes", *maxEpisodes,
		)

		for {
			runner.UpdateHeadless()

			if *maxEpisodes > 0 && runner.Episodes() >= *maxEpisodes {
				break
			}
		}
		logSummary(runner)
		return
	}

	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Colibri")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	runner, err := game.NewRunner(opts)
	if err != nil {
		slog.Error("failed to start run", "error", err)
		os.Exit(1)
	}
	defer runner.Close()

	for !rl.WindowShouldClose() {
		runner.Update()
		runner.Draw()

		if *maxEpisodes > 0 && runner.Episodes() >= *maxEpisodes {
			break
		}
	}
	logSummary(runner)
}

func logSummary(runner *game.Runner) {
	c := runner.Collector()
	slog.Info("run_summary",
		"episodes", humanize.Comma(int64(c.TotalEpisodes())),
		"steps", humanize.Comma(int64(c.TotalSteps())),
		"feeds", humanize.Comma(int64(c.TotalFeeds())),
		"nectar", fmt.Sprintf("%.2f", c.TotalNectar()),
	)
}
