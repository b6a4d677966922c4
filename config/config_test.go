package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"physics.dt", cfg.Physics.DT, 0.02},
		{"physics.drag", cfg.Physics.Drag, 1.0},
		{"field.diameter", cfg.Field.Diameter, 20.0},
		{"field.height", cfg.Field.Height, 8.0},
		{"field.plant_tilt_max", cfg.Field.PlantTiltMax, 5.0},
		{"agent.move_force", cfg.Agent.MoveForce, 2.0},
		{"agent.max_pitch", cfg.Agent.MaxPitch, 80.0},
		{"agent.beak_length", cfg.Agent.BeakLength, 0.12},
		{"agent.beak_tip_radius", cfg.Agent.BeakTipRadius, 0.008},
		{"agent.feed_amount", cfg.Agent.FeedAmount, 0.01},
		{"spawn.safe_radius", cfg.Spawn.SafeRadius, 0.05},
		{"reward.feed_base", cfg.Reward.FeedBase, 0.01},
		{"reward.alignment_bonus", cfg.Reward.AlignmentBonus, 0.02},
		{"reward.boundary_penalty", cfg.Reward.BoundaryPenalty, -0.5},
		{"episode.spawn_in_front_chance", cfg.Episode.SpawnInFrontChance, 0.5},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Errorf("%s = %v, want %v", tc.name, tc.got, tc.want)
		}
	}

	if cfg.Field.PlantCount != 6 || cfg.Field.FlowersPerPlant != 4 {
		t.Errorf("field layout = %d plants x %d flowers, want 6 x 4", cfg.Field.PlantCount, cfg.Field.FlowersPerPlant)
	}
	if cfg.Spawn.MaxAttempts != 100 {
		t.Errorf("spawn.max_attempts = %d, want 100", cfg.Spawn.MaxAttempts)
	}
	if cfg.Episode.MaxStep != 5000 {
		t.Errorf("episode.max_step = %d, want 5000", cfg.Episode.MaxStep)
	}
	if cfg.Telemetry.StatsWindow != 20 {
		t.Errorf("telemetry.stats_window = %d, want 20", cfg.Telemetry.StatsWindow)
	}
}

func TestDerivedValues(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	d := cfg.Derived

	if d.FieldRadius != 10 {
		t.Errorf("FieldRadius = %v, want 10", d.FieldRadius)
	}
	if math.Abs(d.SmoothMaxDelta-0.04) > 1e-12 {
		t.Errorf("SmoothMaxDelta = %v, want 0.04", d.SmoothMaxDelta)
	}
	if math.Abs(d.PitchPerStep-2) > 1e-12 {
		t.Errorf("PitchPerStep = %v, want 2", d.PitchPerStep)
	}
	if math.Abs(d.YawPerStep-2) > 1e-12 {
		t.Errorf("YawPerStep = %v, want 2", d.YawPerStep)
	}
	if math.Abs(d.DragFactor-math.Exp(-0.02)) > 1e-12 {
		t.Errorf("DragFactor = %v, want %v", d.DragFactor, math.Exp(-0.02))
	}
}

func TestLoadOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	content := []byte("physics:\n  dt: 0.05\nfield:\n  diameter: 40.0\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Physics.DT != 0.05 {
		t.Errorf("dt = %v, want override 0.05", cfg.Physics.DT)
	}
	if cfg.Field.Diameter != 40 {
		t.Errorf("diameter = %v, want override 40", cfg.Field.Diameter)
	}
	// Untouched fields keep their defaults.
	if cfg.Agent.MoveForce != 2 {
		t.Errorf("move_force = %v, want default 2", cfg.Agent.MoveForce)
	}
	// Derived values follow the overrides.
	if cfg.Derived.FieldRadius != 20 {
		t.Errorf("FieldRadius = %v, want 20", cfg.Derived.FieldRadius)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load with a missing file did not error")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Field.Diameter = 33

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML error: %v", err)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load of written config error: %v", err)
	}
	if back.Field.Diameter != 33 {
		t.Errorf("round-tripped diameter = %v, want 33", back.Field.Diameter)
	}
	if back.Derived.FieldRadius != 16.5 {
		t.Errorf("round-tripped FieldRadius = %v, want 16.5", back.Derived.FieldRadius)
	}
}
