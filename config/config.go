// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Field     FieldConfig     `yaml:"field"`
	Agent     AgentConfig     `yaml:"agent"`
	Spawn     SpawnConfig     `yaml:"spawn"`
	Reward    RewardConfig    `yaml:"reward"`
	Episode   EpisodeConfig   `yaml:"episode"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for the graphical mode.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// PhysicsConfig holds simulation stepping parameters.
type PhysicsConfig struct {
	DT   float64 `yaml:"dt"`   // Seconds per physics step
	Drag float64 `yaml:"drag"` // Linear drag coefficient (per second)
}

// FieldConfig holds flower field layout parameters.
type FieldConfig struct {
	Diameter       float64 `yaml:"diameter"`         // Nominal field diameter, normalizes observed distance
	Height         float64 `yaml:"height"`           // Boundary shell height
	PlantCount     int     `yaml:"plant_count"`      // Plants placed at area load
	FlowersPerPlant int    `yaml:"flowers_per_plant"`
	PlantTiltMax   float64 `yaml:"plant_tilt_max"`   // Reset tilt bound on X/Z, degrees
	StemHeight     float64 `yaml:"stem_height"`      // Flower head height above plant base
	StemRadius     float64 `yaml:"stem_radius"`      // Stem collider radius
	BodyRadius     float64 `yaml:"body_radius"`      // Flower body collider radius
	NectarRadius   float64 `yaml:"nectar_radius"`    // Nectar trigger region radius
}

// AgentConfig holds hummingbird control parameters.
type AgentConfig struct {
	MoveForce     float64 `yaml:"move_force"`     // Force magnitude per unit action
	PitchSpeed    float64 `yaml:"pitch_speed"`    // Degrees per second at full deflection
	YawSpeed      float64 `yaml:"yaw_speed"`      // Degrees per second at full deflection
	MaxPitch      float64 `yaml:"max_pitch"`      // Hard pitch clamp, degrees
	SmoothingRate float64 `yaml:"smoothing_rate"` // Control low-pass rate, units per second
	BeakLength    float64 `yaml:"beak_length"`    // Beak tip offset along forward axis
	BeakTipRadius float64 `yaml:"beak_tip_radius"` // Max tip distance for a feeding contact
	BodyRadius    float64 `yaml:"body_radius"`    // Agent body collider radius
	FeedAmount    float64 `yaml:"feed_amount"`    // Nectar removed per feeding contact
}

// SpawnConfig holds safe-position sampling parameters.
type SpawnConfig struct {
	BiasDistMin   float64 `yaml:"bias_dist_min"`  // Offset along nectar up-axis, lower bound
	BiasDistMax   float64 `yaml:"bias_dist_max"`  // Offset along nectar up-axis, upper bound
	FreeHeightMin float64 `yaml:"free_height_min"`
	FreeHeightMax float64 `yaml:"free_height_max"`
	FreeRadiusMin float64 `yaml:"free_radius_min"`
	FreeRadiusMax float64 `yaml:"free_radius_max"`
	FreePitchMax  float64 `yaml:"free_pitch_max"` // Random pitch bound for free spawns, degrees
	SafeRadius    float64 `yaml:"safe_radius"`    // Clearance sphere radius for candidate positions
	MaxAttempts   int     `yaml:"max_attempts"`   // Rejection sampling cap; exhaustion is fatal
}

// RewardConfig holds training reward shaping parameters.
type RewardConfig struct {
	FeedBase        float64 `yaml:"feed_base"`        // Base reward per feeding contact
	AlignmentBonus  float64 `yaml:"alignment_bonus"`  // Max bonus for facing the target head-on
	BoundaryPenalty float64 `yaml:"boundary_penalty"` // Reward for hitting the boundary shell
}

// EpisodeConfig holds episode lifecycle parameters.
type EpisodeConfig struct {
	MaxStep           int     `yaml:"max_step"`            // Step budget in training mode (0 = unbounded)
	SpawnInFrontChance float64 `yaml:"spawn_in_front_chance"` // Training-mode chance of a flower-biased spawn
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow int    `yaml:"stats_window"` // Episodes per stats window
	StreamAddr  string `yaml:"stream_addr"`  // Websocket listen address ("" = disabled)
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	FieldRadius    float64 // Field.Diameter / 2
	SmoothMaxDelta float64 // SmoothingRate * DT, per-step filter step
	PitchPerStep   float64 // PitchSpeed * DT, degrees
	YawPerStep     float64 // YawSpeed * DT, degrees
	DragFactor     float64 // exp(-Drag * DT), applied per step
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.FieldRadius = c.Field.Diameter / 2
	c.Derived.SmoothMaxDelta = c.Agent.SmoothingRate * c.Physics.DT
	c.Derived.PitchPerStep = c.Agent.PitchSpeed * c.Physics.DT
	c.Derived.YawPerStep = c.Agent.YawSpeed * c.Physics.DT
	c.Derived.DragFactor = math.Exp(-c.Physics.Drag * c.Physics.DT)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
