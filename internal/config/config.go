package config

import (
	"fmt"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/airace/internal/flight"
	"github.com/san-kum/airace/internal/pathgeom"
	"github.com/san-kum/airace/internal/physics"
	"github.com/san-kum/airace/internal/race"
)

const (
	DefaultAgents   = 4
	DefaultTrack    = "oval"
	DefaultEpisodes = 20
	DefaultPolicy   = "pursuit"
)

type Config struct {
	Arena    ArenaConfig    `yaml:"arena"`
	Flight   FlightConfig   `yaml:"flight"`
	Training TrainingConfig `yaml:"training"`
	Race     RaceConfig     `yaml:"race"`
	Run      RunConfig      `yaml:"run"`
}

type ArenaConfig struct {
	Training         bool    `yaml:"training"`
	Seed             int64   `yaml:"seed"`
	Agents           int     `yaml:"agents"`
	Track            string  `yaml:"track"`
	Segments         int     `yaml:"segments"`
	Radius           float64 `yaml:"radius"`
	Altitude         float64 `yaml:"altitude"`
	Height           float64 `yaml:"height"`
	CheckpointRadius float64 `yaml:"checkpoint_radius"`
	CheckpointSize   float64 `yaml:"checkpoint_size"`
	SpacingMin       float64 `yaml:"spacing_min"`
	SpacingMax       float64 `yaml:"spacing_max"`
	GroundExtent     float64 `yaml:"ground_extent"`
}

type FlightConfig struct {
	flight.Params `yaml:",inline"`
	Mass          float64 `yaml:"mass"`
	Drag          float64 `yaml:"drag"`
	BodyRadius    float64 `yaml:"body_radius"`
	Dt            float64 `yaml:"dt"`
	Integrator    string  `yaml:"integrator"`
}

type TrainingConfig struct {
	// MaxSteps of 0 uses 5000 when training and no limit when racing.
	MaxSteps    int          `yaml:"max_steps"`
	StepTimeout int          `yaml:"step_timeout"`
	Rewards     race.Rewards `yaml:"rewards"`
}

// RaceConfig times the crash cycle, in seconds of sim time.
type RaceConfig struct {
	ExplosionDelay float64 `yaml:"explosion_delay"`
	RespawnDelay   float64 `yaml:"respawn_delay"`
}

type RunConfig struct {
	Episodes int    `yaml:"episodes"`
	// Ticks caps the run length; 0 means run until Episodes complete.
	Ticks    int    `yaml:"ticks"`
	Policy   string `yaml:"policy"`
	Parallel bool   `yaml:"parallel"`
}

func DefaultConfig() *Config {
	spec := pathgeom.DefaultTrackSpec()
	return &Config{
		Arena: ArenaConfig{
			Training:       true,
			Agents:         DefaultAgents,
			Track:          DefaultTrack,
			Segments:       spec.Segments,
			Radius:         spec.Radius,
			Altitude:       spec.Altitude,
			Height:         spec.Height,
			CheckpointSize: race.DefaultCheckpointSize,
			SpacingMin:     race.DefaultSpacingMin,
			SpacingMax:     race.DefaultSpacingMax,
			GroundExtent:   race.DefaultGroundExtent,
		},
		Flight: FlightConfig{
			Params:     flight.DefaultParams(),
			Mass:       physics.DefaultMass,
			Drag:       physics.DefaultDrag,
			BodyRadius: physics.DefaultRadius,
			Dt:         physics.DefaultDt,
			Integrator: "semi-implicit",
		},
		Training: TrainingConfig{
			StepTimeout: race.DefaultStepTimeout,
			Rewards:     race.DefaultRewards(),
		},
		Race: RaceConfig{
			ExplosionDelay: 2,
			RespawnDelay:   1,
		},
		Run: RunConfig{
			Episodes: DefaultEpisodes,
			Policy:   DefaultPolicy,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var err error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			err = multierr.Append(err, fmt.Errorf(format, args...))
		}
	}

	check(c.Arena.Agents > 0, "arena.agents must be positive, got %d", c.Arena.Agents)
	check(c.Arena.Segments > 0, "arena.segments must be positive, got %d", c.Arena.Segments)
	check(c.Arena.CheckpointRadius >= 0, "arena.checkpoint_radius must not be negative")
	check(c.Arena.CheckpointSize > 0, "arena.checkpoint_size must be positive")
	check(c.Arena.SpacingMin <= c.Arena.SpacingMax, "arena.spacing_min %.2f exceeds spacing_max %.2f",
		c.Arena.SpacingMin, c.Arena.SpacingMax)

	check(c.Flight.Thrust >= 0, "flight.thrust must not be negative")
	check(c.Flight.MaxPitch > 0 && c.Flight.MaxPitch <= 90, "flight.max_pitch must be in (0, 90]")
	check(c.Flight.MaxRoll > 0 && c.Flight.MaxRoll <= 180, "flight.max_roll must be in (0, 180]")
	check(c.Flight.BoostMultiplier >= 1, "flight.boost_multiplier must be at least 1")
	check(c.Flight.SmoothingRate > 0, "flight.smoothing_rate must be positive")
	check(c.Flight.Mass > 0, "flight.mass must be positive")
	check(c.Flight.Drag >= 0, "flight.drag must not be negative")
	check(c.Flight.Dt > 0, "flight.dt must be positive")

	check(c.Training.MaxSteps >= 0, "training.max_steps must not be negative")
	check(c.Training.StepTimeout > 0, "training.step_timeout must be positive")

	check(c.Race.ExplosionDelay >= 0 && c.Race.RespawnDelay >= 0, "race delays must not be negative")

	check(c.Run.Episodes > 0 || c.Run.Ticks > 0, "run needs episodes or ticks")
	return err
}

// TrackSpec is the generator input for the configured track.
func (c *Config) TrackSpec() pathgeom.TrackSpec {
	return pathgeom.TrackSpec{
		Segments: c.Arena.Segments,
		Radius:   c.Arena.Radius,
		Altitude: c.Arena.Altitude,
		Height:   c.Arena.Height,
	}
}

func (c *Config) BodyParams() physics.BodyParams {
	return physics.BodyParams{Mass: c.Flight.Mass, Drag: c.Flight.Drag, Radius: c.Flight.BodyRadius}
}

func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
