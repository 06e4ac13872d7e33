package config

import (
	"fmt"
	"sort"

	"github.com/san-kum/airace/internal/dynamo"
)

// GetParams lists every numeric setting that sweeps and scenarios may
// override, keyed by the names SetParam accepts.
func (c *Config) GetParams() map[string]float64 {
	params := c.Flight.Params.GetParams()
	params["mass"] = c.Flight.Mass
	params["drag"] = c.Flight.Drag
	params["body_radius"] = c.Flight.BodyRadius
	params["dt"] = c.Flight.Dt
	params["checkpoint_radius"] = c.Arena.CheckpointRadius
	params["checkpoint_size"] = c.Arena.CheckpointSize
	params["spacing_min"] = c.Arena.SpacingMin
	params["spacing_max"] = c.Arena.SpacingMax
	params["step_timeout"] = float64(c.Training.StepTimeout)
	params["max_steps"] = float64(c.Training.MaxSteps)
	params["reward_checkpoint"] = c.Training.Rewards.Checkpoint
	params["reward_crash"] = c.Training.Rewards.Crash
	params["reward_timeout"] = c.Training.Rewards.Timeout
	params["reward_step_budget"] = c.Training.Rewards.StepBudget
	return params
}

func (c *Config) SetParam(name string, value float64) error {
	positive := func(dst *float64) error {
		if value <= 0 {
			return fmt.Errorf("%s=%v: %w", name, value, dynamo.ErrParameterBounds)
		}
		*dst = value
		return nil
	}

	switch name {
	case "mass":
		return positive(&c.Flight.Mass)
	case "dt":
		return positive(&c.Flight.Dt)
	case "checkpoint_size":
		return positive(&c.Arena.CheckpointSize)
	case "drag", "body_radius", "checkpoint_radius", "spacing_min", "spacing_max", "step_timeout", "max_steps":
		if value < 0 {
			return fmt.Errorf("%s=%v: %w", name, value, dynamo.ErrParameterBounds)
		}
	}

	switch name {
	case "drag":
		c.Flight.Drag = value
	case "body_radius":
		c.Flight.BodyRadius = value
	case "checkpoint_radius":
		c.Arena.CheckpointRadius = value
	case "spacing_min":
		c.Arena.SpacingMin = value
	case "spacing_max":
		c.Arena.SpacingMax = value
	case "step_timeout":
		c.Training.StepTimeout = int(value)
	case "max_steps":
		c.Training.MaxSteps = int(value)
	case "reward_checkpoint":
		c.Training.Rewards.Checkpoint = value
	case "reward_crash":
		c.Training.Rewards.Crash = value
	case "reward_timeout":
		c.Training.Rewards.Timeout = value
	case "reward_step_budget":
		c.Training.Rewards.StepBudget = value
	default:
		return c.Flight.Params.SetParam(name, value)
	}
	return nil
}

// Tunables returns the names SetParam accepts, sorted.
func Tunables() []string {
	names := make([]string, 0)
	for name := range DefaultConfig().GetParams() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
