package config

import "sort"

// Presets are named variations on DefaultConfig.
var Presets = map[string]func(*Config){
	"training": func(c *Config) {},
	"race": func(c *Config) {
		c.Arena.Training = false
		c.Run.Episodes = 1
		c.Run.Ticks = 3000
	},
	"sprint": func(c *Config) {
		c.Arena.Segments = 6
		c.Arena.Radius = 250
		c.Training.StepTimeout = 150
		c.Training.MaxSteps = 1500
	},
	"crowded": func(c *Config) {
		c.Arena.Agents = 8
		c.Arena.SpacingMin, c.Arena.SpacingMax = 12, 14
	},
	"figure8": func(c *Config) {
		c.Arena.Track = "figure8"
		c.Arena.Segments = 12
	},
	"slalom": func(c *Config) {
		c.Arena.Track = "slalom"
		c.Arena.Segments = 12
		c.Arena.CheckpointRadius = 15
	},
}

// GetPreset returns a fresh config for name, or nil if there is none.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
