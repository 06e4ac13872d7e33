package flight

import (
	"fmt"

	"github.com/san-kum/airace/internal/dynamo"
)

type Params struct {
	Thrust          float64 `yaml:"thrust" json:"thrust"`
	PitchSpeed      float64 `yaml:"pitch_speed" json:"pitch_speed"`
	YawSpeed        float64 `yaml:"yaw_speed" json:"yaw_speed"`
	RollSpeed       float64 `yaml:"roll_speed" json:"roll_speed"`
	BoostMultiplier float64 `yaml:"boost_multiplier" json:"boost_multiplier"`
	MaxPitch        float64 `yaml:"max_pitch" json:"max_pitch"`
	MaxRoll         float64 `yaml:"max_roll" json:"max_roll"`
	// SmoothingRate is how far each smoothed delta may move per second.
	SmoothingRate float64 `yaml:"smoothing_rate" json:"smoothing_rate"`
}

func DefaultParams() Params {
	return Params{
		Thrust:          100000,
		PitchSpeed:      100,
		YawSpeed:        100,
		RollSpeed:       100,
		BoostMultiplier: 2,
		MaxPitch:        45,
		MaxRoll:         45,
		SmoothingRate:   2,
	}
}

func (p *Params) GetParams() map[string]float64 {
	return map[string]float64{
		"thrust":           p.Thrust,
		"pitch_speed":      p.PitchSpeed,
		"yaw_speed":        p.YawSpeed,
		"roll_speed":       p.RollSpeed,
		"boost_multiplier": p.BoostMultiplier,
		"max_pitch":        p.MaxPitch,
		"max_roll":         p.MaxRoll,
		"smoothing_rate":   p.SmoothingRate,
	}
}

func (p *Params) SetParam(name string, value float64) error {
	if value < 0 {
		return fmt.Errorf("%s=%v: %w", name, value, dynamo.ErrParameterBounds)
	}
	switch name {
	case "thrust":
		p.Thrust = value
	case "pitch_speed":
		p.PitchSpeed = value
	case "yaw_speed":
		p.YawSpeed = value
	case "roll_speed":
		p.RollSpeed = value
	case "boost_multiplier":
		p.BoostMultiplier = value
	case "max_pitch":
		if value > 90 {
			return fmt.Errorf("%s=%v: %w", name, value, dynamo.ErrParameterBounds)
		}
		p.MaxPitch = value
	case "max_roll":
		if value > 180 {
			return fmt.Errorf("%s=%v: %w", name, value, dynamo.ErrParameterBounds)
		}
		p.MaxRoll = value
	case "smoothing_rate":
		p.SmoothingRate = value
	default:
		return fmt.Errorf("%s: %w", name, dynamo.ErrUnknownParameter)
	}
	return nil
}
