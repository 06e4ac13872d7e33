package flight

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/airace/internal/geom"
)

var ErrMalformedAction = errors.New("flight: malformed action")

// ActionSize is the length of an action vector: pitch, yaw, boost.
const ActionSize = 3

// reverse is the discrete action code for -1.
const reverse = 2

type Action struct {
	Pitch float64
	Yaw   float64
	Boost bool
}

// ParseAction decodes [pitch, yaw, boost]. Pitch and yaw accept the discrete
// codes 0, 1, 2 (2 meaning -1) as well as continuous values, which are
// clamped to [-1, 1]. Boost must be 0 or 1.
func ParseAction(v []float64) (Action, error) {
	if len(v) != ActionSize {
		return Action{}, fmt.Errorf("%w: want %d values, got %d", ErrMalformedAction, ActionSize, len(v))
	}
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return Action{}, fmt.Errorf("%w: component %d is %v", ErrMalformedAction, i, x)
		}
	}
	if v[2] != 0 && v[2] != 1 {
		return Action{}, fmt.Errorf("%w: boost must be 0 or 1, got %v", ErrMalformedAction, v[2])
	}
	return Action{
		Pitch: axis(v[0]),
		Yaw:   axis(v[1]),
		Boost: v[2] == 1,
	}, nil
}

func axis(x float64) float64 {
	if x == reverse {
		return -1
	}
	return geom.Clamp(x, -1, 1)
}

// Encode returns the action as a vector that ParseAction accepts.
func (a Action) Encode() []float64 {
	boost := 0.0
	if a.Boost {
		boost = 1
	}
	return []float64{a.Pitch, a.Yaw, boost}
}
