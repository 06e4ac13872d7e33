package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Axpy returns s + a*other, treating missing entries of other as zero.
func (s State) Axpy(a float64, other State) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i]
		if i < len(other) {
			result[i] += a * other[i]
		}
	}
	return result
}

type Control []float64

// System is a first-order ODE dx/dt = f(x, u, t).
type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

// Controller maps an observation to an action. Policies driving race agents
// implement it with a 9-element observation and a 3-element action.
type Controller interface {
	Compute(x State, t float64) Control
}

// Configurable exposes named tunables for sweeps and live adjustment.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Episode summarizes one finished agent episode.
type Episode struct {
	Agent       string  `json:"agent"`
	Number      int     `json:"number"`
	Steps       int     `json:"steps"`
	Reward      float64 `json:"reward"`
	Checkpoints int     `json:"checkpoints"`
	Reason      string  `json:"reason"`
}

type Metric interface {
	Name() string
	Observe(ep Episode)
	Value() float64
	Reset()
}
