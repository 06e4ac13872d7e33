package control

import (
	"fmt"

	"github.com/san-kum/airace/internal/dynamo"
)

// PID tracks Target on one component of the observation.
type PID struct {
	Kp     float64
	Ki     float64
	Kd     float64
	Target float64
	// Index selects the observed component Compute regulates.
	Index int

	integral float64
	prevErr  float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd, target float64) *PID {
	return &PID{
		Kp:     kp,
		Ki:     ki,
		Kd:     kd,
		Target: target,
		first:  true,
	}
}

func (p *PID) Compute(x dynamo.State, t float64) dynamo.Control {
	if p.Index >= len(x) {
		return dynamo.Control{0}
	}
	return dynamo.Control{p.Update(p.Target-x[p.Index], t)}
}

// Update feeds one error sample taken at time t and returns the command.
func (p *PID) Update(err, t float64) float64 {
	if p.first {
		p.prevErr = err
		p.prevT = t
		p.first = false
		return p.Kp * err
	}

	dt := t - p.prevT
	if dt <= 0 {
		return p.Kp * err
	}
	p.integral += err * dt
	derivative := (err - p.prevErr) / dt
	p.prevErr = err
	p.prevT = t

	return p.Kp*err + p.Ki*p.integral + p.Kd*derivative
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}

func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp":     p.Kp,
		"Ki":     p.Ki,
		"Kd":     p.Kd,
		"Target": p.Target,
	}
}

func (p *PID) SetParam(name string, value float64) error {
	switch name {
	case "Kp":
		p.Kp = value
	case "Ki":
		p.Ki = value
	case "Kd":
		p.Kd = value
	case "Target":
		p.Target = value
	default:
		return fmt.Errorf("%s: %w", name, dynamo.ErrUnknownParameter)
	}
	return nil
}
