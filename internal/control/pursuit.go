package control

import (
	"fmt"
	"math"

	"github.com/san-kum/airace/internal/dynamo"
)

// Observation layout shared with race agents.
const (
	obsToNext = 3
	obsSize   = 9
)

// Pursuit steers toward the next checkpoint using the local offset in the
// observation. Pitch and yaw each run through a PID on the bearing angle
// in degrees.
type Pursuit struct {
	Pitch *PID
	Yaw   *PID
	// Deadband zeroes small yaw commands so the aircraft levels its wings.
	Deadband float64
	// BoostCone is the bearing, in degrees, inside which boost engages.
	BoostCone float64
	// BoostDistance is the minimum range to the checkpoint for boosting.
	BoostDistance float64
}

func NewPursuit() *Pursuit {
	return &Pursuit{
		Pitch:         NewPID(0.05, 0, 0.005, 0),
		Yaw:           NewPID(0.05, 0, 0.005, 0),
		Deadband:      0.05,
		BoostCone:     10,
		BoostDistance: 150,
	}
}

// Bearing returns the pitch and yaw errors, in degrees, to the local
// offset (x right, y up, z forward). Positive pitch means nose down.
func Bearing(x, y, z float64) (pitch, yaw float64) {
	yaw = math.Atan2(x, z) * 180 / math.Pi
	pitch = math.Atan2(-y, math.Hypot(x, z)) * 180 / math.Pi
	return pitch, yaw
}

func (p *Pursuit) Compute(obs dynamo.State, t float64) dynamo.Control {
	if len(obs) < obsSize {
		return dynamo.Control{0, 0, 0}
	}
	x, y, z := obs[obsToNext], obs[obsToNext+1], obs[obsToNext+2]
	pitchErr, yawErr := Bearing(x, y, z)

	pitch := clampUnit(p.Pitch.Update(pitchErr, t))
	yaw := clampUnit(p.Yaw.Update(yawErr, t))
	if math.Abs(yaw) < p.Deadband {
		yaw = 0
	}

	boost := 0.0
	if math.Abs(yawErr) < p.BoostCone && math.Abs(pitchErr) < p.BoostCone &&
		math.Sqrt(x*x+y*y+z*z) > p.BoostDistance {
		boost = 1
	}
	return dynamo.Control{pitch, yaw, boost}
}

func (p *Pursuit) Reset() {
	p.Pitch.Reset()
	p.Yaw.Reset()
}

func (p *Pursuit) GetParams() map[string]float64 {
	return map[string]float64{
		"pitch_kp":       p.Pitch.Kp,
		"pitch_kd":       p.Pitch.Kd,
		"yaw_kp":         p.Yaw.Kp,
		"yaw_kd":         p.Yaw.Kd,
		"deadband":       p.Deadband,
		"boost_cone":     p.BoostCone,
		"boost_distance": p.BoostDistance,
	}
}

func (p *Pursuit) SetParam(name string, value float64) error {
	switch name {
	case "pitch_kp":
		p.Pitch.Kp = value
	case "pitch_kd":
		p.Pitch.Kd = value
	case "yaw_kp":
		p.Yaw.Kp = value
	case "yaw_kd":
		p.Yaw.Kd = value
	case "deadband":
		p.Deadband = value
	case "boost_cone":
		p.BoostCone = value
	case "boost_distance":
		p.BoostDistance = value
	default:
		return fmt.Errorf("%s: %w", name, dynamo.ErrUnknownParameter)
	}
	return nil
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
