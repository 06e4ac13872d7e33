package flight

import (
	"github.com/san-kum/airace/internal/geom"
)

// Airframe is the body a Controller flies. physics.Body satisfies it.
type Airframe interface {
	Rotation() geom.Quat
	SetRotation(q geom.Quat)
	AddForce(f geom.Vec3)
	Sleep()
	WakeUp()
}

type Status int

const (
	Active Status = iota
	Frozen
)

func (s Status) String() string {
	if s == Frozen {
		return "frozen"
	}
	return "active"
}

// Controller turns pitch/yaw/boost commands into thrust and a new attitude
// each tick. Roll is not commanded: the aircraft banks against its turn and
// levels itself when not turning.
type Controller struct {
	params Params
	frame  Airframe
	status Status

	action                             Action
	smoothPitch, smoothYaw, smoothRoll float64
}

func NewController(frame Airframe, params Params) *Controller {
	return &Controller{params: params, frame: frame}
}

func (c *Controller) Params() Params  { return c.params }
func (c *Controller) Status() Status  { return c.status }
func (c *Controller) Frozen() bool    { return c.status == Frozen }
func (c *Controller) Action() Action  { return c.action }
func (c *Controller) SetAction(a Action) { c.action = a }

// Apply parses and latches an action vector. On error the previous action
// stays in effect.
func (c *Controller) Apply(v []float64) error {
	a, err := ParseAction(v)
	if err != nil {
		return err
	}
	c.action = a
	return nil
}

// Smoothed returns the current rate-limited pitch, yaw and roll deltas.
func (c *Controller) Smoothed() (pitch, yaw, roll float64) {
	return c.smoothPitch, c.smoothYaw, c.smoothRoll
}

// Step applies thrust and advances the attitude by dt seconds. It does
// nothing while frozen.
func (c *Controller) Step(dt float64) {
	if c.status == Frozen {
		return
	}
	p := c.params

	boost := 1.0
	if c.action.Boost {
		boost = p.BoostMultiplier
	}
	rot := c.frame.Rotation()
	c.frame.AddForce(geom.ForwardOf(rot).Mul(p.Thrust * boost))

	pitch, yaw, roll := geom.Angles(rot)

	rollTarget := -c.action.Yaw
	if c.action.Yaw == 0 {
		rollTarget = 0
		if p.MaxRoll > 0 {
			rollTarget = -roll / p.MaxRoll
		}
	}

	maxDelta := p.SmoothingRate * dt
	c.smoothPitch = geom.MoveTowards(c.smoothPitch, c.action.Pitch, maxDelta)
	c.smoothYaw = geom.MoveTowards(c.smoothYaw, c.action.Yaw, maxDelta)
	c.smoothRoll = geom.MoveTowards(c.smoothRoll, rollTarget, maxDelta)

	pitch = geom.Clamp(geom.NormalizeAngle(pitch+c.smoothPitch*dt*p.PitchSpeed), -p.MaxPitch, p.MaxPitch)
	yaw = geom.NormalizeAngle(yaw + c.smoothYaw*dt*p.YawSpeed)
	roll = geom.Clamp(geom.NormalizeAngle(roll+c.smoothRoll*dt*p.RollSpeed), -p.MaxRoll, p.MaxRoll)

	c.frame.SetRotation(geom.Euler(pitch, yaw, roll))
}

func (c *Controller) Freeze() {
	c.status = Frozen
	c.frame.Sleep()
}

func (c *Controller) Thaw() {
	c.status = Active
	c.frame.WakeUp()
}

// Reset clears the latched action and smoothing state.
func (c *Controller) Reset() {
	c.action = Action{}
	c.smoothPitch, c.smoothYaw, c.smoothRoll = 0, 0, 0
}
