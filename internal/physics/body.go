package physics

import (
	"fmt"

	"github.com/san-kum/airace/internal/dynamo"
	"github.com/san-kum/airace/internal/geom"
)

const (
	DefaultMass   = 1000.0
	DefaultDrag   = 2.0
	DefaultRadius = 4.0
	DefaultDt     = 0.02
)

type BodyParams struct {
	Mass   float64 `yaml:"mass" json:"mass"`
	Drag   float64 `yaml:"drag" json:"drag"`
	Radius float64 `yaml:"radius" json:"radius"`
}

func DefaultBodyParams() BodyParams {
	return BodyParams{Mass: DefaultMass, Drag: DefaultDrag, Radius: DefaultRadius}
}

// Body is a sphere-bounded rigid body with a [position, velocity] state.
// Orientation is kinematic: it is written directly by the owner and never
// integrated.
type Body struct {
	Name   string
	Params BodyParams

	x        dynamo.State
	rotation geom.Quat
	force    geom.Vec3
	asleep   bool
}

func NewBody(name string, params BodyParams) *Body {
	return &Body{
		Name:     name,
		Params:   params,
		x:        make(dynamo.State, 6),
		rotation: geom.Identity(),
	}
}

func (b *Body) StateDim() int   { return 6 }
func (b *Body) ControlDim() int { return 3 }

// Derive returns [v, F/m - drag*v]. u is the accumulated world-space force.
func (b *Body) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	dx := make(dynamo.State, 6)
	copy(dx[:3], x[3:6])
	for i := 0; i < 3; i++ {
		f := 0.0
		if i < len(u) {
			f = u[i]
		}
		dx[3+i] = f/b.Params.Mass - b.Params.Drag*x[3+i]
	}
	return dx
}

func (b *Body) State() dynamo.State { return b.x.Clone() }

func (b *Body) Force() dynamo.Control {
	return dynamo.Control{b.force[0], b.force[1], b.force[2]}
}

func (b *Body) Position() geom.Vec3 { return geom.Vec3{b.x[0], b.x[1], b.x[2]} }
func (b *Body) Velocity() geom.Vec3 { return geom.Vec3{b.x[3], b.x[4], b.x[5]} }
func (b *Body) Rotation() geom.Quat { return b.rotation }

func (b *Body) SetRotation(q geom.Quat) { b.rotation = q.Normalize() }

func (b *Body) SetPosition(p geom.Vec3) {
	b.x[0], b.x[1], b.x[2] = p[0], p[1], p[2]
}

func (b *Body) SetPose(p geom.Vec3, q geom.Quat) {
	b.SetPosition(p)
	b.SetRotation(q)
}

func (b *Body) SetVelocity(v geom.Vec3) {
	b.x[3], b.x[4], b.x[5] = v[0], v[1], v[2]
}

// ResetVelocities zeroes linear velocity and pending force. Rotation is
// kinematic, so there is no angular velocity to clear.
func (b *Body) ResetVelocities() {
	b.SetVelocity(geom.Vec3{})
	b.force = geom.Vec3{}
}

// AddForce accumulates a world-space force for the next step. Sleeping
// bodies drop it.
func (b *Body) AddForce(f geom.Vec3) {
	if b.asleep {
		return
	}
	b.force = b.force.Add(f)
}

func (b *Body) Sleep() {
	b.asleep = true
	b.ResetVelocities()
}

func (b *Body) WakeUp()        { b.asleep = false }
func (b *Body) Sleeping() bool { return b.asleep }

func (b *Body) setState(x dynamo.State) {
	copy(b.x, x)
	b.force = geom.Vec3{}
}

func (b *Body) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":   b.Params.Mass,
		"drag":   b.Params.Drag,
		"radius": b.Params.Radius,
	}
}

func (b *Body) SetParam(name string, value float64) error {
	switch name {
	case "mass":
		if value <= 0 {
			return fmt.Errorf("mass %v: %w", value, dynamo.ErrParameterBounds)
		}
		b.Params.Mass = value
	case "drag":
		if value < 0 {
			return fmt.Errorf("drag %v: %w", value, dynamo.ErrParameterBounds)
		}
		b.Params.Drag = value
	case "radius":
		if value < 0 {
			return fmt.Errorf("radius %v: %w", value, dynamo.ErrParameterBounds)
		}
		b.Params.Radius = value
	default:
		return fmt.Errorf("%s: %w", name, dynamo.ErrUnknownParameter)
	}
	return nil
}
