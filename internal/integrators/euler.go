package integrators

import "github.com/san-kum/airace/internal/dynamo"

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	return x.Axpy(dt, dyn.Derive(x, u, t))
}

// SemiImplicit is symplectic Euler over a [positions..., velocities...]
// layout: velocities advance first and positions use the new velocities.
// This is the stepping scheme game physics engines use for rigid bodies.
type SemiImplicit struct{}

func NewSemiImplicit() *SemiImplicit {
	return &SemiImplicit{}
}

func (s *SemiImplicit) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	half := n / 2
	dx := dyn.Derive(x, u, t)
	result := make(dynamo.State, n)
	for i := 0; i < half; i++ {
		result[half+i] = x[half+i] + dt*dx[half+i]
	}
	for i := 0; i < half; i++ {
		result[i] = x[i] + dt*result[half+i]
	}
	return result
}
