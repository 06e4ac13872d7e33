package integrators

import "github.com/san-kum/airace/internal/dynamo"

// RK4 is the classic fourth-order Runge-Kutta stepper. It reuses its stage
// buffers between calls.
type RK4 struct {
	k       [4]dynamo.State
	scratch dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.scratch) == n {
		return
	}
	for i := range r.k {
		r.k[i] = make(dynamo.State, n)
	}
	r.scratch = make(dynamo.State, n)
}

func (r *RK4) stage(dyn dynamo.System, x dynamo.State, u dynamo.Control, t float64, prev dynamo.State, h float64, out dynamo.State) {
	for i := range x {
		r.scratch[i] = x[i]
		if prev != nil {
			r.scratch[i] += h * prev[i]
		}
	}
	copy(out, dyn.Derive(r.scratch, u, t))
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	r.ensureScratch(n)

	half := dt * 0.5
	r.stage(dyn, x, u, t, nil, 0, r.k[0])
	r.stage(dyn, x, u, t+half, r.k[0], half, r.k[1])
	r.stage(dyn, x, u, t+half, r.k[1], half, r.k[2])
	r.stage(dyn, x, u, t+dt, r.k[2], dt, r.k[3])

	result := make(dynamo.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(r.k[0][i]+2*r.k[1][i]+2*r.k[2][i]+r.k[3][i])
	}
	return result
}
