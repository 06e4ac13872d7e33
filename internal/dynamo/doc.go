// Package dynamo provides the simulation primitives shared across the
// race simulator.
//
//   - [State]: vector representing a body or observation
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical stepper for a [System]
//   - [Controller]: maps an observation to an action
//   - [Episode] and [Metric]: per-episode summaries and their aggregates
//
// # Example
//
//	body := physics.NewBody("a0", physics.DefaultBodyParams())
//	x := integrators.NewRK4().Step(body, body.State(), body.Force(), 0, 0.02)
//
// # Thread Safety
//
// Integrators keep scratch buffers and are NOT thread-safe. [ParallelFor]
// is the only concurrency helper here; callers must give each worker
// disjoint data.
package dynamo
