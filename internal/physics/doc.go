// Package physics is the fixed-step rigid body world the aircraft fly in.
//
// A [Body] is a sphere with a [position, velocity] state that implements
// [dynamo.System], so any registered integrator can advance it. Rotation
// is kinematic and set by the owner each step.
//
// Static volumes are [Collider] values (spheres or boxes) stored in an
// R-tree. Each [World.Step] integrates every awake body, then reports
// enter-only events to the body's [Listener]:
//
//   - triggers (checkpoints) through OnTriggerEnter
//   - solid contacts (ground, obstacles, other agents) through OnCollisionEnter
//
// An event fires once per contact; it fires again only after the body has
// separated from that collider.
//
// # Example
//
//	w := physics.NewWorld(physics.WorldOptions{Dt: 0.02})
//	w.AddCollider(physics.Ground(1000))
//	b := physics.NewBody("a0", physics.DefaultBodyParams())
//	w.AddBody(b, listener)
//	err := w.Step()
package physics
