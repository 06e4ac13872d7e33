// Package race implements checkpoint racing for learning agents.
//
// An [Arena] owns a path's checkpoint [Layout] and a fixed roster of
// [Agent]s. Each tick an agent consumes a 3-value action (pitch, yaw,
// boost), flies one step and reports a 9-value observation plus a reward.
// [Environment] bundles arena, physics world and scheduler behind a
// Reset/Step loop.
//
// Setup is two-phase: construct the arena and agents, then register the
// roster and build checkpoints before the first tick.
//
// In training mode a crash ends the episode with a penalty. In race mode
// it freezes the aircraft, respawns it at its last checkpoint and resumes
// on simulated time; that cycle is never installed on training agents.
package race
