// Package viz renders races in the terminal.
//
// [Run] drives an experiment runner under a Bubble Tea view: a braille
// [Canvas] shows the course from above (or as an orbiting wireframe) with
// every aircraft, and a side panel lists standings and the episode reward
// chart. [Feed] is the observer that bridges the simulation goroutine and
// the UI, and it also paces and pauses the run.
//
// # Key Bindings
//
//	Space - pause/resume
//	+ -   - faster/slower
//	V     - toggle top-down and orbit views
//	T     - cycle colour themes
//	X Y   - rotate the orbit camera
//	Z     - zoom
//	Q     - quit
//
// [PickConfig] offers the presets and a few tunables before a run.
package viz
