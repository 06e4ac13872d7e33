// Package control provides policies that fly race agents.
//
// Policies implement [dynamo.Controller]: they map a 9-value observation to
// a [pitch, yaw, boost] action.
//
//   - [Pursuit]: steers at the next checkpoint with two [PID] loops
//   - [Random]: uniform discrete actions
//   - [Manual]: externally set action
//   - [None]: zero action (fly straight, wings level)
//
// # Usage
//
//	policy := control.NewPursuit()
//	action := policy.Compute(obs, t)
//
// Policies implementing [dynamo.Configurable] support live tuning.
package control
