// Package so101arm exposes an SO-101 robot arm as a small set of named,
// composable motions over HTTP, suitable for tool-calling LLM agents and
// other remote clients.
//
// Saved poses are eased into over a caller-chosen duration, and built-in
// gestures (talking, nodding, thinking) are expressed as short scripted
// motions around those poses. A single execution slot serializes all device
// access so overlapping commands can never corrupt the arm's state.
//
// # Installation
//
//	go install github.com/ankithreddypati/so101arm-mcp/cmd/so101arm@latest
//
// # Usage
//
// Write a config file, then start the server:
//
//	so101arm conf
//	so101arm serve
//
// Watch live joint positions while moving the arm by hand:
//
//	so101arm monitor
//
// # Packages
//
//   - cmd/so101arm: CLI with serve, monitor, pose and conf commands
//   - pkg/robot: Feetech servo bus driver, calibration, joint vectors
//   - pkg/pose: durable named pose store
//   - pkg/motion: eased trajectory planning
//   - pkg/device: exclusive device channel with paced profile execution
//   - pkg/gesture: gesture scripts and the sequencer that runs them
//   - pkg/dispatch: named command dispatch for remote callers
//   - pkg/httpapi: HTTP transport for the command dispatcher
//   - pkg/config: server configuration
package so101arm
