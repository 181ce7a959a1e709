// Package gesture composes poses into scripted motions and executes them
// through the device channel, one leg at a time.
package gesture

import (
	"errors"
	"time"

	"github.com/ankithreddypati/so101arm-mcp/pkg/robot"
)

// ErrScriptInvalid is returned when a script is malformed or references a
// pose that does not exist.
var ErrScriptInvalid = errors.New("invalid gesture script")

// Step is one leg of a gesture. Exactly one of Pose, Set or Rel describes
// the target:
//
//   - Pose: move to a named pose from the store.
//   - Set: absolute targets for some joints; unlisted joints keep their
//     current position.
//   - Rel: offsets applied to the anchor joints (the arm's position when
//     the script's first Rel step ran), so oscillating steps don't drift.
//
// Duration is the leg's motion time; zero snaps instantly. Hold pauses
// after the leg completes.
type Step struct {
	Pose     string
	Set      map[robot.MotorName]float64
	Rel      map[robot.MotorName]float64
	Duration time.Duration
	Hold     time.Duration
}

// Script is a named ordered sequence of steps. Repeat is the number of
// extra runs after the first; negative repeats until cancelled.
type Script struct {
	Name   string
	Steps  []Step
	Repeat int
}

// Status of one gesture execution.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusCompleted
	StatusCancelled
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}
