package gesture

import (
	"fmt"
	"time"

	"github.com/ankithreddypati/so101arm-mcp/pkg/robot"
)

// Built-in gesture names.
const (
	Talk           = "talk"
	Nod            = "nod"
	Thinking       = "thinking"
	PresentingTalk = "presenting_talk"
	Listening      = "listening"
)

// PresentingPose is the seating pose the presenting_talk and listening
// gestures ease into before animating.
const PresentingPose = "presenting"

// Gesture tuning, carried over from the original SO-101 server.
const (
	talkDwell     = 250 * time.Millisecond
	nodDwell      = 300 * time.Millisecond
	thinkingDwell = 600 * time.Millisecond
	settleTime    = time.Second

	gripperOpen  = 12.7
	gripperClose = 0.0
	nodDelta     = 15.0
	rollHi       = 25.8
	rollLo       = -30.4
)

// IsBuiltin reports whether name is a built-in gesture.
func IsBuiltin(name string) bool {
	switch name {
	case Talk, Nod, Thinking, PresentingTalk, Listening:
		return true
	}
	return false
}

// Builtin returns the script for a built-in gesture lasting roughly the
// given number of seconds. Built-ins are ordinary scripts; there is no
// separate mechanism behind them.
func Builtin(name string, seconds float64) (Script, error) {
	switch name {
	case Talk:
		return Script{Name: name, Steps: flapSteps(seconds)}, nil
	case Nod:
		return Script{Name: name, Steps: nodSteps(seconds)}, nil
	case Thinking:
		return Script{Name: name, Steps: rollSteps(seconds)}, nil
	case PresentingTalk:
		steps := append(settleSteps(), flapSteps(seconds)...)
		return Script{Name: name, Steps: steps}, nil
	case Listening:
		steps := append(settleSteps(), nodSteps(seconds)...)
		return Script{Name: name, Steps: steps}, nil
	}
	return Script{}, fmt.Errorf("%w: unknown gesture %q", ErrScriptInvalid, name)
}

// cycles converts a requested duration into a number of open/close (or
// up/down) pairs at the given dwell, at least one.
func cycles(seconds float64, dwell time.Duration) int {
	n := int(seconds / (2 * dwell.Seconds()))
	if n < 1 {
		n = 1
	}
	return n
}

func settleSteps() []Step {
	return []Step{{Pose: PresentingPose, Duration: settleTime}}
}

// flapSteps opens and closes the gripper: the talking animation.
func flapSteps(seconds float64) []Step {
	n := cycles(seconds, talkDwell)
	steps := make([]Step, 0, 2*n)
	for i := 0; i < n; i++ {
		steps = append(steps,
			Step{Set: map[robot.MotorName]float64{robot.Gripper: gripperOpen}, Hold: talkDwell},
			Step{Set: map[robot.MotorName]float64{robot.Gripper: gripperClose}, Hold: talkDwell},
		)
	}
	return steps
}

// nodSteps rocks the wrist around wherever it is when the gesture starts.
func nodSteps(seconds float64) []Step {
	n := cycles(seconds, nodDwell)
	steps := make([]Step, 0, 2*n)
	for i := 0; i < n; i++ {
		steps = append(steps,
			Step{Rel: map[robot.MotorName]float64{robot.WristFlex: -nodDelta}, Hold: nodDwell},
			Step{Rel: map[robot.MotorName]float64{robot.WristFlex: nodDelta}, Hold: nodDwell},
		)
	}
	return steps
}

// rollSteps rolls the wrist between two fixed angles: the thinking
// animation.
func rollSteps(seconds float64) []Step {
	n := cycles(seconds, thinkingDwell)
	steps := make([]Step, 0, 2*n)
	for i := 0; i < n; i++ {
		steps = append(steps,
			Step{Set: map[robot.MotorName]float64{robot.WristRoll: rollLo}, Hold: thinkingDwell},
			Step{Set: map[robot.MotorName]float64{robot.WristRoll: rollHi}, Hold: thinkingDwell},
		)
	}
	return steps
}
