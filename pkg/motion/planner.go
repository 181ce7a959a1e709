// Package motion plans eased, time-sampled trajectories between joint
// vectors. Planning is pure: no device access, deterministic output.
package motion

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ankithreddypati/so101arm-mcp/pkg/robot"
)

// Defaults match the upstream SO-101 follower: a 1.5 s move sampled at 30 Hz.
const (
	DefaultDuration   = 1500 * time.Millisecond
	DefaultSampleRate = 30
)

// ErrDimensionMismatch is returned when start and target joint vectors do
// not have the arm's joint count.
var ErrDimensionMismatch = errors.New("joint vector dimension mismatch")

// Sample is one point of a motion profile: the joint vector to command and
// its offset from the start of the leg.
type Sample struct {
	Joints robot.JointVector
	At     time.Duration
}

// Profile is a time-ordered sequence of samples covering one leg of motion.
// The first sample equals the start state and the last equals the target.
type Profile []Sample

// Duration returns the time offset of the final sample.
func (p Profile) Duration() time.Duration {
	if len(p) == 0 {
		return 0
	}
	return p[len(p)-1].At
}

// easeInOutQuad accelerates from zero velocity, then decelerates back to
// zero, so the arm never jerks at the ends of a leg.
func easeInOutQuad(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	u := -2*t + 2
	return 1 - u*u/2
}

// Plan produces an eased profile from start to target over the given
// duration, sampled at sampleRate Hz. All joints share the same blend
// fraction at each sample, so they arrive together and the pose never
// distorts mid-flight.
//
// A duration <= 0 yields a single-sample profile equal to target: an
// instant snap. sampleRate <= 0 falls back to DefaultSampleRate.
func Plan(start, target robot.JointVector, duration time.Duration, sampleRate int) (Profile, error) {
	if len(start) != robot.NumJoints || len(target) != robot.NumJoints {
		return nil, fmt.Errorf("%w: start %d, target %d, want %d",
			ErrDimensionMismatch, len(start), len(target), robot.NumJoints)
	}

	if duration <= 0 {
		return Profile{{Joints: target.Clone(), At: 0}}, nil
	}

	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	steps := int(math.Ceil(duration.Seconds() * float64(sampleRate)))
	if steps < 1 {
		steps = 1
	}

	profile := make(Profile, 0, steps+1)
	for i := 0; i <= steps; i++ {
		var joints robot.JointVector
		switch i {
		case 0:
			// endpoints are exact, not interpolated
			joints = start.Clone()
		case steps:
			joints = target.Clone()
		default:
			f := easeInOutQuad(float64(i) / float64(steps))
			joints = make(robot.JointVector, robot.NumJoints)
			for j := range joints {
				joints[j] = start[j] + (target[j]-start[j])*f
			}
		}
		profile = append(profile, Sample{
			Joints: joints,
			At:     duration * time.Duration(i) / time.Duration(steps),
		})
	}

	return profile, nil
}
