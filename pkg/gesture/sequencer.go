package gesture

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ankithreddypati/so101arm-mcp/pkg/device"
	"github.com/ankithreddypati/so101arm-mcp/pkg/motion"
	"github.com/ankithreddypati/so101arm-mcp/pkg/pose"
	"github.com/ankithreddypati/so101arm-mcp/pkg/robot"
)

// Sequencer expands scripts into trajectory legs and executes them
// back-to-back through the device channel. It holds the channel's
// execution slot for the whole script, including holds between legs, so
// nothing can interleave another motion mid-gesture.
type Sequencer struct {
	store *pose.Store
	ch    *device.Channel
	rate  int

	mu     sync.Mutex
	status Status
	step   int
	err    error
}

// NewSequencer creates a sequencer planning legs at the given sample rate
// (<= 0 uses motion.DefaultSampleRate).
func NewSequencer(store *pose.Store, ch *device.Channel, sampleRate int) *Sequencer {
	if sampleRate <= 0 {
		sampleRate = motion.DefaultSampleRate
	}
	return &Sequencer{store: store, ch: ch, rate: sampleRate}
}

// Snapshot returns the status, current step index and error of the most
// recent execution.
func (q *Sequencer) Snapshot() (Status, int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.status, q.step, q.err
}

// Cancel stops the running script after its in-flight sample write.
func (q *Sequencer) Cancel() {
	q.ch.Cancel()
}

// Run executes the script to completion. Pose references are validated
// before the device is touched; a pose deleted mid-run still fails the
// script at the leg that needs it. Returns device.ErrBusy when another
// motion owns the device.
func (q *Sequencer) Run(ctx context.Context, script Script) error {
	if len(script.Steps) == 0 {
		return fmt.Errorf("%w: script %q has no steps", ErrScriptInvalid, script.Name)
	}
	for i, step := range script.Steps {
		if step.Pose == "" && len(step.Set) == 0 && len(step.Rel) == 0 {
			return fmt.Errorf("%w: script %q step %d has no target", ErrScriptInvalid, script.Name, i)
		}
		if step.Pose != "" {
			if _, err := q.store.Get(step.Pose); err != nil {
				return fmt.Errorf("%w: script %q step %d: %v", ErrScriptInvalid, script.Name, i, err)
			}
		}
	}

	sess, err := q.ch.Begin()
	if err != nil {
		return err
	}
	defer sess.End()

	q.setStatus(StatusRunning, 0, nil)

	var anchor robot.JointVector
	for iter := 0; script.Repeat < 0 || iter <= script.Repeat; iter++ {
		for i, step := range script.Steps {
			q.setStatus(StatusRunning, i, nil)

			if err := q.runStep(ctx, sess, step, &anchor); err != nil {
				switch {
				case errors.Is(err, device.ErrCancelled), errors.Is(err, context.Canceled):
					q.setStatus(StatusCancelled, i, nil)
				default:
					q.setStatus(StatusFailed, i, err)
				}
				return err
			}
		}
	}

	q.setStatus(StatusCompleted, len(script.Steps)-1, nil)
	return nil
}

func (q *Sequencer) runStep(ctx context.Context, sess *device.Session, step Step, anchor *robot.JointVector) error {
	current := q.ch.State().Joints

	target, err := q.resolve(step, current, anchor)
	if err != nil {
		return err
	}

	profile, err := motion.Plan(current, target, step.Duration, q.rate)
	if err != nil {
		return err
	}

	if err := sess.Execute(ctx, profile); err != nil {
		return err
	}
	return sess.Hold(ctx, step.Hold)
}

// resolve turns a step into a full target joint vector. The anchor is
// captured from the arm's position the first time a Rel step runs, so
// alternating offsets oscillate around a fixed base instead of drifting.
func (q *Sequencer) resolve(step Step, current robot.JointVector, anchor *robot.JointVector) (robot.JointVector, error) {
	if step.Pose != "" {
		p, err := q.store.Get(step.Pose)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrScriptInvalid, err)
		}
		return p.Joints, nil
	}

	target := current.Clone()
	for name, v := range step.Set {
		i, ok := robot.MotorIndex(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown joint %q", ErrScriptInvalid, name)
		}
		target[i] = v
	}
	if len(step.Rel) > 0 {
		if *anchor == nil {
			*anchor = current.Clone()
		}
		for name, v := range step.Rel {
			i, ok := robot.MotorIndex(name)
			if !ok {
				return nil, fmt.Errorf("%w: unknown joint %q", ErrScriptInvalid, name)
			}
			target[i] = (*anchor)[i] + v
		}
	}
	return target, nil
}

func (q *Sequencer) setStatus(s Status, step int, err error) {
	q.mu.Lock()
	q.status = s
	q.step = step
	q.err = err
	q.mu.Unlock()
}
