// Package device owns the physical arm connection. All motion passes
// through a single execution slot so only one trajectory can touch the
// device at a time; state snapshots never wait on the slot.
package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ankithreddypati/so101arm-mcp/pkg/motion"
	"github.com/ankithreddypati/so101arm-mcp/pkg/robot"
)

var (
	// ErrBusy is returned when a motion request arrives while another
	// motion holds the execution slot.
	ErrBusy = errors.New("device busy")

	// ErrComm is returned when a read or write to the driver fails. The
	// connection is unusable afterwards until re-established.
	ErrComm = errors.New("device communication error")

	// ErrCancelled is returned when an execution is stopped by Cancel.
	ErrCancelled = errors.New("motion cancelled")

	// ErrNotConnected is returned for motion requests after a
	// communication failure or Close.
	ErrNotConnected = errors.New("device not connected")
)

// Driver is the low-level device boundary: synchronous joint reads and
// writes with a bounded timeout enforced below this interface.
// *robot.Arm satisfies it.
type Driver interface {
	ReadJoints(ctx context.Context) (robot.JointVector, error)
	WriteJoints(ctx context.Context, joints robot.JointVector) error
	Close() error
}

// State is a snapshot of the device. Joints always reflects the last
// confirmed write (or read), never an in-flight interpolation.
type State struct {
	Connected bool
	Busy      bool
	Joints    robot.JointVector
	UpdatedAt time.Time
}

// Channel serializes access to a single physical arm.
type Channel struct {
	drv  Driver
	slot chan struct{} // capacity 1; holding a token = owning the device

	mu        sync.RWMutex
	connected bool
	busy      bool
	joints    robot.JointVector
	updated   time.Time

	cancelMu  sync.Mutex
	cancelCh  chan struct{}
	cancelled bool
}

// Open reads the arm's current joints to seed the state and returns a
// connected channel.
func Open(ctx context.Context, drv Driver) (*Channel, error) {
	joints, err := drv.ReadJoints(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: initial read: %v", ErrComm, err)
	}

	c := &Channel{
		drv:  drv,
		slot: make(chan struct{}, 1),
	}
	c.slot <- struct{}{}
	c.mu.Lock()
	c.connected = true
	c.joints = joints
	c.updated = time.Now()
	c.mu.Unlock()
	return c, nil
}

// State returns a snapshot. It never blocks on a running motion.
func (c *Channel) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return State{
		Connected: c.connected,
		Busy:      c.busy,
		Joints:    c.joints.Clone(),
		UpdatedAt: c.updated,
	}
}

// Close releases the driver. Any running motion fails on its next write.
func (c *Channel) Close() error {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	return c.drv.Close()
}

// Cancel asks the current execution to stop after its in-flight write
// completes. A no-op when nothing is running.
func (c *Channel) Cancel() {
	c.cancelMu.Lock()
	defer c.cancelMu.Unlock()
	if c.cancelCh != nil && !c.cancelled {
		close(c.cancelCh)
		c.cancelled = true
	}
}

// A Session owns the execution slot for one logical motion, which may span
// several profiles with holds in between (a gesture). End must be called
// to release the slot.
type Session struct {
	c     *Channel
	ended bool
}

// Begin claims the execution slot without waiting. Returns ErrBusy when
// another motion owns it.
func (c *Channel) Begin() (*Session, error) {
	select {
	case <-c.slot:
	default:
		return nil, ErrBusy
	}

	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		c.slot <- struct{}{}
		return nil, ErrNotConnected
	}
	c.busy = true
	c.mu.Unlock()

	c.cancelMu.Lock()
	c.cancelCh = make(chan struct{})
	c.cancelled = false
	c.cancelMu.Unlock()

	return &Session{c: c}, nil
}

// End releases the execution slot. Safe to call more than once.
func (s *Session) End() {
	if s.ended {
		return
	}
	s.ended = true

	c := s.c
	c.cancelMu.Lock()
	c.cancelCh = nil
	c.cancelMu.Unlock()

	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
	c.slot <- struct{}{}
}

// Execute writes the profile's samples at their time offsets, sleeping
// between writes to respect the profile's pacing. It returns ErrCancelled
// if Cancel fires, the context error on ctx cancellation, or ErrComm on a
// write failure; in every case the state's joints match the last write
// that actually happened.
func (s *Session) Execute(ctx context.Context, profile motion.Profile) error {
	c := s.c

	c.cancelMu.Lock()
	cancelCh := c.cancelCh
	c.cancelMu.Unlock()

	start := time.Now()
	for i, sample := range profile {
		if wait := sample.At - time.Since(start); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-cancelCh:
				timer.Stop()
				return ErrCancelled
			case <-timer.C:
			}
		} else {
			// still honor cancellation between back-to-back writes
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-cancelCh:
				return ErrCancelled
			default:
			}
		}

		if err := c.drv.WriteJoints(ctx, sample.Joints); err != nil {
			c.mu.Lock()
			c.connected = false
			c.mu.Unlock()
			return fmt.Errorf("%w: write sample %d: %v", ErrComm, i, err)
		}

		c.mu.Lock()
		c.joints = sample.Joints.Clone()
		c.updated = time.Now()
		c.mu.Unlock()
	}

	return nil
}

// Hold pauses without motion, still answering Cancel and ctx.
func (s *Session) Hold(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	s.c.cancelMu.Lock()
	cancelCh := s.c.cancelCh
	s.c.cancelMu.Unlock()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-cancelCh:
		return ErrCancelled
	case <-timer.C:
		return nil
	}
}

// Execute claims the slot, runs a single profile and releases the slot:
// the one-shot path used by plain pose moves.
func (c *Channel) Execute(ctx context.Context, profile motion.Profile) error {
	s, err := c.Begin()
	if err != nil {
		return err
	}
	defer s.End()
	return s.Execute(ctx, profile)
}
