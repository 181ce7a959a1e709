// Package dispatch routes named commands with JSON arguments into the
// motion core. It is the single boundary remote callers talk to, whatever
// the transport.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ankithreddypati/so101arm-mcp/pkg/device"
	"github.com/ankithreddypati/so101arm-mcp/pkg/gesture"
	"github.com/ankithreddypati/so101arm-mcp/pkg/motion"
	"github.com/ankithreddypati/so101arm-mcp/pkg/pose"
	"github.com/ankithreddypati/so101arm-mcp/pkg/robot"
)

var (
	// ErrUnknownCommand is returned for command names outside the
	// recognized set.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrInvalidArgs is returned when command arguments fail to decode.
	ErrInvalidArgs = errors.New("invalid arguments")
)

// Options tunes dispatcher defaults.
type Options struct {
	MoveDuration time.Duration // default single-leg move time; 0 = motion.DefaultDuration
	SampleRate   int           // profile sample rate in Hz; 0 = motion.DefaultSampleRate
}

// Dispatcher validates and routes the recognized command set.
type Dispatcher struct {
	store *pose.Store
	ch    *device.Channel
	seq   *gesture.Sequencer

	moveDuration time.Duration
	sampleRate   int
	scripts      map[string]gesture.Script
}

// New creates a dispatcher over the motion core.
func New(store *pose.Store, ch *device.Channel, seq *gesture.Sequencer, opts Options) *Dispatcher {
	if opts.MoveDuration <= 0 {
		opts.MoveDuration = motion.DefaultDuration
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = motion.DefaultSampleRate
	}
	return &Dispatcher{
		store:        store,
		ch:           ch,
		seq:          seq,
		moveDuration: opts.MoveDuration,
		sampleRate:   opts.SampleRate,
		scripts:      make(map[string]gesture.Script),
	}
}

// RegisterScript adds a custom gesture, addressable by run_gesture under
// its script name. Registering over a built-in name is rejected.
func (d *Dispatcher) RegisterScript(s gesture.Script) error {
	if s.Name == "" || len(s.Steps) == 0 {
		return fmt.Errorf("%w: script needs a name and steps", gesture.ErrScriptInvalid)
	}
	if gesture.IsBuiltin(s.Name) {
		return fmt.Errorf("%w: %q shadows a built-in gesture", gesture.ErrScriptInvalid, s.Name)
	}
	d.scripts[s.Name] = s
	return nil
}

// Commands lists the recognized command names, sorted.
func (d *Dispatcher) Commands() []string {
	names := []string{
		"move_to_pose", "save_pose", "run_gesture", "get_robot_state",
		"list_poses", "cancel",
	}
	sort.Strings(names)
	return names
}

// Dispatch runs one named command. Argument and lookup failures are
// rejected before the device is touched.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args json.RawMessage) (any, error) {
	switch name {
	case "move_to_pose":
		return d.moveToPose(ctx, args)
	case "save_pose":
		return d.savePose(args)
	case "run_gesture":
		return d.runGesture(ctx, args)
	case "get_robot_state":
		return d.robotState(), nil
	case "list_poses":
		return poseList{Poses: d.store.List()}, nil
	case "cancel":
		d.ch.Cancel()
		return okResult{OK: true}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

type okResult struct {
	OK bool `json:"ok"`
}

type poseList struct {
	Poses []string `json:"poses"`
}

type moveResult struct {
	OK         bool   `json:"ok"`
	Pose       string `json:"pose"`
	DurationMS int64  `json:"duration_ms"`
}

type moveArgs struct {
	Name       string `json:"name"`
	DurationMS *int64 `json:"duration_ms"`
}

func (d *Dispatcher) moveToPose(ctx context.Context, args json.RawMessage) (any, error) {
	var a moveArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Name == "" {
		return nil, fmt.Errorf("%w: missing pose name", ErrInvalidArgs)
	}

	p, err := d.store.Get(a.Name)
	if err != nil {
		return nil, err
	}

	duration := d.moveDuration
	if a.DurationMS != nil {
		duration = time.Duration(*a.DurationMS) * time.Millisecond
	}

	profile, err := motion.Plan(d.ch.State().Joints, p.Joints, duration, d.sampleRate)
	if err != nil {
		return nil, err
	}
	if err := d.ch.Execute(ctx, profile); err != nil {
		return nil, err
	}
	return moveResult{OK: true, Pose: a.Name, DurationMS: duration.Milliseconds()}, nil
}

type saveArgs struct {
	Name string `json:"name"`
}

type saveResult struct {
	OK     bool               `json:"ok"`
	Pose   string             `json:"pose"`
	Joints map[string]float64 `json:"joints"`
}

// savePose captures the arm's current position under a name. It reads the
// state snapshot, not the bus, so it works mid-motion too.
func (d *Dispatcher) savePose(args json.RawMessage) (any, error) {
	var a saveArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Name == "" {
		return nil, fmt.Errorf("%w: missing pose name", ErrInvalidArgs)
	}

	p, err := d.store.Save(a.Name, d.ch.State().Joints)
	if err != nil {
		return nil, err
	}
	return saveResult{OK: true, Pose: p.Name, Joints: jointMap(p.Joints)}, nil
}

type gestureArgs struct {
	Name    string  `json:"name"`
	Seconds float64 `json:"seconds"`
}

type gestureResult struct {
	OK      bool    `json:"ok"`
	Gesture string  `json:"gesture"`
	Seconds float64 `json:"seconds"`
	Status  string  `json:"status"`
}

func (d *Dispatcher) runGesture(ctx context.Context, args json.RawMessage) (any, error) {
	var a gestureArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Name == "" {
		return nil, fmt.Errorf("%w: missing gesture name", ErrInvalidArgs)
	}
	if a.Seconds <= 0 {
		a.Seconds = 3
	}

	script, ok := d.scripts[a.Name]
	if !ok {
		var err error
		script, err = gesture.Builtin(a.Name, a.Seconds)
		if err != nil {
			return nil, err
		}
	}

	if err := d.seq.Run(ctx, script); err != nil {
		return nil, err
	}
	status, _, _ := d.seq.Snapshot()
	return gestureResult{OK: true, Gesture: a.Name, Seconds: a.Seconds, Status: status.String()}, nil
}

type stateResult struct {
	Connected bool               `json:"connected"`
	Busy      bool               `json:"busy"`
	Joints    map[string]float64 `json:"joints"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func (d *Dispatcher) robotState() stateResult {
	st := d.ch.State()
	return stateResult{
		Connected: st.Connected,
		Busy:      st.Busy,
		Joints:    jointMap(st.Joints),
		UpdatedAt: st.UpdatedAt,
	}
}

func jointMap(v robot.JointVector) map[string]float64 {
	m := make(map[string]float64, len(v))
	for i, name := range robot.AllMotors() {
		if i < len(v) {
			m[string(name)+".pos"] = v[i]
		}
	}
	return m
}

func decodeArgs(args json.RawMessage, into any) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, into); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	return nil
}
