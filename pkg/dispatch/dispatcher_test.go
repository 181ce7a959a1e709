package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ankithreddypati/so101arm-mcp/pkg/device"
	"github.com/ankithreddypati/so101arm-mcp/pkg/gesture"
	"github.com/ankithreddypati/so101arm-mcp/pkg/pose"
	"github.com/ankithreddypati/so101arm-mcp/pkg/robot"
)

type stubDriver struct {
	mu     sync.Mutex
	joints robot.JointVector
	writes int
}

func (d *stubDriver) ReadJoints(ctx context.Context) (robot.JointVector, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.joints.Clone(), nil
}

func (d *stubDriver) WriteJoints(ctx context.Context, joints robot.JointVector) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writes++
	return nil
}

func (d *stubDriver) Close() error { return nil }

func (d *stubDriver) writeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *stubDriver, *pose.Store, *device.Channel) {
	t.Helper()
	drv := &stubDriver{joints: robot.JointVector{1, 2, 3, 4, 5, 6}}
	ch, err := device.Open(context.Background(), drv)
	if err != nil {
		t.Fatal(err)
	}
	store := pose.NewStore(filepath.Join(t.TempDir(), "saved_positions.json"))
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	seq := gesture.NewSequencer(store, ch, 100)
	// instant moves keep tests fast
	return New(store, ch, seq, Options{MoveDuration: 1, SampleRate: 100}), drv, store, ch
}

func TestDispatch_UnknownCommand(t *testing.T) {
	d, drv, _, _ := newTestDispatcher(t)

	_, err := d.Dispatch(context.Background(), "self_destruct", nil)
	if !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("err = %v, want ErrUnknownCommand", err)
	}
	if drv.writeCount() != 0 {
		t.Error("unknown command touched the device")
	}
}

func TestDispatch_MoveToPose(t *testing.T) {
	d, drv, store, ch := newTestDispatcher(t)

	target := robot.JointVector{10, 20, 30, 40, 50, 60}
	if _, err := store.Save("presenting", target); err != nil {
		t.Fatal(err)
	}

	res, err := d.Dispatch(context.Background(), "move_to_pose",
		json.RawMessage(`{"name": "presenting", "duration_ms": 0}`))
	if err != nil {
		t.Fatal(err)
	}

	mv, ok := res.(moveResult)
	if !ok || !mv.OK || mv.Pose != "presenting" {
		t.Errorf("result = %+v", res)
	}
	if drv.writeCount() == 0 {
		t.Error("no motion executed")
	}
	if !ch.State().Joints.Equal(target) {
		t.Errorf("joints = %v, want %v", ch.State().Joints, target)
	}
}

func TestDispatch_MoveToMissingPose(t *testing.T) {
	d, drv, _, _ := newTestDispatcher(t)

	_, err := d.Dispatch(context.Background(), "move_to_pose",
		json.RawMessage(`{"name": "nonexistent"}`))
	if !errors.Is(err, pose.ErrPoseNotFound) {
		t.Errorf("err = %v, want ErrPoseNotFound", err)
	}
	if drv.writeCount() != 0 {
		t.Error("device state changed on a missing pose")
	}
}

func TestDispatch_MoveRejectedWhileBusy(t *testing.T) {
	d, _, store, ch := newTestDispatcher(t)

	if _, err := store.Save("rest", robot.JointVector{0, 0, 0, 0, 0, 0}); err != nil {
		t.Fatal(err)
	}

	sess, err := ch.Begin()
	if err != nil {
		t.Fatal(err)
	}
	defer sess.End()

	_, err = d.Dispatch(context.Background(), "move_to_pose",
		json.RawMessage(`{"name": "rest"}`))
	if !errors.Is(err, device.ErrBusy) {
		t.Errorf("err = %v, want device.ErrBusy", err)
	}
}

func TestDispatch_SavePose(t *testing.T) {
	d, _, store, _ := newTestDispatcher(t)

	res, err := d.Dispatch(context.Background(), "save_pose",
		json.RawMessage(`{"name": "here"}`))
	if err != nil {
		t.Fatal(err)
	}
	sv := res.(saveResult)
	if !sv.OK || sv.Pose != "here" {
		t.Errorf("result = %+v", sv)
	}

	// persisted with the driver's current joints
	p, err := store.Get("here")
	if err != nil {
		t.Fatal(err)
	}
	if !p.Joints.Equal(robot.JointVector{1, 2, 3, 4, 5, 6}) {
		t.Errorf("saved joints = %v", p.Joints)
	}
}

func TestDispatch_RunGestureUnknown(t *testing.T) {
	d, _, _, _ := newTestDispatcher(t)

	_, err := d.Dispatch(context.Background(), "run_gesture",
		json.RawMessage(`{"name": "moonwalk"}`))
	if !errors.Is(err, gesture.ErrScriptInvalid) {
		t.Errorf("err = %v, want ErrScriptInvalid", err)
	}
}

func TestDispatch_RunCustomGesture(t *testing.T) {
	d, drv, _, _ := newTestDispatcher(t)

	err := d.RegisterScript(gesture.Script{
		Name:  "snap",
		Steps: []gesture.Step{{Set: map[robot.MotorName]float64{robot.Gripper: 9}}},
	})
	if err != nil {
		t.Fatal(err)
	}

	res, err := d.Dispatch(context.Background(), "run_gesture",
		json.RawMessage(`{"name": "snap"}`))
	if err != nil {
		t.Fatal(err)
	}
	gr := res.(gestureResult)
	if gr.Status != "completed" {
		t.Errorf("status = %q, want completed", gr.Status)
	}
	if drv.writeCount() != 1 {
		t.Errorf("writes = %d, want 1", drv.writeCount())
	}
}

func TestRegisterScript_RejectsBuiltinShadow(t *testing.T) {
	d, _, _, _ := newTestDispatcher(t)
	err := d.RegisterScript(gesture.Script{
		Name:  gesture.Talk,
		Steps: []gesture.Step{{Set: map[robot.MotorName]float64{robot.Gripper: 1}}},
	})
	if !errors.Is(err, gesture.ErrScriptInvalid) {
		t.Errorf("err = %v, want ErrScriptInvalid", err)
	}
}

func TestDispatch_GetRobotState(t *testing.T) {
	d, _, _, _ := newTestDispatcher(t)

	res, err := d.Dispatch(context.Background(), "get_robot_state", nil)
	if err != nil {
		t.Fatal(err)
	}
	st := res.(stateResult)
	if !st.Connected || st.Busy {
		t.Errorf("state = %+v", st)
	}
	if st.Joints["gripper.pos"] != 6 {
		t.Errorf("gripper = %f, want 6", st.Joints["gripper.pos"])
	}
}

func TestDispatch_BadArgs(t *testing.T) {
	d, _, _, _ := newTestDispatcher(t)

	_, err := d.Dispatch(context.Background(), "move_to_pose",
		json.RawMessage(`{"name": 42}`))
	if !errors.Is(err, ErrInvalidArgs) {
		t.Errorf("err = %v, want ErrInvalidArgs", err)
	}

	_, err = d.Dispatch(context.Background(), "save_pose", json.RawMessage(`{}`))
	if !errors.Is(err, ErrInvalidArgs) {
		t.Errorf("missing name: err = %v, want ErrInvalidArgs", err)
	}
}

func TestDispatch_ListPoses(t *testing.T) {
	d, _, store, _ := newTestDispatcher(t)
	for _, name := range []string{"b", "a"} {
		if _, err := store.Save(name, robot.JointVector{0, 0, 0, 0, 0, 0}); err != nil {
			t.Fatal(err)
		}
	}

	res, err := d.Dispatch(context.Background(), "list_poses", nil)
	if err != nil {
		t.Fatal(err)
	}
	pl := res.(poseList)
	if len(pl.Poses) != 2 || pl.Poses[0] != "a" || pl.Poses[1] != "b" {
		t.Errorf("poses = %v", pl.Poses)
	}
}
