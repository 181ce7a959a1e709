package robot

import (
	"context"
	"fmt"

	"github.com/hipsterbrown/feetech-servo/feetech"
)

// Arm is the SO-101 follower arm on a Feetech serial bus. It reads and
// writes ordered joint vectors; normalization against the calibration
// happens here so everything above the bus works in [-100, 100].
type Arm struct {
	bus         *feetech.Bus
	group       *feetech.ServoGroup
	calibration Calibration
}

// NewArm opens the serial bus and prepares the servo group. The arm is not
// enabled until Enable is called.
func NewArm(port string, cal Calibration) (*Arm, error) {
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}

	group := feetech.NewServoGroupByIDs(bus, cal.MotorIDs()...)

	return &Arm{
		bus:         bus,
		group:       group,
		calibration: cal,
	}, nil
}

// Close closes the arm's bus connection.
func (a *Arm) Close() error {
	return a.bus.Close()
}

// Enable enables torque on all servos.
func (a *Arm) Enable(ctx context.Context) error {
	return a.group.EnableAll(ctx)
}

// Disable disables torque on all servos.
func (a *Arm) Disable(ctx context.Context) error {
	return a.group.DisableAll(ctx)
}

// ReadJoints reads current positions from all motors as an ordered,
// normalized joint vector.
func (a *Arm) ReadJoints(ctx context.Context) (JointVector, error) {
	rawPositions, err := a.group.Positions(ctx)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	joints := make(JointVector, NumJoints)
	for id, raw := range rawPositions {
		name, cal, ok := a.calibration.ByID(id)
		if !ok {
			continue
		}
		if i, ok := MotorIndex(name); ok {
			joints[i] = cal.Normalize(raw)
		}
	}

	return joints, nil
}

// WriteJoints writes an ordered, normalized joint vector to all motors
// using a single sync write.
func (a *Arm) WriteJoints(ctx context.Context, joints JointVector) error {
	if len(joints) != NumJoints {
		return fmt.Errorf("%w: got %d joints, want %d", ErrInvalidJointVector, len(joints), NumJoints)
	}

	rawPositions := make(feetech.PositionMap, NumJoints)
	for i, name := range AllMotors() {
		cal, ok := a.calibration[name]
		if !ok {
			continue
		}
		rawPositions[cal.ID] = cal.Denormalize(joints[i])
	}

	if err := a.group.SetPositions(ctx, rawPositions); err != nil {
		return fmt.Errorf("write positions: %w", err)
	}

	return nil
}
