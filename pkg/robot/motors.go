// Package robot provides the Feetech servo bus driver for the SO-101 arm
// and the joint vector model shared by the rest of the module.
package robot

import "fmt"

// MotorName identifies a motor in the arm.
type MotorName string

// Motor names for the SO-101 arm.
const (
	ShoulderPan  MotorName = "shoulder_pan"
	ShoulderLift MotorName = "shoulder_lift"
	ElbowFlex    MotorName = "elbow_flex"
	WristFlex    MotorName = "wrist_flex"
	WristRoll    MotorName = "wrist_roll"
	Gripper      MotorName = "gripper"
)

// AllMotors returns all motor names in order (matching servo IDs 1-6).
// This ordering defines JointVector indexing for the whole process.
func AllMotors() []MotorName {
	return []MotorName{
		ShoulderPan,
		ShoulderLift,
		ElbowFlex,
		WristFlex,
		WristRoll,
		Gripper,
	}
}

// NumJoints is the arm's degree-of-freedom count.
const NumJoints = 6

// MotorIndex returns the JointVector index for a motor name.
func MotorIndex(name MotorName) (int, bool) {
	for i, m := range AllMotors() {
		if m == name {
			return i, true
		}
	}
	return 0, false
}

// JointVector holds one normalized position per joint, ordered as
// AllMotors(). Positions are in the calibrated range [-100, 100]
// ([0, 100] for the gripper).
type JointVector []float64

// ErrInvalidJointVector is returned when a joint vector has the wrong
// length or a component outside its joint's safe range.
var ErrInvalidJointVector = fmt.Errorf("invalid joint vector")

// Limit is the safe range for a single joint.
type Limit struct {
	Min float64
	Max float64
}

// Limits returns the per-joint safe ranges, ordered as AllMotors().
func Limits() []Limit {
	lims := make([]Limit, NumJoints)
	for i, name := range AllMotors() {
		if name == Gripper {
			lims[i] = Limit{Min: 0, Max: 100}
		} else {
			lims[i] = Limit{Min: -100, Max: 100}
		}
	}
	return lims
}

// Clone returns a copy of the vector.
func (v JointVector) Clone() JointVector {
	out := make(JointVector, len(v))
	copy(out, v)
	return out
}

// Validate checks length and per-joint safe ranges.
func (v JointVector) Validate() error {
	if len(v) != NumJoints {
		return fmt.Errorf("%w: got %d joints, want %d", ErrInvalidJointVector, len(v), NumJoints)
	}
	for i, lim := range Limits() {
		if v[i] < lim.Min || v[i] > lim.Max {
			return fmt.Errorf("%w: joint %s = %.2f outside [%.0f, %.0f]",
				ErrInvalidJointVector, AllMotors()[i], v[i], lim.Min, lim.Max)
		}
	}
	return nil
}

// Equal reports whether two vectors are component-wise identical.
func (v JointVector) Equal(o JointVector) bool {
	if len(v) != len(o) {
		return false
	}
	for i := range v {
		if v[i] != o[i] {
			return false
		}
	}
	return true
}
