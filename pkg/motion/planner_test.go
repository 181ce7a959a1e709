package motion

import (
	"errors"
	"testing"
	"time"

	"github.com/ankithreddypati/so101arm-mcp/pkg/robot"
)

func TestPlan_SampleCount(t *testing.T) {
	start := robot.JointVector{0, 0, 0, 0, 0, 0}
	target := robot.JointVector{90, 0, 0, 0, 0, 0}

	tests := []struct {
		duration time.Duration
		rate     int
		want     int
	}{
		{1000 * time.Millisecond, 50, 51},
		{1500 * time.Millisecond, 30, 46},
		{100 * time.Millisecond, 30, 4},
		{time.Millisecond, 30, 2}, // ceil(0.001*30)=1 step
	}

	for _, tt := range tests {
		p, err := Plan(start, target, tt.duration, tt.rate)
		if err != nil {
			t.Fatalf("Plan(%v, %d): %v", tt.duration, tt.rate, err)
		}
		if len(p) != tt.want {
			t.Errorf("Plan(%v, %d) has %d samples, want %d", tt.duration, tt.rate, len(p), tt.want)
		}
	}
}

func TestPlan_Endpoints(t *testing.T) {
	start := robot.JointVector{-10, 20, -30, 40, -50, 60}
	target := robot.JointVector{33.3, -44.4, 55.5, -66.6, 77.7, 12.7}

	p, err := Plan(start, target, time.Second, 50)
	if err != nil {
		t.Fatal(err)
	}

	if !p[0].Joints.Equal(start) {
		t.Errorf("first sample = %v, want exact start %v", p[0].Joints, start)
	}
	if !p[len(p)-1].Joints.Equal(target) {
		t.Errorf("last sample = %v, want exact target %v", p[len(p)-1].Joints, target)
	}
	if p[0].At != 0 {
		t.Errorf("first sample at %v, want 0", p[0].At)
	}
	if p.Duration() != time.Second {
		t.Errorf("profile duration = %v, want 1s", p.Duration())
	}
}

func TestPlan_Example(t *testing.T) {
	// plan([0,0,0,...],[90,0,0,...], 1000ms, 50Hz) -> 51 samples, joint 0
	// monotonically non-decreasing, other joints pinned at 0.
	start := robot.JointVector{0, 0, 0, 0, 0, 0}
	target := robot.JointVector{90, 0, 0, 0, 0, 0}

	p, err := Plan(start, target, 1000*time.Millisecond, 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(p) != 51 {
		t.Fatalf("got %d samples, want 51", len(p))
	}
	if p[50].Joints[0] != 90 {
		t.Errorf("sample[50][0] = %f, want 90", p[50].Joints[0])
	}

	prev := -1.0
	for i, s := range p {
		if s.Joints[0] < prev {
			t.Errorf("joint 0 decreased at sample %d: %f -> %f", i, prev, s.Joints[0])
		}
		prev = s.Joints[0]
		for j := 1; j < robot.NumJoints; j++ {
			if s.Joints[j] != 0 {
				t.Errorf("joint %d moved at sample %d: %f", j, i, s.Joints[j])
			}
		}
	}
}

func TestPlan_SynchronizedArrival(t *testing.T) {
	start := robot.JointVector{0, 0, 10, -10, 50, 0}
	target := robot.JointVector{100, -100, 60, 40, -50, 100}

	p, err := Plan(start, target, 700*time.Millisecond, 25)
	if err != nil {
		t.Fatal(err)
	}

	// Every joint's blend fraction must be identical within a sample.
	for i, s := range p {
		frac := (s.Joints[0] - start[0]) / (target[0] - start[0])
		for j := 1; j < robot.NumJoints; j++ {
			got := (s.Joints[j] - start[j]) / (target[j] - start[j])
			if diff := got - frac; diff > 1e-9 || diff < -1e-9 {
				t.Fatalf("sample %d: joint %d fraction %f != joint 0 fraction %f", i, j, got, frac)
			}
		}
	}
}

func TestPlan_Deterministic(t *testing.T) {
	start := robot.JointVector{1, 2, 3, 4, 5, 6}
	target := robot.JointVector{-6, -5, -4, -3, -2, 7}

	a, err := Plan(start, target, 900*time.Millisecond, 30)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Plan(start, target, 900*time.Millisecond, 30)
	if err != nil {
		t.Fatal(err)
	}

	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].Joints.Equal(b[i].Joints) || a[i].At != b[i].At {
			t.Fatalf("sample %d differs between calls", i)
		}
	}
}

func TestPlan_InstantMove(t *testing.T) {
	start := robot.JointVector{0, 0, 0, 0, 0, 0}
	target := robot.JointVector{10, 20, 30, 40, 50, 60}

	for _, d := range []time.Duration{0, -time.Second} {
		p, err := Plan(start, target, d, 30)
		if err != nil {
			t.Fatal(err)
		}
		if len(p) != 1 {
			t.Fatalf("duration %v: got %d samples, want 1", d, len(p))
		}
		if !p[0].Joints.Equal(target) {
			t.Errorf("duration %v: snap sample = %v, want %v", d, p[0].Joints, target)
		}
	}
}

func TestPlan_DimensionMismatch(t *testing.T) {
	ok := robot.JointVector{0, 0, 0, 0, 0, 0}
	short := robot.JointVector{0, 0, 0}

	if _, err := Plan(short, ok, time.Second, 30); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("short start: err = %v, want ErrDimensionMismatch", err)
	}
	if _, err := Plan(ok, short, time.Second, 30); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("short target: err = %v, want ErrDimensionMismatch", err)
	}
}
