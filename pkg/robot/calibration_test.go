package robot

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestMotorCalibration_Normalize(t *testing.T) {
	cal := MotorCalibration{
		RangeMin: 1000,
		RangeMax: 3000,
	}

	tests := []struct {
		raw      int
		expected float64
	}{
		{1000, -100.0}, // min -> -100
		{3000, 100.0},  // max -> 100
		{2000, 0.0},    // mid -> 0
		{1500, -50.0},  // quarter -> -50
		{2500, 50.0},   // three-quarter -> 50
	}

	for _, tt := range tests {
		got := cal.Normalize(tt.raw)
		if math.Abs(got-tt.expected) > 0.001 {
			t.Errorf("Normalize(%d) = %f, want %f", tt.raw, got, tt.expected)
		}
	}
}

func TestMotorCalibration_RoundTrip(t *testing.T) {
	cal := MotorCalibration{
		RangeMin: 823,
		RangeMax: 3540,
	}

	for raw := cal.RangeMin; raw <= cal.RangeMax; raw += 100 {
		norm := cal.Normalize(raw)
		back := cal.Denormalize(norm)
		if math.Abs(float64(back-raw)) > 1 {
			t.Errorf("Round-trip failed: %d -> %f -> %d", raw, norm, back)
		}
	}
}

func TestLoadCalibration_MissingMotor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.json")
	// shoulder_pan only; the other five are missing
	data := `{"shoulder_pan": {"id": 1, "range_min": 100, "range_max": 200}}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadCalibration(path)
	if err == nil {
		t.Fatal("LoadCalibration should fail with motors missing")
	}
}

func TestLoadCalibration_EmptyRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.json")
	data := `{
		"shoulder_pan":  {"id": 1, "range_min": 100, "range_max": 200},
		"shoulder_lift": {"id": 2, "range_min": 100, "range_max": 200},
		"elbow_flex":    {"id": 3, "range_min": 100, "range_max": 200},
		"wrist_flex":    {"id": 4, "range_min": 200, "range_max": 200},
		"wrist_roll":    {"id": 5, "range_min": 100, "range_max": 200},
		"gripper":       {"id": 6, "range_min": 100, "range_max": 200}
	}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadCalibration(path)
	if err == nil {
		t.Fatal("LoadCalibration should reject an empty range")
	}
}

func TestCalibration_MotorIDs(t *testing.T) {
	cal := Calibration{
		ShoulderPan:  MotorCalibration{ID: 1},
		ShoulderLift: MotorCalibration{ID: 2},
		ElbowFlex:    MotorCalibration{ID: 3},
		WristFlex:    MotorCalibration{ID: 4},
		WristRoll:    MotorCalibration{ID: 5},
		Gripper:      MotorCalibration{ID: 6},
	}

	ids := cal.MotorIDs()
	expected := []int{1, 2, 3, 4, 5, 6}

	if len(ids) != len(expected) {
		t.Fatalf("MotorIDs returned %d IDs, want %d", len(ids), len(expected))
	}

	for i, id := range ids {
		if id != expected[i] {
			t.Errorf("MotorIDs()[%d] = %d, want %d", i, id, expected[i])
		}
	}
}
