// ABOUTME: Tests for vector math
// ABOUTME: Covers normalization edge cases, products and projections
package geom

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const tolerance = 1e-9

var approx = cmpopts.EquateApprox(0, 1e-9)

func near(a, b float64) bool {
	return math.Abs(a-b) <= tolerance
}

func TestNormalizeZeroVector(t *testing.T) {
	v := Vec(1e-9, 0, 0)
	v.Normalize()
	if v != Zero {
		t.Errorf("expected zero vector, got %v", v)
	}
}

func TestNormalized(t *testing.T) {
	tests := []struct {
		name string
		in   Vector3
		want Vector3
	}{
		{"x axis", Vec(5, 0, 0), Right},
		{"diagonal", Vec(3, 4, 0), Vec(0.6, 0.8, 0)},
		{"negative z", Vec(0, 0, -2), Vec(0, 0, -1)},
		{"zero", Zero, Zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.in.Normalized(), approx); diff != "" {
				t.Errorf("Normalized mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClampMagnitudeNeverScalesUp(t *testing.T) {
	short := Vec(0.1, 0.2, 0.2)
	if got := short.ClampMagnitude(1); got != short {
		t.Errorf("expected unchanged vector, got %v", got)
	}

	long := Vec(0, 3, 4)
	got := long.ClampMagnitude(2)
	if !near(got.Magnitude(), 2) {
		t.Errorf("expected magnitude 2, got %f", got.Magnitude())
	}
	if diff := cmp.Diff(long.Normalized(), got.Normalized(), approx); diff != "" {
		t.Errorf("direction changed (-want +got):\n%s", diff)
	}
}

func TestCrossDot(t *testing.T) {
	if got := Right.Cross(Up); got != Vec(0, 0, 1) {
		t.Errorf("expected right x up = forward, got %v", got)
	}
	if got := Up.Cross(Forward); got != Right {
		t.Errorf("expected up x forward = right, got %v", got)
	}

	a := Vec(1, 2, 3)
	b := Vec(-4, 0.5, 2)
	c := a.Cross(b)
	if !near(c.Dot(a), 0) || !near(c.Dot(b), 0) {
		t.Errorf("cross product not orthogonal: %v", c)
	}
	if a.MagSquared() != 14 {
		t.Errorf("expected squared magnitude 14, got %f", a.MagSquared())
	}
}

func TestAngle(t *testing.T) {
	if got := Angle(Forward, Right); !near(got, math.Pi/2) {
		t.Errorf("expected pi/2, got %f", got)
	}
	if got := Angle(Forward, Forward.Neg()); !near(got, math.Pi) {
		t.Errorf("expected pi, got %f", got)
	}
	if got := Angle(Zero, Forward); got != 0 {
		t.Errorf("expected 0 for degenerate input, got %f", got)
	}
}

func TestProjectOntoPlane(t *testing.T) {
	got := ProjectOntoPlane(Vec(1, 2, 3), Up)
	if diff := cmp.Diff(Vec(1, 0, 3), got, approx); diff != "" {
		t.Errorf("projection mismatch (-want +got):\n%s", diff)
	}
}

func TestRotateByVectors(t *testing.T) {
	// Facing right: local forward becomes world right
	got := RotateByVectors(Right, Up, Forward)
	if diff := cmp.Diff(Right, got, approx); diff != "" {
		t.Errorf("rotation mismatch (-want +got):\n%s", diff)
	}
}

func TestVectorFromEulerDegrees(t *testing.T) {
	got := VectorFromEulerDegrees(0, 90)
	if diff := cmp.Diff(Right, got, approx); diff != "" {
		t.Errorf("yaw 90 mismatch (-want +got):\n%s", diff)
	}

	got = VectorFromEulerDegrees(90, 0)
	if diff := cmp.Diff(Vec(0, -1, 0), got, approx); diff != "" {
		t.Errorf("pitch 90 mismatch (-want +got):\n%s", diff)
	}
}
