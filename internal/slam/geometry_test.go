package slam

import (
	"math"
	"testing"
)

func TestNormalizeAngle(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{math.Pi + 0.001, -math.Pi + 0.001},
		{-math.Pi - 0.001, math.Pi - 0.001},
		{3 * math.Pi, math.Pi},
		{-3 * math.Pi, math.Pi},
	}
	for _, c := range cases {
		got := NormalizeAngle(c.in)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("NormalizeAngle(%f) = %f, want %f", c.in, got, c.want)
		}
		if got <= -math.Pi || got > math.Pi {
			t.Errorf("NormalizeAngle(%f) = %f out of (-pi, pi]", c.in, got)
		}
	}
}

func TestTransformAndInverseRoundTrip(t *testing.T) {
	ox, oy, oyaw := 1.5, -2.0, 0.7
	x, y := 3.0, 4.0

	wx, wy := TransformPoint(x, y, ox, oy, oyaw)
	gotX, gotY := InverseTransformPoint(wx, wy, ox, oy, oyaw)

	if math.Abs(gotX-x) > 1e-9 || math.Abs(gotY-y) > 1e-9 {
		t.Errorf("round trip = (%f, %f), want (%f, %f)", gotX, gotY, x, y)
	}
}

func TestTransformPointIdentity(t *testing.T) {
	wx, wy := TransformPoint(2.0, 3.0, 0, 0, 0)
	if wx != 2.0 || wy != 3.0 {
		t.Errorf("identity transform = (%f, %f), want (2, 3)", wx, wy)
	}
}

func TestEuclideanDistance(t *testing.T) {
	got := EuclideanDistance(0, 0, 3, 4)
	if math.Abs(got-5.0) > 1e-9 {
		t.Errorf("EuclideanDistance() = %f, want 5.0", got)
	}
}

func TestChordLengthMatchesEuclideanDistance(t *testing.T) {
	got := ChordLength(0, 0, 0.18, 0)
	if math.Abs(got-0.18) > 1e-9 {
		t.Errorf("ChordLength() = %f, want 0.18", got)
	}
}
