package slam

import (
	"math"
	"testing"
)

func TestAugmentPreservesExistingSigmaBitExactly(t *testing.T) {
	state := NewState(Pose2D{X: 0, Y: 0, Yaw: 0})
	state.Sigma.SetSym(0, 0, 0.5)
	state.Sigma.SetSym(1, 1, 0.5)
	state.Sigma.SetSym(2, 2, 0.1)
	state.Sigma.SetSym(0, 1, 0.02)

	var before [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			before[i][j] = state.Sigma.At(i, j)
		}
	}

	Augment(state, []Point2D{{X: 1, Y: 0}}, MeasurementNoise{X: 0.05, Y: 0.05})

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if state.Sigma.At(i, j) != before[i][j] {
				t.Errorf("Sigma[%d][%d] = %v, want bit-exact %v", i, j, state.Sigma.At(i, j), before[i][j])
			}
		}
	}
}

func TestAugmentGrowsDimensionByTwoPerLandmark(t *testing.T) {
	state := NewState(Pose2D{})
	Augment(state, []Point2D{{X: 1, Y: 0}, {X: 0, Y: 1}}, MeasurementNoise{X: 0.05, Y: 0.05})

	if state.Dim() != 7 {
		t.Fatalf("Dim() = %d, want 7", state.Dim())
	}
	if state.NumLandmarks() != 2 {
		t.Fatalf("NumLandmarks() = %d, want 2", state.NumLandmarks())
	}
}

func TestAugmentPlacesWorldFrameLandmarkPosition(t *testing.T) {
	state := NewState(Pose2D{X: 1, Y: 1, Yaw: 0})
	Augment(state, []Point2D{{X: 2, Y: 0}}, MeasurementNoise{X: 0.05, Y: 0.05})

	lm := state.Landmark(0)
	if math.Abs(lm.X-3) > 1e-9 || math.Abs(lm.Y-1) > 1e-9 {
		t.Errorf("Landmark(0) = %+v, want (3, 1)", lm)
	}
}

func TestAugmentSigmaStaysSymmetric(t *testing.T) {
	state := NewState(Pose2D{X: 0, Y: 0, Yaw: 0.4})
	state.Sigma.SetSym(0, 0, 0.3)
	state.Sigma.SetSym(1, 1, 0.3)
	state.Sigma.SetSym(2, 2, 0.05)

	Augment(state, []Point2D{{X: 1, Y: 0.5}}, MeasurementNoise{X: 0.05, Y: 0.05})

	n := state.Dim()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if math.Abs(state.Sigma.At(i, j)-state.Sigma.At(j, i)) > 1e-9 {
				t.Fatalf("Sigma not symmetric at (%d,%d)", i, j)
			}
		}
	}
}

func TestAugmentEmptyObservationsIsNoOp(t *testing.T) {
	state := NewState(Pose2D{X: 1, Y: 2, Yaw: 0.2})
	before := state.Dim()

	Augment(state, nil, MeasurementNoise{X: 0.05, Y: 0.05})

	if state.Dim() != before {
		t.Errorf("Dim() = %d, want unchanged %d", state.Dim(), before)
	}
}
