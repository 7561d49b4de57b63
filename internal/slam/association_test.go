package slam

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestAssociateObservationsMatchesPriorMap(t *testing.T) {
	state := NewState(Pose2D{})
	prior := &PriorMap{landmarks: []Landmark{
		{Position: Point2D{X: 2.137, Y: 0}, Covariance: Covariance2{1e-4, 0, 0, 1e-4}},
	}}

	results := AssociateObservations([]Point2D{{X: 2.0, Y: 0}}, state, prior, 0, 0)
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if results[0].Kind != AssociationPriorMap || results[0].PriorMapIndex != 0 {
		t.Errorf("results[0] = %+v, want prior-map match to index 0", results[0])
	}
}

func TestAssociateObservationsMatchesInStateLandmark(t *testing.T) {
	state := NewState(Pose2D{})
	state.Mu = mat.NewVecDense(5, []float64{0, 0, 0, 1.0, 0.5})
	state.Sigma = mat.NewSymDense(5, []float64{
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
		0, 0, 0, 1, 0,
		0, 0, 0, 0, 1,
	})

	results := AssociateObservations([]Point2D{{X: 1.05, Y: 0.45}}, state, NewPriorMap(), 0, 0)
	if results[0].Kind != AssociationState || results[0].StateIndex != 0 {
		t.Errorf("results[0] = %+v, want state match to index 0", results[0])
	}
}

func TestAssociateObservationsMarksFarObservationNew(t *testing.T) {
	state := NewState(Pose2D{})
	state.Mu = mat.NewVecDense(5, []float64{0, 0, 0, 1.0, 0.5})
	state.Sigma = mat.NewSymDense(5, make([]float64, 25))

	results := AssociateObservations([]Point2D{{X: 9.0, Y: 9.0}}, state, NewPriorMap(), 0, 0)
	if results[0].Kind != AssociationNew {
		t.Errorf("results[0].Kind = %v, want AssociationNew", results[0].Kind)
	}
}

func TestAssociateObservationsTieBreaksOnLowestIndex(t *testing.T) {
	state := NewState(Pose2D{})
	// Two landmarks equidistant from the observation, both inside the 0.6 m gate.
	state.Mu = mat.NewVecDense(7, []float64{0, 0, 0, 0.5, 0.0, -0.5, 0.0})
	state.Sigma = mat.NewSymDense(7, make([]float64, 49))

	results := AssociateObservations([]Point2D{{X: 0, Y: 0}}, state, NewPriorMap(), 0, 0)
	if results[0].Kind != AssociationState || results[0].StateIndex != 0 {
		t.Errorf("results[0] = %+v, want tie-break to lowest index 0", results[0])
	}
}
