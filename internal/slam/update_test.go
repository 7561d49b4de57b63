package slam

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateCorrectsPoseTowardPriorMapLandmark(t *testing.T) {
	state := NewState(Pose2D{X: 0, Y: 0, Yaw: 0})
	// An exact pose (zero covariance) gives a zero Kalman gain, so give the
	// pose some uncertainty for the update to correct.
	for i := 0; i < 3; i++ {
		state.Sigma.SetSym(i, i, 0.5)
	}
	matches := []Match{
		{Observation: Point2D{X: 2.0, Y: 0}, LandmarkPos: Point2D{X: 2.137, Y: 0}, InState: false},
	}

	require.NoError(t, Update(state, matches, MeasurementNoise{X: 0.05, Y: 0.05}))

	pose := state.Pose()
	assert.Greater(t, pose.X, 0.0, "pose.X should be corrected toward the landmark")
	assert.LessOrEqualf(t, math.Abs(pose.X), math.Abs(2.137-2.0), "pose.X = %v, correction overshot expected bound", pose.X)
	assert.Equal(t, 0, state.NumLandmarks(), "prior-map match adds no state landmark")
}

func TestUpdateShrinksPoseCovariance(t *testing.T) {
	state := NewState(Pose2D{X: 0, Y: 0, Yaw: 0})
	state.Mu, state.Sigma = growStateWithLandmark(state, 5, 5, 1.0)
	for i := 0; i < 3; i++ {
		state.Sigma.SetSym(i, i, 0.5)
	}

	before := state.PoseCovariance()[0]

	matches := []Match{
		{Observation: Point2D{X: 5, Y: 5}, LandmarkPos: Point2D{X: 5, Y: 5}, InState: true, StateIndex: 0},
	}
	require.NoError(t, Update(state, matches, MeasurementNoise{X: 0.05, Y: 0.05}))

	after := state.PoseCovariance()[0]
	assert.Less(t, after, before, "pose covariance should shrink after update")
}

func TestUpdateKeepsSigmaSymmetric(t *testing.T) {
	state := NewState(Pose2D{X: 0, Y: 0, Yaw: 0.3})
	state.Mu, state.Sigma = growStateWithLandmark(state, 3, 1, 0.4)

	matches := []Match{
		{Observation: Point2D{X: 2.9, Y: 1.0}, LandmarkPos: Point2D{X: 3, Y: 1}, InState: true, StateIndex: 0},
	}
	require.NoError(t, Update(state, matches, MeasurementNoise{X: 0.05, Y: 0.05}))

	n := state.Dim()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			require.InDeltaf(t, state.Sigma.At(j, i), state.Sigma.At(i, j), 1e-9, "Sigma(%d,%d) vs Sigma(%d,%d)", i, j, j, i)
		}
	}
}

func TestUpdateNormalizesHeadingAfterCorrection(t *testing.T) {
	state := NewState(Pose2D{X: 0, Y: 0, Yaw: math.Pi - 0.01})
	for i := 0; i < 3; i++ {
		state.Sigma.SetSym(i, i, 0.5)
	}
	matches := []Match{
		{Observation: Point2D{X: 2.0, Y: 0}, LandmarkPos: Point2D{X: 2.137, Y: 0}, InState: false},
	}
	require.NoError(t, Update(state, matches, MeasurementNoise{X: 0.05, Y: 0.05}))

	pose := state.Pose()
	require.LessOrEqual(t, pose.Yaw, math.Pi)
	require.Greater(t, pose.Yaw, -math.Pi)
}

func TestUpdateNoMatchesIsNoOp(t *testing.T) {
	state := NewState(Pose2D{X: 1, Y: 2, Yaw: 0.1})
	before := state.Pose()

	require.NoError(t, Update(state, nil, MeasurementNoise{X: 0.05, Y: 0.05}))

	if diff := cmp.Diff(before, state.Pose()); diff != "" {
		t.Errorf("Update(nil) changed pose (-want +got):\n%s", diff)
	}
}
