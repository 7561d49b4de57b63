package slam

import (
	"os"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %q: %v", path, err)
	}
}

// growStateWithLandmark appends a single landmark (lx, ly) with an
// isotropic covariance of landmarkVar to state, returning the grown mu and
// Sigma. It exists purely for test setup: production growth goes through
// Augment.
func growStateWithLandmark(state *State, lx, ly, landmarkVar float64) (*mat.VecDense, *mat.SymDense) {
	oldDim := state.Dim()
	newDim := oldDim + 2

	muData := make([]float64, newDim)
	for i := 0; i < oldDim; i++ {
		muData[i] = state.Mu.AtVec(i)
	}
	muData[oldDim] = lx
	muData[oldDim+1] = ly

	sigmaData := make([]float64, newDim*newDim)
	for i := 0; i < oldDim; i++ {
		for j := 0; j < oldDim; j++ {
			sigmaData[i*newDim+j] = state.Sigma.At(i, j)
		}
	}
	sigmaData[oldDim*newDim+oldDim] = landmarkVar
	sigmaData[(oldDim+1)*newDim+oldDim+1] = landmarkVar

	return mat.NewVecDense(newDim, muData), mat.NewSymDense(newDim, sigmaData)
}
