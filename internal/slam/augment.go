package slam

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Augment grows the state by one 2-D landmark per entry in newObservations
// (robot-frame centers), per spec.md §4.3.4. The existing N×N block of
// Sigma is preserved verbatim; new cross-covariance and diagonal blocks are
// appended.
func Augment(state *State, newObservations []Point2D, noise MeasurementNoise) {
	n2 := len(newObservations)
	if n2 == 0 {
		return
	}

	oldN := state.Dim()
	newN := oldN + 2*n2
	pose := state.Pose()
	theta := pose.Yaw
	cosT, sinT := math.Cos(theta), math.Sin(theta)

	muData := make([]float64, newN)
	for i := 0; i < oldN; i++ {
		muData[i] = state.Mu.AtVec(i)
	}

	gP := mat.NewDense(2*n2, 3, nil)
	gZ := mat.NewDense(2*n2, 2*n2, nil)

	for i, obs := range newObservations {
		rx, ry := obs.X, obs.Y
		wx, wy := TransformPoint(rx, ry, pose.X, pose.Y, pose.Yaw)
		muData[oldN+2*i] = wx
		muData[oldN+2*i+1] = wy

		gP.Set(2*i, 0, 1)
		gP.Set(2*i, 2, -rx*sinT-ry*cosT)
		gP.Set(2*i+1, 1, 1)
		gP.Set(2*i+1, 2, rx*cosT-ry*sinT)

		gZ.Set(2*i, 2*i, cosT)
		gZ.Set(2*i, 2*i+1, sinT)
		gZ.Set(2*i+1, 2*i, -sinT)
		gZ.Set(2*i+1, 2*i+1, cosT)
	}

	gFx := mat.NewDense(2*n2, oldN, nil)
	for i := 0; i < 2*n2; i++ {
		for j := 0; j < 3; j++ {
			gFx.Set(i, j, gP.At(i, j))
		}
	}

	sigmaDense := state.denseSigma()
	sigma00 := sigmaDense.Slice(0, 3, 0, 3)

	var gPSigma00, sigmaMM1 mat.Dense
	gPSigma00.Mul(gP, sigma00)
	sigmaMM1.Mul(&gPSigma00, gP.T())

	qBlock := mat.NewDense(2*n2, 2*n2, nil)
	for i := 0; i < n2; i++ {
		qBlock.Set(2*i, 2*i, noise.X)
		qBlock.Set(2*i+1, 2*i+1, noise.Y)
	}

	var gZQ, sigmaMM2 mat.Dense
	gZQ.Mul(gZ, qBlock)
	sigmaMM2.Mul(&gZQ, gZ.T())

	var sigmaMM mat.Dense
	sigmaMM.Add(&sigmaMM1, &sigmaMM2)

	var sigmaMX mat.Dense
	sigmaMX.Mul(gFx, sigmaDense)

	sigmaData := make([]float64, newN*newN)
	for i := 0; i < oldN; i++ {
		for j := 0; j < oldN; j++ {
			sigmaData[i*newN+j] = sigmaDense.At(i, j)
		}
	}
	for i := 0; i < 2*n2; i++ {
		for j := 0; j < oldN; j++ {
			v := sigmaMX.At(i, j)
			sigmaData[(oldN+i)*newN+j] = v
			sigmaData[j*newN+oldN+i] = v
		}
	}
	for i := 0; i < 2*n2; i++ {
		for j := 0; j < 2*n2; j++ {
			sigmaData[(oldN+i)*newN+oldN+j] = sigmaMM.At(i, j)
		}
	}

	state.Mu = mat.NewVecDense(newN, muData)

	sym := mat.NewSymDense(newN, nil)
	for i := 0; i < newN; i++ {
		for j := i; j < newN; j++ {
			v := (sigmaData[i*newN+j] + sigmaData[j*newN+i]) / 2
			sym.SetSym(i, j, v)
		}
	}
	state.Sigma = sym
}
