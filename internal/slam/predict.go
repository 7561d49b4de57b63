package slam

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// ProcessNoise holds the linear and angular process noise variances used to
// build Q_u in the predict step (spec.md §4.3.1).
type ProcessNoise struct {
	Linear  float64
	Angular float64
}

// Predict advances the filter clock by dt seconds under a unicycle motion
// model with linear velocity v and angular velocity omega, per spec.md
// §4.3.1. A zero-velocity, zero-dt predict leaves mu unchanged and adds no
// process noise, matching the invariant that Sigma is unchanged in that
// case.
func Predict(state *State, v, omega, dt float64, noise ProcessNoise) {
	if dt == 0 || (v == 0 && omega == 0) {
		return
	}

	theta := state.Mu.AtVec(2)
	dtheta := omega * dt
	thetaBar := theta + dtheta/2
	dx := v * dt * math.Cos(thetaBar)
	dy := v * dt * math.Sin(thetaBar)

	state.Mu.SetVec(0, state.Mu.AtVec(0)+dx)
	state.Mu.SetVec(1, state.Mu.AtVec(1)+dy)
	state.Mu.SetVec(2, NormalizeAngle(theta+dtheta))

	n := state.Dim()

	gXi := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		gXi.Set(i, i, 1)
	}
	gXi.Set(0, 2, -v*dt*math.Sin(thetaBar))
	gXi.Set(1, 2, v*dt*math.Cos(thetaBar))

	gU := mat.NewDense(n, 2, nil)
	gU.Set(0, 0, dt*math.Cos(thetaBar))
	gU.Set(0, 1, -v*dt*dt*math.Sin(thetaBar)/2)
	gU.Set(1, 0, dt*math.Sin(thetaBar))
	gU.Set(1, 1, v*dt*dt*math.Cos(thetaBar)/2)
	gU.Set(2, 1, dt)

	sigmaDense := state.denseSigma()

	var tmp, newSigma mat.Dense
	tmp.Mul(gXi, sigmaDense)
	newSigma.Mul(&tmp, gXi.T())

	qu := mat.NewDense(2, 2, []float64{noise.Linear, 0, 0, noise.Angular})
	var tmp2, processTerm mat.Dense
	tmp2.Mul(gU, qu)
	processTerm.Mul(&tmp2, gU.T())

	newSigma.Add(&newSigma, &processTerm)

	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := (newSigma.At(i, j) + newSigma.At(j, i)) / 2
			sym.SetSym(i, j, v)
		}
	}
	state.Sigma = sym
}
