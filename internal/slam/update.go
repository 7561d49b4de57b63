package slam

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// MeasurementNoise holds the per-axis measurement noise variances used to
// build Q_t on the diagonal of R (spec.md §4.3.3).
type MeasurementNoise struct {
	X float64
	Y float64
}

// Match pairs an observation (robot-frame center) with the world-frame
// position of the landmark it was associated to, and, for in-state
// matches, the landmark's column index so Update can place the B block.
type Match struct {
	Observation Point2D
	LandmarkPos Point2D
	StateIndex  int  // valid iff InState
	InState     bool // false for prior-map matches: no landmark-column block
}

// Update applies the batch EKF measurement correction of spec.md §4.3.3 for
// all matched observations at once. Unmatched observations (new landmarks)
// are handled separately by Augment.
func Update(state *State, matches []Match, noise MeasurementNoise) error {
	if len(matches) == 0 {
		return nil
	}

	n := state.Dim()
	mm := len(matches)
	pose := state.Pose()
	theta := pose.Yaw
	cosT, sinT := math.Cos(theta), math.Sin(theta)

	z := mat.NewVecDense(2*mm, nil)
	zhat := mat.NewVecDense(2*mm, nil)
	h := mat.NewDense(2*mm, n, nil)
	r := mat.NewDense(2*mm, 2*mm, nil)

	for i, m := range matches {
		z.SetVec(2*i, m.Observation.X)
		z.SetVec(2*i+1, m.Observation.Y)

		dx := m.LandmarkPos.X - pose.X
		dy := m.LandmarkPos.Y - pose.Y
		zhat.SetVec(2*i, dx*cosT+dy*sinT)
		zhat.SetVec(2*i+1, -dx*sinT+dy*cosT)

		// Pose block A, columns 0..2.
		h.Set(2*i, 0, -cosT)
		h.Set(2*i, 1, -sinT)
		h.Set(2*i, 2, -dx*sinT+dy*cosT)
		h.Set(2*i+1, 0, sinT)
		h.Set(2*i+1, 1, -cosT)
		h.Set(2*i+1, 2, -dx*cosT-dy*sinT)

		if m.InState {
			col := 3 + 2*m.StateIndex
			h.Set(2*i, col, cosT)
			h.Set(2*i, col+1, sinT)
			h.Set(2*i+1, col, -sinT)
			h.Set(2*i+1, col+1, cosT)
		}

		r.Set(2*i, 2*i, noise.X)
		r.Set(2*i+1, 2*i+1, noise.Y)
	}

	sigmaDense := state.denseSigma()

	var hSigma, s mat.Dense
	hSigma.Mul(h, sigmaDense)
	s.Mul(&hSigma, h.T())
	s.Add(&s, r)

	var sInv mat.Dense
	if err := sInv.Inverse(&s); err != nil {
		// Surfaced but not fatal (spec.md §7): fall back to a pseudoinverse
		// and continue rather than aborting the update.
		sInv = pseudoInverse(&s)
	}

	var sigmaHt, kGain mat.Dense
	sigmaHt.Mul(sigmaDense, h.T())
	kGain.Mul(&sigmaHt, &sInv)

	innovation := mat.NewVecDense(2*mm, nil)
	innovation.SubVec(z, zhat)

	var correction mat.VecDense
	correction.MulVec(&kGain, innovation)

	for i := 0; i < n; i++ {
		state.Mu.SetVec(i, state.Mu.AtVec(i)+correction.AtVec(i))
	}
	state.SetPose(state.Pose())

	var kH, kHSigma, newSigmaDense mat.Dense
	kH.Mul(&kGain, h)
	kHSigma.Mul(&kH, sigmaDense)
	newSigmaDense.Sub(sigmaDense, &kHSigma)

	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := (newSigmaDense.At(i, j) + newSigmaDense.At(j, i)) / 2
			sym.SetSym(i, j, v)
		}
	}
	state.Sigma = sym

	return nil
}

// pseudoInverse computes a Moore-Penrose pseudoinverse via SVD, used when S
// is numerically ill-conditioned (spec.md §7).
func pseudoInverse(a *mat.Dense) mat.Dense {
	var svd mat.SVD
	svd.Factorize(a, mat.SVDFull)

	values := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	sigmaInv := mat.NewDense(len(values), len(values), nil)
	for i, sv := range values {
		if sv > 1e-12 {
			sigmaInv.Set(i, i, 1/sv)
		}
	}

	var tmp, result mat.Dense
	tmp.Mul(&v, sigmaInv)
	result.Mul(&tmp, u.T())
	return result
}
