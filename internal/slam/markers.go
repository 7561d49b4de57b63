package slam

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// chiSquare95TwoDOF is the 95% confidence value of the chi-squared
// distribution with 2 degrees of freedom, used to scale a covariance
// ellipse's axes (spec.md §6).
const chiSquare95TwoDOF = 5.991

// LandmarkMarkerFor builds the output marker for a landmark: its position
// plus the 95%-confidence ellipse of its 2x2 covariance, axes scaled by
// 2*sqrt(5.991*lambda_i) and oriented along the leading eigenvector.
func LandmarkMarkerFor(pos Point2D, cov Covariance2) LandmarkMarker {
	sym := mat.NewSymDense(2, []float64{cov[0], cov[1], cov[2], cov[3]})

	var eig mat.EigenSym
	ok := eig.Factorize(sym, true)

	var lambda1, lambda2, angle float64
	if ok {
		values := eig.Values(nil)
		var vectors mat.Dense
		eig.VectorsTo(&vectors)

		// gonum returns eigenvalues in ascending order; the leading
		// eigenvector is the one with the larger eigenvalue.
		if values[1] >= values[0] {
			lambda1, lambda2 = values[1], values[0]
			angle = math.Atan2(vectors.At(1, 1), vectors.At(0, 1))
		} else {
			lambda1, lambda2 = values[0], values[1]
			angle = math.Atan2(vectors.At(1, 0), vectors.At(0, 0))
		}
	}

	if lambda1 < 0 {
		lambda1 = 0
	}
	if lambda2 < 0 {
		lambda2 = 0
	}

	return LandmarkMarker{
		Position:  pos,
		SemiAxisA: 2 * math.Sqrt(chiSquare95TwoDOF*lambda1),
		SemiAxisB: 2 * math.Sqrt(chiSquare95TwoDOF*lambda2),
		AngleRad:  angle,
	}
}
