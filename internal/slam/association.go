package slam

import "math"

// Association is the per-observation verdict of spec.md §4.3.2: either a
// match to a prior-map landmark, a match to an in-state landmark, or new.
type Association struct {
	ObservationIndex int
	PriorMapIndex    int // valid iff Kind == AssociationPriorMap
	StateIndex       int // valid iff Kind == AssociationState
	Kind             AssociationKind
}

type AssociationKind int

const (
	AssociationNew AssociationKind = iota
	AssociationPriorMap
	AssociationState
)

const (
	priorMapAssociationThreshold = 0.05
	stateAssociationThreshold    = 0.6
)

// AssociateObservations matches each observation center (robot frame) to a
// prior-map landmark, an in-state landmark, or marks it new for
// augmentation, per spec.md §4.3.2. priorThreshold and stateThreshold
// override the spec defaults when positive, letting callers use tuned
// config values.
func AssociateObservations(observations []Point2D, state *State, prior *PriorMap, priorThreshold, stateThreshold float64) []Association {
	if priorThreshold <= 0 {
		priorThreshold = priorMapAssociationThreshold
	}
	if stateThreshold <= 0 {
		stateThreshold = stateAssociationThreshold
	}

	pose := state.Pose()
	results := make([]Association, len(observations))

	for i, p := range observations {
		qx, qy := TransformPoint(p.X, p.Y, pose.X, pose.Y, pose.Yaw)

		if prior != nil && prior.Len() > 0 {
			if j, d, ok := nearestPriorLandmark(prior, qx, qy); ok && d < priorThreshold {
				results[i] = Association{ObservationIndex: i, Kind: AssociationPriorMap, PriorMapIndex: j}
				continue
			}
		}

		if state.NumLandmarks() > 0 {
			if j, d, ok := nearestStateLandmark(state, qx, qy); ok && d < stateThreshold {
				results[i] = Association{ObservationIndex: i, Kind: AssociationState, StateIndex: j}
				continue
			}
		}

		results[i] = Association{ObservationIndex: i, Kind: AssociationNew}
	}

	return results
}

// nearestPriorLandmark finds the prior-map landmark minimizing the
// Mahalanobis-like distance √((m_j − q)ᵀ Σ_M,j (m_j − q)) using the stored
// 2x2 covariance of each landmark.
func nearestPriorLandmark(prior *PriorMap, qx, qy float64) (index int, dist float64, ok bool) {
	best := math.Inf(1)
	bestIdx := -1
	for j := 0; j < prior.Len(); j++ {
		lm := prior.At(j)
		dx := lm.Position.X - qx
		dy := lm.Position.Y - qy
		d := mahalanobisLike(dx, dy, lm.Covariance)
		if d < best || (d == best && (bestIdx == -1 || j < bestIdx)) {
			best = d
			bestIdx = j
		}
	}
	if bestIdx == -1 {
		return 0, 0, false
	}
	return bestIdx, best, true
}

// nearestStateLandmark finds the in-state landmark minimizing plain
// Euclidean distance (spec.md §4.3.2, step 2: the covariance is elided).
func nearestStateLandmark(state *State, qx, qy float64) (index int, dist float64, ok bool) {
	best := math.Inf(1)
	bestIdx := -1
	for j := 0; j < state.NumLandmarks(); j++ {
		lm := state.Landmark(j)
		d := EuclideanDistance(lm.X, lm.Y, qx, qy)
		if d < best || (d == best && (bestIdx == -1 || j < bestIdx)) {
			best = d
			bestIdx = j
		}
	}
	if bestIdx == -1 {
		return 0, 0, false
	}
	return bestIdx, best, true
}

// mahalanobisLike computes √(δᵀ Σ δ) for a 2-vector δ = (dx, dy) against a
// row-major 2x2 covariance, per spec.md §4.3.2.
func mahalanobisLike(dx, dy float64, cov Covariance2) float64 {
	// δᵀ Σ δ with Σ = [[cov0, cov1], [cov2, cov3]].
	v := dx*(cov[0]*dx+cov[1]*dy) + dy*(cov[2]*dx+cov[3]*dy)
	if v < 0 {
		v = 0
	}
	return math.Sqrt(v)
}
