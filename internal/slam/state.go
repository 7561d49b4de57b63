package slam

import (
	"gonum.org/v1/gonum/mat"
)

// State holds the EKF's growing mean vector mu and covariance matrix Sigma.
// len(mu) = 3 + 2*K where K is the number of tracked landmarks; entries
// 0..2 are the robot pose, each subsequent pair a landmark (x, y) in the
// world frame (spec.md §3).
//
// Sigma is rebuilt into a fresh matrix on every augmentation rather than
// resized in place (spec.md §9): the cross-covariance write needs to read
// the old Sigma while writing the new rows and columns, so aliasing the
// backing array would corrupt the read.
type State struct {
	Mu    *mat.VecDense
	Sigma *mat.SymDense
}

// NewState creates the initial state at the configured start pose: the
// initial pose is declared exact, so Sigma starts as the 3x3 zero matrix.
func NewState(start Pose2D) *State {
	mu := mat.NewVecDense(3, []float64{start.X, start.Y, start.Yaw})
	sigma := mat.NewSymDense(3, nil)
	return &State{Mu: mu, Sigma: sigma}
}

// Dim returns N = len(mu) = 3 + 2*K.
func (s *State) Dim() int {
	return s.Mu.Len()
}

// NumLandmarks returns K, the number of landmarks currently tracked in the
// filter state.
func (s *State) NumLandmarks() int {
	return (s.Dim() - 3) / 2
}

// Pose returns the robot pose portion of mu.
func (s *State) Pose() Pose2D {
	return Pose2D{X: s.Mu.AtVec(0), Y: s.Mu.AtVec(1), Yaw: s.Mu.AtVec(2)}
}

// SetPose overwrites the robot pose portion of mu, normalizing the heading.
func (s *State) SetPose(p Pose2D) {
	s.Mu.SetVec(0, p.X)
	s.Mu.SetVec(1, p.Y)
	s.Mu.SetVec(2, NormalizeAngle(p.Yaw))
}

// Landmark returns the world-frame position of tracked landmark index j
// (0-based).
func (s *State) Landmark(j int) Point2D {
	base := 3 + 2*j
	return Point2D{X: s.Mu.AtVec(base), Y: s.Mu.AtVec(base + 1)}
}

// LandmarkCovariance returns the 2x2 diagonal covariance block for tracked
// landmark index j.
func (s *State) LandmarkCovariance(j int) Covariance2 {
	base := 3 + 2*j
	return Covariance2{
		s.Sigma.At(base, base), s.Sigma.At(base, base+1),
		s.Sigma.At(base+1, base), s.Sigma.At(base+1, base+1),
	}
}

// PoseCovariance returns the top-left 3x3 pose covariance block, row-major.
func (s *State) PoseCovariance() [9]float64 {
	var out [9]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i*3+j] = s.Sigma.At(i, j)
		}
	}
	return out
}

// denseSigma returns Sigma as a plain *mat.Dense, used where a
// computation (H*Sigma, etc.) needs a general dense operand.
func (s *State) denseSigma() *mat.Dense {
	n := s.Dim()
	d := mat.NewDense(n, n, nil)
	d.CopySym(s.Sigma)
	return d
}
