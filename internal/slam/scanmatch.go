package slam

import "math"

// OccupancyGrid is a 2-D probability grid used by the correlative scan
// matcher: cell (i, j) covers the square [originX+i*res, originX+(i+1)*res)
// x [originY+j*res, originY+(j+1)*res), holding an occupancy probability in
// [0, 1].
type OccupancyGrid struct {
	Resolution    float64
	OriginX       float64
	OriginY       float64
	Width         int
	Height        int
	Probabilities []float64 // row-major, length Width*Height
}

// At returns the occupancy probability of the cell containing world point
// (x, y), or 0 if the point falls outside the grid.
func (g *OccupancyGrid) At(x, y float64) float64 {
	i := int(math.Floor((x - g.OriginX) / g.Resolution))
	j := int(math.Floor((y - g.OriginY) / g.Resolution))
	if i < 0 || i >= g.Width || j < 0 || j >= g.Height {
		return 0
	}
	return g.Probabilities[j*g.Width+i]
}

// ScanMatchConfig holds the correlative scan matcher's search window and
// scoring weights, spec.md §4.4.
type ScanMatchConfig struct {
	LinearWindow  float64 // search +/- this many meters in x and y
	AngularWindow float64 // search +/- this many radians
	LinearStep    float64
	AngularStep   float64
	WeightLinear  float64
	WeightAngular float64
}

// ScanMatchResult is the best-scoring pose correction found by the search.
type ScanMatchResult struct {
	Pose  Pose2D
	Score float64
}

// MatchScan exhaustively searches a grid of (dx, dy, dtheta) candidate
// offsets around initial, scoring each by the average occupancy probability
// of the transformed scan under grid, penalized by distance from the
// initial estimate (spec.md §4.4). points are robot-frame reflector or scan
// returns to be matched against the map.
func MatchScan(points []Point2D, grid *OccupancyGrid, initial Pose2D, cfg ScanMatchConfig) (ScanMatchResult, bool) {
	if len(points) == 0 || grid == nil {
		return ScanMatchResult{}, false
	}

	angularCandidates := searchAxis(cfg.AngularWindow, cfg.AngularStep)
	linearCandidates := searchAxis(cfg.LinearWindow, cfg.LinearStep)

	best := ScanMatchResult{Score: math.Inf(-1)}
	found := false

	for _, dtheta := range angularCandidates {
		candidateYaw := initial.Yaw + dtheta
		rotated := make([]Point2D, len(points))
		for i, p := range points {
			wx, wy := TransformPoint(p.X, p.Y, 0, 0, candidateYaw)
			rotated[i] = Point2D{X: wx, Y: wy}
		}

		for _, dx := range linearCandidates {
			for _, dy := range linearCandidates {
				offsetX := initial.X + dx
				offsetY := initial.Y + dy

				var sum float64
				for _, p := range rotated {
					sum += grid.At(p.X+offsetX, p.Y+offsetY)
				}
				score := sum / float64(len(rotated))

				linearMag := math.Hypot(dx, dy)
				penaltyArg := linearMag*cfg.WeightLinear + math.Abs(dtheta)*cfg.WeightAngular
				score *= math.Exp(-(penaltyArg * penaltyArg))

				if score > best.Score {
					best = ScanMatchResult{
						Pose:  Pose2D{X: offsetX, Y: offsetY, Yaw: NormalizeAngle(candidateYaw)},
						Score: score,
					}
					found = true
				}
			}
		}
	}

	return best, found
}

// searchAxis enumerates the candidate offsets in [-window, window] at the
// given step, as the Cartesian product construction of spec.md §4.4
// expects. A non-positive step or window collapses the axis to the single
// offset 0, so the search never hangs on a misconfigured step.
func searchAxis(window, step float64) []float64 {
	if step <= 0 || window <= 0 {
		return []float64{0}
	}
	var offsets []float64
	for v := -window; v <= window+1e-12; v += step {
		offsets = append(offsets, v)
	}
	return offsets
}
