package slam

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// CloudExtractorConfig holds the tunable parameters of the 3-D cloud
// reflector extractor, spec.md §4.2.
type CloudExtractorConfig struct {
	IntensityMin      float64
	OutlierNeighbors  int
	OutlierStdDevMult float64
	ClusterTolerance  float64
	ClusterMinSize    int
	ClusterMaxSize    int
	Extrinsic         Pose2D
}

// ExtractReflectors3D runs the intensity threshold, statistical outlier
// removal, and Euclidean clustering pipeline of spec.md §4.2, returning
// the centroid of each accepted cluster in the robot frame.
func ExtractReflectors3D(cloud PointCloud, cfg CloudExtractorConfig) ([]Point2D, bool) {
	bright := filterByIntensity(cloud.Points, cfg.IntensityMin)
	if len(bright) == 0 {
		return nil, false
	}

	filtered := removeStatisticalOutliers(bright, cfg.OutlierNeighbors, cfg.OutlierStdDevMult)
	if len(filtered) == 0 {
		return nil, false
	}

	clusters := euclideanCluster(filtered, cfg.ClusterTolerance, cfg.ClusterMinSize, cfg.ClusterMaxSize)
	if len(clusters) == 0 {
		return nil, false
	}

	centers := make([]Point2D, 0, len(clusters))
	for _, cluster := range clusters {
		var sumX, sumY float64
		for _, p := range cluster {
			sumX += p.X
			sumY += p.Y
		}
		meanX := sumX / float64(len(cluster))
		meanY := sumY / float64(len(cluster))
		baseX, baseY := ComposePose(meanX, meanY, cfg.Extrinsic)
		centers = append(centers, Point2D{X: baseX, Y: baseY})
	}
	return centers, true
}

func filterByIntensity(points []CloudPoint, intensityMin float64) []CloudPoint {
	out := make([]CloudPoint, 0, len(points))
	for _, p := range points {
		if p.Intensity > intensityMin {
			out = append(out, p)
		}
	}
	return out
}

// removeStatisticalOutliers discards points whose mean distance to their k
// nearest neighbors exceeds mean + stdDevMult*stddev over the whole cloud
// (spec.md §4.2: k=30, 0.5-sigma rejection multiplier).
func removeStatisticalOutliers(points []CloudPoint, k int, stdDevMult float64) []CloudPoint {
	n := len(points)
	if n <= k {
		return points
	}

	meanDist := make([]float64, n)
	for i, p := range points {
		dists := nearestDistances(points, i, k)
		meanDist[i] = stat.Mean(dists, nil)
	}

	globalMean := stat.Mean(meanDist, nil)
	globalStd := stat.StdDev(meanDist, nil)
	threshold := globalMean + stdDevMult*globalStd

	out := make([]CloudPoint, 0, n)
	for i, p := range points {
		if meanDist[i] <= threshold {
			out = append(out, p)
		}
	}
	return out
}

// nearestDistances returns the distances from points[idx] to its k nearest
// neighbors (3-D Euclidean), brute force. Cloud sizes after intensity
// filtering are small enough (reflector returns only) that an index is
// unnecessary.
func nearestDistances(points []CloudPoint, idx, k int) []float64 {
	p := points[idx]
	dists := make([]float64, 0, len(points)-1)
	for i, q := range points {
		if i == idx {
			continue
		}
		dx, dy, dz := q.X-p.X, q.Y-p.Y, q.Z-p.Z
		dists = append(dists, math.Sqrt(dx*dx+dy*dy+dz*dz))
	}
	sort.Float64s(dists)
	if len(dists) > k {
		dists = dists[:k]
	}
	return dists
}

// euclideanCluster groups points within `tolerance` of one another
// (connected-component clustering in full 3-D (x, y, z)), keeping only
// clusters whose size falls within [minSize, maxSize] (spec.md §4.2).
func euclideanCluster(points []CloudPoint, tolerance float64, minSize, maxSize int) [][]CloudPoint {
	n := len(points)
	visited := make([]bool, n)
	var clusters [][]CloudPoint
	tol2 := tolerance * tolerance

	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		// Breadth-first expansion of the connected component containing i.
		queue := []int{i}
		visited[i] = true
		var members []CloudPoint

		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			members = append(members, points[cur])

			for j := 0; j < n; j++ {
				if visited[j] {
					continue
				}
				dx := points[j].X - points[cur].X
				dy := points[j].Y - points[cur].Y
				dz := points[j].Z - points[cur].Z
				if dx*dx+dy*dy+dz*dz <= tol2 {
					visited[j] = true
					queue = append(queue, j)
				}
			}
		}

		if len(members) >= minSize && len(members) <= maxSize {
			clusters = append(clusters, members)
		}
	}
	return clusters
}
