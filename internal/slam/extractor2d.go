package slam

import "math"

// ScanExtractorConfig holds the tunable parameters of the 2-D reflector
// extractor, spec.md §4.1.
type ScanExtractorConfig struct {
	RangeMin             float64
	RangeMax             float64
	IntensityMin         float64
	ReflectorMinLength   float64
	ReflectorLengthError float64
	GapMaxIndices        int
	GapMaxRangeJump      float64
	Extrinsic            Pose2D
}

// beam is one reconstructed return from the scan grid: its index, angle and
// range. Bright returns and dim returns absorbed across a bridged gap are
// stored alike.
type beam struct {
	index int
	angle float64
	rng   float64
}

// ExtractReflectors2D scans a laser scan left to right, groups runs of
// candidate-bright returns (with gap bridging per spec.md §4.1), validates
// each run's chord length, and returns the accepted reflector centers in
// the robot frame. The boolean return reports whether any reflector was
// found.
func ExtractReflectors2D(scan LaserScan, cfg ScanExtractorConfig) ([]Point2D, bool) {
	n := len(scan.Ranges)
	if n == 0 || len(scan.Intensities) != n {
		return nil, false
	}

	bright := make([]bool, n)
	for i := 0; i < n; i++ {
		bright[i] = isCandidateBright(scan.Ranges[i], scan.Intensities[i], cfg)
	}

	angleAt := func(i int) float64 {
		return scan.AngleMin + float64(i)*scan.AngleIncrement
	}

	var centers []Point2D
	var run []beam
	i := 0
	for i < n {
		if !bright[i] {
			i++
			continue
		}

		// Start (or continue) a run at i.
		run = run[:0]
		run = append(run, beam{index: i, angle: angleAt(i), rng: scan.Ranges[i]})
		j := i + 1

		for j < n {
			if bright[j] {
				run = append(run, beam{index: j, angle: angleAt(j), rng: scan.Ranges[j]})
				j++
				continue
			}

			// Dim return at j: look for a bridgeable gap.
			gapEnd, ok := findBridgeEnd(scan, bright, j, cfg)
			if !ok {
				break
			}
			for k := j; k <= gapEnd; k++ {
				if !math.IsInf(scan.Ranges[k], 0) && !math.IsNaN(scan.Ranges[k]) {
					run = append(run, beam{index: k, angle: angleAt(k), rng: scan.Ranges[k]})
				}
			}
			j = gapEnd + 1
		}

		if center, accepted := finalizeRun(run, cfg); accepted {
			centers = append(centers, center)
		}
		i = j
	}

	return centers, len(centers) > 0
}

// isCandidateBright reports whether a return is bright and at a usable
// range, per spec.md §4.1.
func isCandidateBright(rng, intensity float64, cfg ScanExtractorConfig) bool {
	if math.IsNaN(rng) || math.IsInf(rng, 0) {
		return false
	}
	return rng >= cfg.RangeMin && rng <= cfg.RangeMax && intensity > cfg.IntensityMin
}

// findBridgeEnd looks ahead from the first dim index `start` for a short
// dim interval that is immediately followed by a bright return, with the
// range jump across the gap under the configured tolerance. It returns the
// index of the last dim return in the gap (inclusive) and whether the
// bridge is accepted.
func findBridgeEnd(scan LaserScan, bright []bool, start int, cfg ScanExtractorConfig) (int, bool) {
	n := len(scan.Ranges)
	end := start
	for end < n && !bright[end] {
		end++
		if end-start >= cfg.GapMaxIndices {
			return 0, false
		}
	}
	if end >= n {
		return 0, false
	}
	// end now indexes the first bright return after the gap.
	beforeGap := scan.Ranges[start-1]
	afterGap := scan.Ranges[end]
	if math.Abs(afterGap-beforeGap) >= cfg.GapMaxRangeJump {
		return 0, false
	}
	return end - 1, true
}

// finalizeRun validates a closed run's chord length and computes its
// robot-frame center.
func finalizeRun(run []beam, cfg ScanExtractorConfig) (Point2D, bool) {
	if len(run) == 0 {
		return Point2D{}, false
	}

	first := run[0]
	last := run[len(run)-1]
	fx, fy := polarToCartesian(first.rng, first.angle)
	lx, ly := polarToCartesian(last.rng, last.angle)
	chord := ChordLength(fx, fy, lx, ly)

	if math.Abs(chord-cfg.ReflectorMinLength) >= cfg.ReflectorLengthError {
		return Point2D{}, false
	}

	var sumX, sumY float64
	for _, b := range run {
		x, y := polarToCartesian(b.rng, b.angle)
		sumX += x
		sumY += y
	}
	meanX := sumX / float64(len(run))
	meanY := sumY / float64(len(run))

	baseX, baseY := ComposePose(meanX, meanY, cfg.Extrinsic)
	return Point2D{X: baseX, Y: baseY}, true
}

func polarToCartesian(rng, angle float64) (x, y float64) {
	return rng * math.Cos(angle), rng * math.Sin(angle)
}
