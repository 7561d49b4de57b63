package slam

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// PriorMap is the set of reflectors known before the session: fixed
// evidence for data association, never re-estimated (spec.md §3). It is
// immutable after Load.
type PriorMap struct {
	landmarks []Landmark
}

// NewPriorMap returns an empty prior map.
func NewPriorMap() *PriorMap {
	return &PriorMap{}
}

// Len returns the number of landmarks in the prior map.
func (m *PriorMap) Len() int {
	return len(m.landmarks)
}

// At returns the landmark at index j.
func (m *PriorMap) At(j int) Landmark {
	return m.landmarks[j]
}

// LoadPriorMap reads the two-line text format of spec.md §6:
//
//	line 1: x1,y1,x2,y2,...,xL,yL
//	line 2: sigma1_00,sigma1_01,sigma1_10,sigma1_11,sigma2_00,...
//
// A missing file is not an error: it is treated as an empty prior map, so a
// first-ever session can start with nothing to associate against. A
// present file with the wrong line count or mismatched lengths is fatal
// (spec.md §7).
func LoadPriorMap(path string) (*PriorMap, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewPriorMap(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read prior map %q: %w", path, err)
	}

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 2 {
		return nil, fmt.Errorf("prior map %q must have exactly 2 lines, got %d: %w", path, len(lines), ErrMalformedMap)
	}

	coords, err := parseFloatCSV(lines[0])
	if err != nil {
		return nil, fmt.Errorf("prior map %q: invalid coordinate line: %w", path, err)
	}
	covs, err := parseFloatCSV(lines[1])
	if err != nil {
		return nil, fmt.Errorf("prior map %q: invalid covariance line: %w", path, err)
	}

	if len(coords)%2 != 0 {
		return nil, fmt.Errorf("prior map %q: coordinate line has odd length %d: %w", path, len(coords), ErrMalformedMap)
	}
	numLandmarks := len(coords) / 2
	if len(covs) != 4*numLandmarks {
		return nil, fmt.Errorf("prior map %q: covariance line length %d inconsistent with %d landmarks (want %d): %w",
			path, len(covs), numLandmarks, 4*numLandmarks, ErrMalformedMap)
	}

	m := &PriorMap{landmarks: make([]Landmark, numLandmarks)}
	for i := 0; i < numLandmarks; i++ {
		m.landmarks[i] = Landmark{
			Position: Point2D{X: coords[2*i], Y: coords[2*i+1]},
			Covariance: Covariance2{
				covs[4*i], covs[4*i+1],
				covs[4*i+2], covs[4*i+3],
			},
		}
	}
	return m, nil
}

// SavePriorMapAndState writes the two-line output format of spec.md §6: each
// line is the concatenation of the prior map portion followed by the
// in-state landmark portion, so a follow-on session can use the output as
// its input.
func SavePriorMapAndState(path string, prior *PriorMap, state *State) error {
	var coordFields, covFields []string

	appendLandmark := func(pos Point2D, cov Covariance2) {
		coordFields = append(coordFields, formatFloat(pos.X), formatFloat(pos.Y))
		covFields = append(covFields,
			formatFloat(cov[0]), formatFloat(cov[1]), formatFloat(cov[2]), formatFloat(cov[3]))
	}

	for _, lm := range prior.landmarks {
		appendLandmark(lm.Position, lm.Covariance)
	}
	for j := 0; j < state.NumLandmarks(); j++ {
		appendLandmark(state.Landmark(j), state.LandmarkCovariance(j))
	}

	content := strings.Join(coordFields, ",") + "\n" + strings.Join(covFields, ",") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write prior map %q: %w", path, err)
	}
	return nil
}

func parseFloatCSV(line string) ([]float64, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}
	fields := strings.Split(line, ",")
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("field %d (%q): %w", i, f, err)
		}
		out[i] = v
	}
	return out, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
