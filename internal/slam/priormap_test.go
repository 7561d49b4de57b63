package slam

import (
	"math"
	"path/filepath"
	"testing"
)

func TestLoadPriorMapMissingFileIsEmpty(t *testing.T) {
	m, err := LoadPriorMap(filepath.Join(t.TempDir(), "does-not-exist.txt"))
	if err != nil {
		t.Fatalf("LoadPriorMap() error = %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}

func TestLoadPriorMapRejectsWrongLineCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.txt")
	writeFile(t, path, "1,2\n")

	if _, err := LoadPriorMap(path); err == nil {
		t.Error("LoadPriorMap() expected error for a single-line file")
	}
}

func TestLoadPriorMapRejectsInconsistentLengths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.txt")
	// Two landmarks of coordinates but only one landmark's worth of covariance.
	writeFile(t, path, "1,2,3,4\n1,0,0,1\n")

	if _, err := LoadPriorMap(path); err == nil {
		t.Error("LoadPriorMap() expected error for mismatched coordinate/covariance lengths")
	}
}

func TestPriorMapRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.txt")
	writeFile(t, path, "2.137,0,0,3\n0.0001,0,0,0.0001,0.0002,0,0,0.0002\n")

	m, err := LoadPriorMap(path)
	if err != nil {
		t.Fatalf("LoadPriorMap() error = %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}

	state := NewState(Pose2D{})
	out := filepath.Join(t.TempDir(), "out.txt")
	if err := SavePriorMapAndState(out, m, state); err != nil {
		t.Fatalf("SavePriorMapAndState() error = %v", err)
	}

	roundTripped, err := LoadPriorMap(out)
	if err != nil {
		t.Fatalf("LoadPriorMap(round-tripped) error = %v", err)
	}
	if roundTripped.Len() != m.Len() {
		t.Fatalf("round-tripped Len() = %d, want %d", roundTripped.Len(), m.Len())
	}
	for i := 0; i < m.Len(); i++ {
		want, got := m.At(i), roundTripped.At(i)
		if math.Abs(want.Position.X-got.Position.X) > 1e-9 || math.Abs(want.Position.Y-got.Position.Y) > 1e-9 {
			t.Errorf("landmark %d position = %+v, want %+v", i, got.Position, want.Position)
		}
		for k := range want.Covariance {
			if math.Abs(want.Covariance[k]-got.Covariance[k]) > 1e-9 {
				t.Errorf("landmark %d covariance[%d] = %f, want %f", i, k, got.Covariance[k], want.Covariance[k])
			}
		}
	}
}

func TestSavePriorMapAndStateConcatenatesPriorAndState(t *testing.T) {
	prior, err := LoadPriorMap(writeTempMap(t, "1,1\n0.1,0,0,0.1\n"))
	if err != nil {
		t.Fatalf("LoadPriorMap() error = %v", err)
	}

	state := NewState(Pose2D{})
	out := filepath.Join(t.TempDir(), "combined.txt")
	if err := SavePriorMapAndState(out, prior, state); err != nil {
		t.Fatalf("SavePriorMapAndState() error = %v", err)
	}

	combined, err := LoadPriorMap(out)
	if err != nil {
		t.Fatalf("LoadPriorMap(combined) error = %v", err)
	}
	// State carries no landmarks yet, so the combined map equals the prior map.
	if combined.Len() != 1 {
		t.Fatalf("combined.Len() = %d, want 1 (prior only, no session landmarks)", combined.Len())
	}
}

func writeTempMap(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "map.txt")
	writeFile(t, path, content)
	return path
}
