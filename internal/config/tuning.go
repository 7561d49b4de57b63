// Package config loads the tunable parameters of the reflector EKF-SLAM
// estimator from a JSON file, layering partial overrides on top of
// built-in defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the canonical tuning defaults file, checked in at the
// repository root so a fresh checkout has a working configuration.
const DefaultConfigPath = "config/slam.defaults.json"

// TuningConfig is the root configuration for the estimator. Every field is
// optional (a nil pointer means "use the built-in default"); the Get*
// accessors resolve the effective value. Fields mirror the startup
// configuration contract of spec.md §6 plus the extraction/association
// tuning knobs of §4.1-4.3.
type TuningConfig struct {
	// Extraction (2-D scan), spec.md §4.1.
	RangeMin              *float64 `json:"range_min,omitempty"`
	RangeMax              *float64 `json:"range_max,omitempty"`
	IntensityMin          *float64 `json:"intensity_min,omitempty"`
	ReflectorMinLength    *float64 `json:"reflector_min_length,omitempty"`
	ReflectorLengthError  *float64 `json:"reflector_length_error,omitempty"`
	GapMaxIndices         *int     `json:"gap_max_indices,omitempty"`
	GapMaxRangeJump       *float64 `json:"gap_max_range_jump,omitempty"`

	// Extraction (3-D cloud), spec.md §4.2.
	OutlierNeighbors    *int     `json:"outlier_neighbors,omitempty"`
	OutlierStdDevMult   *float64 `json:"outlier_stddev_multiplier,omitempty"`
	ClusterTolerance    *float64 `json:"cluster_tolerance,omitempty"`
	ClusterMinSize      *int     `json:"cluster_min_size,omitempty"`
	ClusterMaxSize      *int     `json:"cluster_max_size,omitempty"`

	// Sensor extrinsic (x, y, yaw), spec.md §3.
	ExtrinsicX   *float64 `json:"extrinsic_x,omitempty"`
	ExtrinsicY   *float64 `json:"extrinsic_y,omitempty"`
	ExtrinsicYaw *float64 `json:"extrinsic_yaw,omitempty"`

	// Process and measurement noise (diagonal entries), spec.md §3.
	ProcessNoiseLinear  *float64 `json:"process_noise_linear,omitempty"`
	ProcessNoiseAngular *float64 `json:"process_noise_angular,omitempty"`
	MeasurementNoiseX   *float64 `json:"measurement_noise_x,omitempty"`
	MeasurementNoiseY   *float64 `json:"measurement_noise_y,omitempty"`

	// Association thresholds, spec.md §4.3.2 and §9.
	PriorMapAssociationThreshold *float64 `json:"prior_map_association_threshold,omitempty"`
	StateAssociationThreshold   *float64 `json:"state_association_threshold,omitempty"`

	// Startup pose and persistence, spec.md §6.
	StartX          *float64 `json:"start_x,omitempty"`
	StartY          *float64 `json:"start_y,omitempty"`
	StartYaw        *float64 `json:"start_yaw,omitempty"`
	MapPath         *string  `json:"map_path,omitempty"`
	Use3D           *bool    `json:"use_3d,omitempty"`
	DiagnosticDBPath *string `json:"diagnostic_db_path,omitempty"`

	// Correlative scan matcher, spec.md §4.4.
	ScanMatchLinearWindow  *float64 `json:"scan_match_linear_window,omitempty"`
	ScanMatchAngularWindow *float64 `json:"scan_match_angular_window,omitempty"`
	ScanMatchLinearStep    *float64 `json:"scan_match_linear_step,omitempty"`
	ScanMatchAngularStep   *float64 `json:"scan_match_angular_step,omitempty"`
	ScanMatchWeightLinear  *float64 `json:"scan_match_weight_linear,omitempty"`
	ScanMatchWeightAngular *float64 `json:"scan_match_weight_angular,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. Fields omitted
// from the file keep their built-in default, so partial override files are
// safe to check in per deployment site.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults file, searching from
// the current directory upward. Intended for test setup; panics on failure.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run from repository root")
}

// Validate checks internal consistency of any fields that were set.
func (c *TuningConfig) Validate() error {
	if c.RangeMin != nil && c.RangeMax != nil && *c.RangeMin >= *c.RangeMax {
		return fmt.Errorf("range_min (%f) must be less than range_max (%f)", *c.RangeMin, *c.RangeMax)
	}
	if c.ReflectorMinLength != nil && *c.ReflectorMinLength <= 0 {
		return fmt.Errorf("reflector_min_length must be positive, got %f", *c.ReflectorMinLength)
	}
	if c.ClusterMinSize != nil && c.ClusterMaxSize != nil && *c.ClusterMinSize > *c.ClusterMaxSize {
		return fmt.Errorf("cluster_min_size (%d) must not exceed cluster_max_size (%d)", *c.ClusterMinSize, *c.ClusterMaxSize)
	}
	if c.MapPath != nil && *c.MapPath == "" {
		return fmt.Errorf("map_path must not be empty when present")
	}
	return nil
}

// --- Get* accessors resolve the effective value, falling back to the
// defaults reproduced from the source estimator (spec.md §4.1-4.4, §8). ---

func (c *TuningConfig) GetRangeMin() float64 {
	if c.RangeMin == nil {
		return 0.3
	}
	return *c.RangeMin
}

func (c *TuningConfig) GetRangeMax() float64 {
	if c.RangeMax == nil {
		return 10.0
	}
	return *c.RangeMax
}

func (c *TuningConfig) GetIntensityMin() float64 {
	if c.IntensityMin == nil {
		return 160.0
	}
	return *c.IntensityMin
}

func (c *TuningConfig) GetReflectorMinLength() float64 {
	if c.ReflectorMinLength == nil {
		return 0.18
	}
	return *c.ReflectorMinLength
}

func (c *TuningConfig) GetReflectorLengthError() float64 {
	if c.ReflectorLengthError == nil {
		return 0.06
	}
	return *c.ReflectorLengthError
}

func (c *TuningConfig) GetGapMaxIndices() int {
	if c.GapMaxIndices == nil {
		return 4
	}
	return *c.GapMaxIndices
}

func (c *TuningConfig) GetGapMaxRangeJump() float64 {
	if c.GapMaxRangeJump == nil {
		return 0.3
	}
	return *c.GapMaxRangeJump
}

func (c *TuningConfig) GetOutlierNeighbors() int {
	if c.OutlierNeighbors == nil {
		return 30
	}
	return *c.OutlierNeighbors
}

func (c *TuningConfig) GetOutlierStdDevMult() float64 {
	if c.OutlierStdDevMult == nil {
		return 0.5
	}
	return *c.OutlierStdDevMult
}

func (c *TuningConfig) GetClusterTolerance() float64 {
	if c.ClusterTolerance == nil {
		return 0.2
	}
	return *c.ClusterTolerance
}

func (c *TuningConfig) GetClusterMinSize() int {
	if c.ClusterMinSize == nil {
		return 4
	}
	return *c.ClusterMinSize
}

func (c *TuningConfig) GetClusterMaxSize() int {
	if c.ClusterMaxSize == nil {
		return 160
	}
	return *c.ClusterMaxSize
}

func (c *TuningConfig) GetExtrinsicX() float64 {
	if c.ExtrinsicX == nil {
		return 0.13686
	}
	return *c.ExtrinsicX
}

func (c *TuningConfig) GetExtrinsicY() float64 {
	if c.ExtrinsicY == nil {
		return 0
	}
	return *c.ExtrinsicY
}

func (c *TuningConfig) GetExtrinsicYaw() float64 {
	if c.ExtrinsicYaw == nil {
		return 0
	}
	return *c.ExtrinsicYaw
}

func (c *TuningConfig) GetProcessNoiseLinear() float64 {
	if c.ProcessNoiseLinear == nil {
		return 0.05
	}
	return *c.ProcessNoiseLinear
}

func (c *TuningConfig) GetProcessNoiseAngular() float64 {
	if c.ProcessNoiseAngular == nil {
		return 0.068
	}
	return *c.ProcessNoiseAngular
}

func (c *TuningConfig) GetMeasurementNoiseX() float64 {
	if c.MeasurementNoiseX == nil {
		return 0.05
	}
	return *c.MeasurementNoiseX
}

func (c *TuningConfig) GetMeasurementNoiseY() float64 {
	if c.MeasurementNoiseY == nil {
		return 0.05
	}
	return *c.MeasurementNoiseY
}

func (c *TuningConfig) GetPriorMapAssociationThreshold() float64 {
	if c.PriorMapAssociationThreshold == nil {
		return 0.05
	}
	return *c.PriorMapAssociationThreshold
}

func (c *TuningConfig) GetStateAssociationThreshold() float64 {
	if c.StateAssociationThreshold == nil {
		return 0.6
	}
	return *c.StateAssociationThreshold
}

func (c *TuningConfig) GetStartX() float64 {
	if c.StartX == nil {
		return 0
	}
	return *c.StartX
}

func (c *TuningConfig) GetStartY() float64 {
	if c.StartY == nil {
		return 0
	}
	return *c.StartY
}

func (c *TuningConfig) GetStartYaw() float64 {
	if c.StartYaw == nil {
		return 0
	}
	return *c.StartYaw
}

func (c *TuningConfig) GetUse3D() bool {
	if c.Use3D == nil {
		return false
	}
	return *c.Use3D
}

func (c *TuningConfig) GetDiagnosticDBPath() string {
	if c.DiagnosticDBPath == nil {
		return ""
	}
	return *c.DiagnosticDBPath
}

func (c *TuningConfig) GetScanMatchLinearWindow() float64 {
	if c.ScanMatchLinearWindow == nil {
		return 0.5
	}
	return *c.ScanMatchLinearWindow
}

func (c *TuningConfig) GetScanMatchAngularWindow() float64 {
	if c.ScanMatchAngularWindow == nil {
		return 0.35
	}
	return *c.ScanMatchAngularWindow
}

func (c *TuningConfig) GetScanMatchLinearStep() float64 {
	if c.ScanMatchLinearStep == nil {
		return 0.05
	}
	return *c.ScanMatchLinearStep
}

func (c *TuningConfig) GetScanMatchAngularStep() float64 {
	if c.ScanMatchAngularStep == nil {
		return 0.01
	}
	return *c.ScanMatchAngularStep
}

func (c *TuningConfig) GetScanMatchWeightLinear() float64 {
	if c.ScanMatchWeightLinear == nil {
		return 1.0
	}
	return *c.ScanMatchWeightLinear
}

func (c *TuningConfig) GetScanMatchWeightAngular() float64 {
	if c.ScanMatchWeightAngular == nil {
		return 1.0
	}
	return *c.ScanMatchWeightAngular
}
