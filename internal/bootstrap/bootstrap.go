// Package bootstrap wires the JSON tuning config into the domain types the
// slam package expects, keeping internal/slam decoupled from how its
// numbers were sourced.
package bootstrap

import (
	"github.com/banshee-data/reflector-slam/internal/config"
	"github.com/banshee-data/reflector-slam/internal/slam"
)

// StartPose returns the configured initial robot pose.
func StartPose(cfg *config.TuningConfig) slam.Pose2D {
	return slam.Pose2D{X: cfg.GetStartX(), Y: cfg.GetStartY(), Yaw: cfg.GetStartYaw()}
}

// EstimatorConfig translates a loaded TuningConfig into the estimator's
// runtime configuration.
func EstimatorConfig(cfg *config.TuningConfig) slam.EstimatorConfig {
	extrinsic := slam.Pose2D{X: cfg.GetExtrinsicX(), Y: cfg.GetExtrinsicY(), Yaw: cfg.GetExtrinsicYaw()}

	return slam.EstimatorConfig{
		Extractor2D: slam.ScanExtractorConfig{
			RangeMin:             cfg.GetRangeMin(),
			RangeMax:             cfg.GetRangeMax(),
			IntensityMin:         cfg.GetIntensityMin(),
			ReflectorMinLength:   cfg.GetReflectorMinLength(),
			ReflectorLengthError: cfg.GetReflectorLengthError(),
			GapMaxIndices:        cfg.GetGapMaxIndices(),
			GapMaxRangeJump:      cfg.GetGapMaxRangeJump(),
			Extrinsic:            extrinsic,
		},
		Extractor3D: slam.CloudExtractorConfig{
			IntensityMin:      cfg.GetIntensityMin(),
			OutlierNeighbors:  cfg.GetOutlierNeighbors(),
			OutlierStdDevMult: cfg.GetOutlierStdDevMult(),
			ClusterTolerance:  cfg.GetClusterTolerance(),
			ClusterMinSize:    cfg.GetClusterMinSize(),
			ClusterMaxSize:    cfg.GetClusterMaxSize(),
			Extrinsic:         extrinsic,
		},
		ProcessNoise:                 slam.ProcessNoise{Linear: cfg.GetProcessNoiseLinear(), Angular: cfg.GetProcessNoiseAngular()},
		MeasurementNoise:             slam.MeasurementNoise{X: cfg.GetMeasurementNoiseX(), Y: cfg.GetMeasurementNoiseY()},
		PriorMapAssociationThreshold: cfg.GetPriorMapAssociationThreshold(),
		StateAssociationThreshold:    cfg.GetStateAssociationThreshold(),
		Use3D:                        cfg.GetUse3D(),
	}
}

// ScanMatchConfig translates the tuning config's scan-match fields into the
// matcher's runtime configuration.
func ScanMatchConfig(cfg *config.TuningConfig) slam.ScanMatchConfig {
	return slam.ScanMatchConfig{
		LinearWindow:  cfg.GetScanMatchLinearWindow(),
		AngularWindow: cfg.GetScanMatchAngularWindow(),
		LinearStep:    cfg.GetScanMatchLinearStep(),
		AngularStep:   cfg.GetScanMatchAngularStep(),
		WeightLinear:  cfg.GetScanMatchWeightLinear(),
		WeightAngular: cfg.GetScanMatchWeightAngular(),
	}
}
