package slam

import "testing"

func defaultCloudExtractorConfig() CloudExtractorConfig {
	return CloudExtractorConfig{
		IntensityMin:      160,
		OutlierNeighbors:  30,
		OutlierStdDevMult: 0.5,
		ClusterTolerance:  0.2,
		ClusterMinSize:    4,
		ClusterMaxSize:    160,
		Extrinsic:         Pose2D{X: 0.13686, Y: 0, Yaw: 0},
	}
}

func denseCluster(cx, cy, cz float64, n int, spacing float64, intensity float64) []CloudPoint {
	points := make([]CloudPoint, 0, n)
	for i := 0; i < n; i++ {
		points = append(points, CloudPoint{
			X:         cx + float64(i%3)*spacing,
			Y:         cy + float64((i/3)%3)*spacing,
			Z:         cz,
			Intensity: intensity,
		})
	}
	return points
}

func TestExtractReflectors3DFindsSingleCluster(t *testing.T) {
	cfg := defaultCloudExtractorConfig()
	points := denseCluster(1.0, 0.0, 0.0, 12, 0.02, 200)

	cloud := PointCloud{Points: points}
	centers, ok := ExtractReflectors3D(cloud, cfg)
	if !ok {
		t.Fatalf("ExtractReflectors3D() ok = false, want true")
	}
	if len(centers) != 1 {
		t.Fatalf("len(centers) = %d, want 1", len(centers))
	}
}

func TestExtractReflectors3DDimPointsAreIgnored(t *testing.T) {
	cfg := defaultCloudExtractorConfig()
	points := denseCluster(1.0, 0.0, 0.0, 12, 0.02, 100) // below intensity_min

	cloud := PointCloud{Points: points}
	centers, ok := ExtractReflectors3D(cloud, cfg)
	if ok || len(centers) != 0 {
		t.Errorf("ExtractReflectors3D() with dim-only cloud = (%v, %v), want (nil, false)", centers, ok)
	}
}

func TestExtractReflectors3DUndersizedClusterRejected(t *testing.T) {
	cfg := defaultCloudExtractorConfig()
	points := denseCluster(1.0, 0.0, 0.0, 2, 0.02, 200) // below ClusterMinSize

	cloud := PointCloud{Points: points}
	centers, _ := ExtractReflectors3D(cloud, cfg)
	if len(centers) != 0 {
		t.Errorf("len(centers) = %d, want 0 (cluster below min size)", len(centers))
	}
}

func TestExtractReflectors3DTwoSeparatedClusters(t *testing.T) {
	cfg := defaultCloudExtractorConfig()
	near := denseCluster(1.0, 0.0, 0.0, 6, 0.02, 200)
	far := denseCluster(3.0, 3.0, 0.0, 6, 0.02, 200)

	cloud := PointCloud{Points: append(near, far...)}
	centers, ok := ExtractReflectors3D(cloud, cfg)
	if !ok {
		t.Fatalf("ExtractReflectors3D() ok = false, want true")
	}
	if len(centers) != 2 {
		t.Fatalf("len(centers) = %d, want 2", len(centers))
	}
}

func TestExtractReflectors3DSeparatesClustersInZOnly(t *testing.T) {
	cfg := defaultCloudExtractorConfig()
	low := denseCluster(1.0, 0.0, 0.0, 6, 0.02, 200)
	high := denseCluster(1.0, 0.0, 3.0, 6, 0.02, 200) // same (x, y) footprint, separated only in z

	cloud := PointCloud{Points: append(low, high...)}
	centers, ok := ExtractReflectors3D(cloud, cfg)
	if !ok {
		t.Fatalf("ExtractReflectors3D() ok = false, want true")
	}
	if len(centers) != 2 {
		t.Fatalf("len(centers) = %d, want 2 (clusters separated only in z must not merge)", len(centers))
	}
}

func TestRemoveStatisticalOutliersDropsIsolatedPoint(t *testing.T) {
	dense := denseCluster(0.0, 0.0, 0.0, 40, 0.02, 200)
	outlier := CloudPoint{X: 50, Y: 50, Z: 50, Intensity: 200}
	points := append(dense, outlier)

	filtered := removeStatisticalOutliers(points, 30, 0.5)
	for _, p := range filtered {
		if p.X == outlier.X && p.Y == outlier.Y && p.Z == outlier.Z {
			t.Errorf("removeStatisticalOutliers() kept the far isolated point")
		}
	}
}
