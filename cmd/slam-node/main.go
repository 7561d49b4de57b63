// Command slam-node runs the reflector EKF-SLAM estimator as a standalone
// process: it loads the tuning configuration and prior map, optionally
// ingests odometry from a serial port, and writes the combined prior map +
// final state back to disk on shutdown (spec.md §5-§6).
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/reflector-slam/internal/bootstrap"
	"github.com/banshee-data/reflector-slam/internal/config"
	"github.com/banshee-data/reflector-slam/internal/ingest"
	"github.com/banshee-data/reflector-slam/internal/monitoring"
	"github.com/banshee-data/reflector-slam/internal/slam"
	"github.com/banshee-data/reflector-slam/internal/store"
)

var (
	configPath   = flag.String("config", config.DefaultConfigPath, "path to JSON tuning configuration file")
	mapPath      = flag.String("map", "", "prior map file to load at startup and write at shutdown (required)")
	serialPort   = flag.String("serial-port", "", "serial device to read odometry telemetry from (optional)")
	serialBaud   = flag.Int("serial-baud", 115200, "baud rate for -serial-port")
	diagnosticDB = flag.String("diagnostic-db", "", "optional sqlite path for a diagnostic pose/landmark log")
)

func main() {
	flag.Parse()

	if *mapPath == "" {
		log.Fatalf("slam-node: %v", slam.ErrMissingMapPath)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("slam-node: loading config: %v", err)
	}

	prior, err := slam.LoadPriorMap(*mapPath)
	if err != nil {
		log.Fatalf("slam-node: loading prior map: %v", err)
	}
	monitoring.Logf("slam-node: loaded %d prior-map landmarks from %s", prior.Len(), *mapPath)

	broadcaster := slam.NewOutputBroadcaster()
	estimator := slam.NewEstimator(bootstrap.StartPose(cfg), prior, bootstrap.EstimatorConfig(cfg), broadcaster)

	var diagnostics *store.DiagnosticStore
	dbPath := cfg.GetDiagnosticDBPath()
	if *diagnosticDB != "" {
		dbPath = *diagnosticDB
	}
	if dbPath != "" {
		diagnostics, err = store.Open(dbPath)
		if err != nil {
			log.Fatalf("slam-node: opening diagnostic store: %v", err)
		}
		defer diagnostics.Close()
		go recordDiagnostics(diagnostics, broadcaster)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inputs := make(chan slam.Input, 64)

	if *serialPort != "" {
		port, err := ingest.OpenOdometryPort(*serialPort, *serialBaud)
		if err != nil {
			log.Fatalf("slam-node: opening odometry serial port: %v", err)
		}
		defer port.Close()
		go func() {
			if err := port.Monitor(ctx, inputs); err != nil {
				monitoring.Logf("slam-node: odometry port monitor stopped: %v", err)
			}
		}()
	}

	runErr := estimator.Run(ctx, inputs)
	if runErr != nil && ctx.Err() == nil {
		monitoring.Logf("slam-node: estimator stopped: %v", runErr)
	}

	if err := slam.SavePriorMapAndState(*mapPath, prior, estimator.State()); err != nil {
		log.Fatalf("slam-node: writing final state to %s: %v", *mapPath, err)
	}
	monitoring.Logf("slam-node: wrote final state (%d landmarks) to %s", estimator.State().NumLandmarks(), *mapPath)
}

func loadConfig(path string) (*config.TuningConfig, error) {
	if path == "" {
		return config.EmptyTuningConfig(), nil
	}
	return config.LoadTuningConfig(path)
}

// recordDiagnostics mirrors pose and landmark publications into the
// diagnostic store for as long as the broadcaster delivers them.
func recordDiagnostics(diagnostics *store.DiagnosticStore, broadcaster *slam.OutputBroadcaster) {
	poses := broadcaster.SubscribePose()
	markers := broadcaster.SubscribeMarkers()
	ctx := context.Background()

	for {
		select {
		case pose, ok := <-poses:
			if !ok {
				return
			}
			if err := diagnostics.RecordPose(ctx, time.Now(), pose); err != nil {
				monitoring.Logf("slam-node: diagnostic pose write failed: %v", err)
			}
		case m, ok := <-markers:
			if !ok {
				return
			}
			if err := diagnostics.RecordLandmarkSnapshot(ctx, time.Now(), m); err != nil {
				monitoring.Logf("slam-node: diagnostic landmark write failed: %v", err)
			}
		}
	}
}
