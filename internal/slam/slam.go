package slam

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/banshee-data/reflector-slam/internal/monitoring"
)

// EstimatorConfig holds the tuning values the Estimator needs at runtime,
// decoupled from the JSON config loader so the filter has no dependency on
// how its numbers were sourced.
type EstimatorConfig struct {
	Extractor2D                  ScanExtractorConfig
	Extractor3D                  CloudExtractorConfig
	ProcessNoise                 ProcessNoise
	MeasurementNoise             MeasurementNoise
	PriorMapAssociationThreshold float64
	StateAssociationThreshold    float64
	Use3D                        bool
}

// Estimator is the single-threaded actor owning the filter state: the only
// component in the system permitted to mutate mu, Sigma, or the prior map
// (spec.md §5). It processes inputs strictly one at a time and advances its
// own logical clock from message timestamps.
type Estimator struct {
	state       *State
	prior       *PriorMap
	config      EstimatorConfig
	broadcaster *OutputBroadcaster

	clock        time.Time
	lastLinear   float64
	lastAngular  float64
	clockStarted bool
}

// NewEstimator creates an estimator at the configured start pose, holding a
// reference to the (read-only after load) prior map.
func NewEstimator(start Pose2D, prior *PriorMap, cfg EstimatorConfig, broadcaster *OutputBroadcaster) *Estimator {
	if prior == nil {
		prior = NewPriorMap()
	}
	if broadcaster == nil {
		broadcaster = NewOutputBroadcaster()
	}
	return &Estimator{
		state:       NewState(start),
		prior:       prior,
		config:      cfg,
		broadcaster: broadcaster,
	}
}

// State returns the current filter state, for snapshotting (visualization,
// shutdown dump). Callers must treat the returned pointer as read-only;
// the estimator owns all mutation.
func (e *Estimator) State() *State {
	return e.state
}

// PriorMap returns the estimator's prior map, for use when writing the
// combined shutdown output (spec.md §6).
func (e *Estimator) PriorMap() *PriorMap {
	return e.prior
}

// AddOdometry advances the filter to the odometry timestamp using the
// previously held velocity, then records the new velocity for use by the
// next predict. Odometry at or before the current filter clock is dropped
// (spec.md §5, monotonic clock guard) — recovered locally, not fatal.
func (e *Estimator) AddOdometry(o Odometry) {
	if e.clockStarted && !o.Time.After(e.clock) {
		monitoring.Logf("slam: dropping odometry at or before filter clock (t=%s, clock=%s)", o.Time, e.clock)
		return
	}

	if e.clockStarted {
		dt := o.Time.Sub(e.clock).Seconds()
		Predict(e.state, e.lastLinear, e.lastAngular, dt, e.config.ProcessNoise)
	}
	e.clock = o.Time
	e.clockStarted = true
	e.lastLinear = o.Linear
	e.lastAngular = o.Angular
}

// AddScan processes one laser scan: predicts to its timestamp, extracts
// reflectors, associates and updates, augments for any new landmarks, and
// publishes the refreshed outputs. A malformed scan is a fatal error
// (spec.md §7); an empty extraction is recovered locally.
func (e *Estimator) AddScan(scan LaserScan) error {
	if err := validateScanBounds(scan); err != nil {
		return err
	}

	e.predictTo(scan.Time)

	centers, ok := ExtractReflectors2D(scan, e.config.Extractor2D)
	if !ok {
		monitoring.Logf("slam: scan at %s produced no reflector observations, skipping update", scan.Time)
		e.publish()
		return nil
	}

	e.processObservations(centers)
	return nil
}

// AddCloud processes one point cloud the same way AddScan processes a
// laser scan, via the 3-D extractor.
func (e *Estimator) AddCloud(cloud PointCloud) error {
	e.predictTo(cloud.Time)

	centers, ok := ExtractReflectors3D(cloud, e.config.Extractor3D)
	if !ok {
		monitoring.Logf("slam: cloud at %s produced no reflector observations, skipping update", cloud.Time)
		e.publish()
		return nil
	}

	e.processObservations(centers)
	return nil
}

// predictTo advances the filter clock to t using the currently held
// velocity. Per spec.md §5, scan/cloud messages are always processed: no
// monotonic check is performed here, only for odometry.
func (e *Estimator) predictTo(t time.Time) {
	if !e.clockStarted {
		e.clock = t
		e.clockStarted = true
		return
	}
	dt := t.Sub(e.clock).Seconds()
	Predict(e.state, e.lastLinear, e.lastAngular, dt, e.config.ProcessNoise)
	e.clock = t
}

// processObservations runs association, batch update, and augmentation for
// one tick's worth of observation centers (spec.md §4.3.2-§4.3.4), then
// publishes the refreshed outputs.
func (e *Estimator) processObservations(centers []Point2D) {
	associations := AssociateObservations(centers, e.state, e.prior,
		e.config.PriorMapAssociationThreshold, e.config.StateAssociationThreshold)

	var matches []Match
	var newObservations []Point2D

	for _, a := range associations {
		obs := centers[a.ObservationIndex]
		switch a.Kind {
		case AssociationPriorMap:
			lm := e.prior.At(a.PriorMapIndex)
			matches = append(matches, Match{Observation: obs, LandmarkPos: lm.Position, InState: false})
		case AssociationState:
			lm := e.state.Landmark(a.StateIndex)
			matches = append(matches, Match{Observation: obs, LandmarkPos: lm, InState: true, StateIndex: a.StateIndex})
		default:
			newObservations = append(newObservations, obs)
		}
	}

	if len(matches) == 0 {
		monitoring.Logf("slam: no matches this tick, augmenting directly")
	} else if err := Update(e.state, matches, e.config.MeasurementNoise); err != nil {
		monitoring.Logf("slam: update warning: %v", err)
	}

	if len(newObservations) > 0 {
		Augment(e.state, newObservations, e.config.MeasurementNoise)
	}

	e.publish()
}

// publish snapshots the current state and pushes it to all three output
// streams (spec.md §6).
func (e *Estimator) publish() {
	pose := e.state.Pose()
	e.broadcaster.PublishPose(PoseWithCovariance{Pose: pose, Covariance: e.state.PoseCovariance()})
	e.broadcaster.PublishPath(pose)

	markers := make([]LandmarkMarker, 0, e.state.NumLandmarks())
	for j := 0; j < e.state.NumLandmarks(); j++ {
		markers = append(markers, LandmarkMarkerFor(e.state.Landmark(j), e.state.LandmarkCovariance(j)))
	}
	e.broadcaster.PublishMarkers(markers)
}

// validateScanBounds rejects a scan whose angular or range bounds are
// inconsistent, a fatal condition per spec.md §7.
func validateScanBounds(scan LaserScan) error {
	if !(scan.AngleMin < scan.AngleMax) {
		return fmt.Errorf("%w: angle_min %v >= angle_max %v", ErrMalformedScan, scan.AngleMin, scan.AngleMax)
	}
	if !(scan.RangeMin < scan.RangeMax) || scan.RangeMin < 0 {
		return fmt.Errorf("%w: range_min %v, range_max %v", ErrMalformedScan, scan.RangeMin, scan.RangeMax)
	}
	if len(scan.Ranges) != len(scan.Intensities) {
		return fmt.Errorf("%w: ranges length %d != intensities length %d", ErrMalformedScan, len(scan.Ranges), len(scan.Intensities))
	}
	if math.IsNaN(scan.AngleIncrement) || scan.AngleIncrement == 0 {
		return fmt.Errorf("%w: angle_increment is zero or NaN", ErrMalformedScan)
	}
	return nil
}

// Run drains an ordered input stream, dispatching each message to the
// matching Add method, until ctx is cancelled or the channel closes
// (spec.md §5: single-threaded, one callback run to completion before the
// next). Fatal errors stop the loop; all others are already handled
// locally by the Add methods.
func (e *Estimator) Run(ctx context.Context, inputs <-chan Input) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-inputs:
			if !ok {
				return nil
			}
			if err := e.dispatch(msg); err != nil {
				return err
			}
		}
	}
}

// Input is the union of messages the estimator actor accepts from the
// external bus (spec.md §6).
type Input struct {
	Odometry *Odometry
	Scan     *LaserScan
	Cloud    *PointCloud
}

func (e *Estimator) dispatch(msg Input) error {
	switch {
	case msg.Odometry != nil:
		e.AddOdometry(*msg.Odometry)
		return nil
	case msg.Scan != nil:
		return e.AddScan(*msg.Scan)
	case msg.Cloud != nil:
		return e.AddCloud(*msg.Cloud)
	default:
		return nil
	}
}
