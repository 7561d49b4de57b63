package slam

import "sync"

// OutputBroadcaster fans the estimator's three output streams (spec.md §6:
// pose-with-covariance, landmark markers, path poses) out to any number of
// subscribers without blocking the estimator actor on a slow consumer.
// Subscribers that fall behind simply miss intermediate updates rather than
// stalling the filter, mirroring the teacher's channel-based publisher.
type OutputBroadcaster struct {
	mu         sync.Mutex
	poseSubs   []chan PoseWithCovariance
	markerSubs []chan []LandmarkMarker
	pathSubs   []chan Pose2D
}

// NewOutputBroadcaster returns an idle broadcaster with no subscribers.
func NewOutputBroadcaster() *OutputBroadcaster {
	return &OutputBroadcaster{}
}

// SubscribePose registers a new pose-with-covariance subscriber and returns
// its receive channel, buffered so a single missed tick does not block the
// estimator.
func (b *OutputBroadcaster) SubscribePose() <-chan PoseWithCovariance {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan PoseWithCovariance, 1)
	b.poseSubs = append(b.poseSubs, ch)
	return ch
}

// SubscribeMarkers registers a new landmark-marker subscriber.
func (b *OutputBroadcaster) SubscribeMarkers() <-chan []LandmarkMarker {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan []LandmarkMarker, 1)
	b.markerSubs = append(b.markerSubs, ch)
	return ch
}

// SubscribePath registers a new path-pose subscriber.
func (b *OutputBroadcaster) SubscribePath() <-chan Pose2D {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Pose2D, 1)
	b.pathSubs = append(b.pathSubs, ch)
	return ch
}

// PublishPose broadcasts a pose-with-covariance update to all subscribers,
// dropping it for any subscriber whose buffer is still full rather than
// blocking.
func (b *OutputBroadcaster) PublishPose(p PoseWithCovariance) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.poseSubs {
		select {
		case ch <- p:
		default:
		}
	}
}

// PublishMarkers broadcasts the current landmark marker set.
func (b *OutputBroadcaster) PublishMarkers(markers []LandmarkMarker) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.markerSubs {
		select {
		case ch <- markers:
		default:
		}
	}
}

// PublishPath appends one pose to the monotonic path stream.
func (b *OutputBroadcaster) PublishPath(p Pose2D) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.pathSubs {
		select {
		case ch <- p:
		default:
		}
	}
}
