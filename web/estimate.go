package web

import (
	"context"
	"sync"

	"github.com/deepuav/gisnav/logging"
	"github.com/deepuav/gisnav/services/poseestimation"
)

// LatestEstimate is a poseestimation.Publisher that keeps the most recent estimate for the
// HTTP API.
type LatestEstimate struct {
	mu       sync.RWMutex
	estimate poseestimation.GeoPoseEstimate
	set      bool
	count    int

	logger logging.Logger
}

// NewLatestEstimate returns an empty LatestEstimate.
func NewLatestEstimate(logger logging.Logger) *LatestEstimate {
	return &LatestEstimate{logger: logger}
}

// Publish implements poseestimation.Publisher.
func (l *LatestEstimate) Publish(ctx context.Context, estimate poseestimation.GeoPoseEstimate) error {
	l.mu.Lock()
	l.estimate = estimate
	l.set = true
	l.count++
	count := l.count
	l.mu.Unlock()
	l.logger.CDebugw(ctx, "stored pose estimate", "count", count)
	return nil
}

// Get returns the most recent estimate and whether there is one.
func (l *LatestEstimate) Get() (poseestimation.GeoPoseEstimate, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.estimate, l.set
}
