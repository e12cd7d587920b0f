// Package poseestimation estimates the geodetic pose of a camera by matching its frames against
// an orthoimage with elevation.
package poseestimation

import (
	"context"
	"image"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"go.uber.org/atomic"
	"gonum.org/v1/gonum/num/quat"

	"github.com/deepuav/gisnav/logging"
	"github.com/deepuav/gisnav/rimage/transform"
	"github.com/deepuav/gisnav/sensorcache"
	"github.com/deepuav/gisnav/spatialmath"
	"github.com/deepuav/gisnav/utils"
)

// ErrCycleInFlight is returned by Estimate when another cycle has not finished yet.
var ErrCycleInFlight = errors.New("estimation cycle already in flight")

// Publisher receives every accepted estimate.
type Publisher interface {
	Publish(ctx context.Context, estimate GeoPoseEstimate) error
}

// Estimator runs the estimation pipeline against the latest cached inputs. At most one cycle is
// in flight at any time.
type Estimator struct {
	cfg       Config
	cache     *sensorcache.Cache
	matcher   Matcher
	publisher Publisher
	metrics   *Metrics
	logger    logging.Logger

	inFlight atomic.Bool
	workers  utils.StoppableWorkers
}

// NewEstimator returns an estimator. metrics may be nil.
func NewEstimator(
	cfg Config,
	cache *sensorcache.Cache,
	matcher Matcher,
	publisher Publisher,
	metrics *Metrics,
	logger logging.Logger,
) *Estimator {
	return &Estimator{
		cfg:       cfg,
		cache:     cache,
		matcher:   matcher,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		workers:   utils.NewStoppableWorkers(),
	}
}

// HandleFrame stores a new camera frame and starts a cycle for it in the background. The frame
// is dropped, not queued, while another cycle is in flight. It returns whether a cycle started.
func (e *Estimator) HandleFrame(frame image.Image) bool {
	e.cache.SetImage(frame)
	if !e.inFlight.CompareAndSwap(false, true) {
		e.metrics.ObserveDroppedFrame()
		e.logger.Debug("dropping frame, estimation cycle in flight")
		return false
	}
	started := e.workers.AddWorkers(func(ctx context.Context) {
		defer e.inFlight.Store(false)
		//nolint:errcheck
		e.cycle(ctx)
	})
	if !started {
		e.inFlight.Store(false)
	}
	return started
}

// Estimate runs one cycle synchronously and publishes its result.
func (e *Estimator) Estimate(ctx context.Context) (*GeoPoseEstimate, error) {
	if !e.inFlight.CompareAndSwap(false, true) {
		return nil, ErrCycleInFlight
	}
	defer e.inFlight.Store(false)
	return e.cycle(ctx)
}

// Close stops the background worker, waiting for an in-flight cycle to finish.
func (e *Estimator) Close() {
	e.workers.Stop()
}

func (e *Estimator) cycle(ctx context.Context) (*GeoPoseEstimate, error) {
	id := uuid.NewString()
	ctx, span := trace.StartSpan(ctx, "poseestimation::Estimate")
	defer span.End()
	span.AddAttributes(trace.StringAttribute("cycle", id))

	start := time.Now()
	estimate, err := e.run(ctx, id)
	outcome := Outcome(err)
	e.metrics.ObserveCycle(outcome)

	switch {
	case err == nil:
		e.logger.Infow("published pose estimate", "cycle", id, "duration", time.Since(start),
			"lat", estimate.Latitude, "lon", estimate.Longitude, "amsl", estimate.AltitudeAMSL, "agl", estimate.AltitudeAGL)
	case errors.Is(err, ErrGateRejected):
		e.logger.CDebugw(ctx, "skipping pose estimation", "cycle", id, "reason", err)
	default:
		span.SetStatus(trace.Status{Code: trace.StatusCodeUnknown, Message: err.Error()})
		e.logger.Warnw("pose estimation failed", "cycle", id, "outcome", outcome, "error", err)
	}
	return estimate, err
}

func (e *Estimator) run(ctx context.Context, id string) (*GeoPoseEstimate, error) {
	var gimbal *quat.Number
	if q, ok := e.cache.GimbalOrientation.Get(); ok {
		gimbal = &q
	}
	var altitude *sensorcache.Altitude
	if alt, ok := e.cache.Altitude.Get(); ok {
		altitude = &alt
	}
	if err := CheckGate(altitude, gimbal, e.cfg.MaxPitchDegrees, e.cfg.MinMatchAltitudeMeters); err != nil {
		return nil, err
	}

	frame, ok := e.cache.Image.Get()
	if !ok {
		return nil, errors.Wrap(ErrUnavailable, "camera frame")
	}
	tile, ok := e.cache.OrthoImage.Get()
	if !ok {
		return nil, errors.Wrap(ErrUnavailable, "orthoimage")
	}
	intrinsics, ok := e.cache.CameraIntrinsics.Get()
	if !ok {
		return nil, errors.Wrap(ErrUnavailable, "camera intrinsics")
	}
	terrainAltitude, ok := e.cache.TerrainAltitude.Get()
	if !ok {
		return nil, errors.Wrap(ErrUnavailable, "terrain altitude")
	}
	terrainGeoPoint, ok := e.cache.TerrainGeoPoint.Get()
	if !ok {
		return nil, errors.Wrap(ErrUnavailable, "terrain geopoint")
	}

	geotransform, err := transform.NewGeoTransform(tile.Width(), tile.Height(), tile.BoundingBox)
	if err != nil {
		return nil, err
	}

	_, preprocessSpan := trace.StartSpan(ctx, "poseestimation::Preprocess")
	inputs, alignment, err := Preprocess(frame, tile, intrinsics, gimbal)
	preprocessSpan.End()
	if err != nil {
		return nil, err
	}

	matchCtx, matchSpan := trace.StartSpan(ctx, "poseestimation::EstimatePose")
	matchStart := time.Now()
	pose, err := e.matcher.EstimatePose(matchCtx, inputs)
	e.metrics.ObserveMatcherDuration(time.Since(matchStart))
	matchSpan.End()
	if err != nil {
		return nil, err
	}
	if pose == nil || pose.Rotation == nil {
		return nil, errors.Wrap(ErrNoMatch, "matcher returned an empty pose")
	}

	deviation := DeviationDegrees(pose, *gimbal, alignment.YawDegrees)
	e.metrics.ObserveDeviation(deviation)
	if err := ValidityError(pose, *gimbal, alignment.YawDegrees, e.cfg.AttitudeDeviationThresholdDegrees); err != nil {
		return nil, err
	}

	estimate, err := Postprocess(pose, alignment, geotransform, terrainAltitude, terrainGeoPoint)
	if err != nil {
		return nil, err
	}
	estimate.Timestamp = time.Now()
	e.logger.CDebugw(ctx, "estimated pose", "cycle", id, "deviation_deg", deviation,
		"off_nadir_deg", spatialmath.OffNadirDegrees(estimate.Orientation))

	if e.publisher != nil {
		if err := e.publisher.Publish(ctx, *estimate); err != nil {
			return nil, errors.Wrap(err, "error publishing pose estimate")
		}
	}
	return estimate, nil
}
