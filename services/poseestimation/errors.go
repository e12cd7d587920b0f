package poseestimation

import (
	"github.com/pkg/errors"

	"github.com/deepuav/gisnav/rimage"
	"github.com/deepuav/gisnav/rimage/transform"
)

// Every estimation cycle that does not publish ends with one of these errors, wrapped with
// context. None of them is fatal; the next camera frame starts a new cycle.
var (
	// ErrUnavailable means a required input is missing or stale.
	ErrUnavailable = errors.New("required input unavailable")
	// ErrGateRejected means the camera pitch or the vehicle altitude is outside of the policy.
	ErrGateRejected = errors.New("pose estimation gate rejected")
	// ErrShapeMismatch means a raster has zero size or rasters disagree on size.
	ErrShapeMismatch = rimage.ErrShapeMismatch
	// ErrDegenerateGeometry means the orthoimage bounding box or raster has no area.
	ErrDegenerateGeometry = transform.ErrDegenerateGeometry
	// ErrServiceUnavailable means the matcher could not be reached, timed out or answered
	// with a non-success status.
	ErrServiceUnavailable = errors.New("matcher service unavailable")
	// ErrNoMatch means the matcher answered without a usable rotation and translation.
	ErrNoMatch = errors.New("matcher returned no match")
	// ErrValidationRejected means the estimated attitude deviates too much from the gimbal's.
	ErrValidationRejected = errors.New("pose estimate rejected")
	// ErrNonInvertible means a transform needed by post-processing is singular.
	ErrNonInvertible = transform.ErrNonInvertible
)

// Outcome labels.
const (
	OutcomePublished          = "published"
	OutcomeUnavailable        = "unavailable"
	OutcomeGateRejected       = "gate_rejected"
	OutcomeShapeMismatch      = "shape_mismatch"
	OutcomeDegenerateGeometry = "degenerate_geometry"
	OutcomeServiceUnavailable = "service_unavailable"
	OutcomeNoMatch            = "no_match"
	OutcomeValidationRejected = "validation_rejected"
	OutcomeNonInvertible      = "non_invertible"
	OutcomeError              = "error"
)

var outcomes = []struct {
	err   error
	label string
}{
	{ErrUnavailable, OutcomeUnavailable},
	{ErrGateRejected, OutcomeGateRejected},
	{ErrShapeMismatch, OutcomeShapeMismatch},
	{ErrDegenerateGeometry, OutcomeDegenerateGeometry},
	{ErrServiceUnavailable, OutcomeServiceUnavailable},
	{ErrNoMatch, OutcomeNoMatch},
	{ErrValidationRejected, OutcomeValidationRejected},
	{ErrNonInvertible, OutcomeNonInvertible},
}

// Outcome classifies the result of a cycle for logs and metrics.
func Outcome(err error) string {
	if err == nil {
		return OutcomePublished
	}
	for _, o := range outcomes {
		if errors.Is(err, o.err) {
			return o.label
		}
	}
	return OutcomeError
}
