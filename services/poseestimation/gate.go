package poseestimation

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"github.com/deepuav/gisnav/sensorcache"
	"github.com/deepuav/gisnav/spatialmath"
)

// ShouldEstimate reports whether a match should be attempted with the current attitude and
// altitude. A nil argument means the input is not available.
func ShouldEstimate(altitude *sensorcache.Altitude, gimbal *quat.Number, maxPitchDeg, minAltitudeM float64) bool {
	return CheckGate(altitude, gimbal, maxPitchDeg, minAltitudeM) == nil
}

// CheckGate is ShouldEstimate with the reason for rejection. NaN thresholds reject.
func CheckGate(altitude *sensorcache.Altitude, gimbal *quat.Number, maxPitchDeg, minAltitudeM float64) error {
	if gimbal == nil || !spatialmath.IsFiniteQuaternion(*gimbal) {
		return errors.Wrap(ErrUnavailable, "gimbal orientation")
	}
	if offNadir := spatialmath.OffNadirDegrees(*gimbal); !(offNadir <= maxPitchDeg) {
		return errors.Wrapf(ErrGateRejected, "camera is %.1f° off nadir, max is %.1f°", offNadir, maxPitchDeg)
	}
	if altitude == nil || math.IsNaN(altitude.Terrain) {
		return errors.Wrap(ErrUnavailable, "terrain altitude")
	}
	if !(altitude.Terrain >= minAltitudeM) {
		return errors.Wrapf(ErrGateRejected, "altitude %.1f m is below the minimum of %.1f m", altitude.Terrain, minAltitudeM)
	}
	return nil
}
