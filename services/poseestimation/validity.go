package poseestimation

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"github.com/deepuav/gisnav/spatialmath"
	"github.com/deepuav/gisnav/utils"
)

// DeviationDegrees returns the angle between the estimated camera attitude and the one implied by
// the gimbal orientation, after the orthoimage was aligned to cameraYawDeg.
func DeviationDegrees(pose *PoseEstimate, gimbal quat.Number, cameraYawDeg float64) float64 {
	predicted := predictedCameraRotation(gimbal, cameraYawDeg)
	return utils.RadToDeg(spatialmath.AngleBetween(pose.Rotation, predicted))
}

// IsValid reports whether the estimated attitude is within thresholdDeg of the gimbal attitude.
// Matches taken while the gimbal is moving may be rejected along with spurious ones.
func IsValid(pose *PoseEstimate, gimbal quat.Number, cameraYawDeg, thresholdDeg float64) bool {
	return ValidityError(pose, gimbal, cameraYawDeg, thresholdDeg) == nil
}

// ValidityError is IsValid with the measured deviation in the error.
func ValidityError(pose *PoseEstimate, gimbal quat.Number, cameraYawDeg, thresholdDeg float64) error {
	if pose == nil || pose.Rotation == nil {
		return errors.Wrap(ErrValidationRejected, "no rotation estimate")
	}
	deviation := DeviationDegrees(pose, gimbal, cameraYawDeg)
	if math.IsNaN(deviation) || deviation > thresholdDeg {
		return errors.Wrapf(ErrValidationRejected, "attitude deviates %.1f° from the gimbal, max is %.1f°", deviation, thresholdDeg)
	}
	return nil
}
