package poseestimation

import (
	"gonum.org/v1/gonum/num/quat"

	"github.com/deepuav/gisnav/spatialmath"
)

// Frames used by the pipeline:
//
//	optical: image sensor axes, x right, y down, z along the optical axis.
//	gimbal:  front-right-down body frame of the gimbal, x along the optical axis.
//	NED:     north-east-down.
//	map:     pixel axes of a north-up orthoimage, x east, y south, z down.
//	aligned: map axes rotated by the camera yaw, which is also the matcher's world frame.
var (
	gimbalFromOptical = mustRotation(0, 0, 1, 1, 0, 0, 0, 1, 0)
	mapFromNED        = mustRotation(0, 1, 0, -1, 0, 0, 0, 0, 1)
	nedFromMap        = mapFromNED.Transpose()
)

func mustRotation(vals ...float64) *spatialmath.RotationMatrix {
	rm, err := spatialmath.NewRotationMatrix(vals)
	if err != nil {
		panic(err)
	}
	return rm
}

// alignedFromMap is the in-plane rotation applied to the orthoimage for a camera yaw in degrees.
func alignedFromMap(yawDeg float64) *spatialmath.RotationMatrix {
	return spatialmath.RotationAboutZ(yawDeg)
}

// predictedCameraRotation is the camera to matcher world rotation implied by the gimbal attitude
// when the orthoimage has been aligned to yawDeg.
func predictedCameraRotation(gimbal quat.Number, yawDeg float64) *spatialmath.RotationMatrix {
	nedFromGimbal := spatialmath.QuatToRotationMatrix(gimbal)
	return alignedFromMap(yawDeg).Mul(mapFromNED).Mul(nedFromGimbal).Mul(gimbalFromOptical)
}
