package poseestimation

import (
	"image"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"github.com/deepuav/gisnav/rimage"
	"github.com/deepuav/gisnav/rimage/transform"
	"github.com/deepuav/gisnav/spatialmath"
)

// MatchInputs is everything the matcher needs for one frame. The reference image and the
// elevation raster are aligned to the camera yaw and have the frame's size.
type MatchInputs struct {
	Query      image.Image
	Reference  image.Image
	Elevation  *rimage.ElevationMap
	Intrinsics *transform.CameraIntrinsics
}

// Preprocess rotates the orthoimage tile so that the camera heading points up, crops it to the
// size of the camera frame and returns the inputs for the matcher together with the alignment
// that was applied.
func Preprocess(
	frame image.Image,
	tile *rimage.OrthoImageTile,
	intrinsics *transform.CameraIntrinsics,
	gimbal *quat.Number,
) (*MatchInputs, *transform.AffineAlignment, error) {
	switch {
	case frame == nil:
		return nil, nil, errors.Wrap(ErrUnavailable, "camera frame")
	case tile == nil || tile.ImageWithElevation == nil:
		return nil, nil, errors.Wrap(ErrUnavailable, "orthoimage")
	case intrinsics == nil:
		return nil, nil, errors.Wrap(ErrUnavailable, "camera intrinsics")
	case gimbal == nil:
		return nil, nil, errors.Wrap(ErrUnavailable, "gimbal orientation")
	}

	width, height := frame.Bounds().Dx(), frame.Bounds().Dy()
	if width == 0 || height == 0 {
		return nil, nil, errors.Wrapf(ErrShapeMismatch, "camera frame has size (%d, %d)", width, height)
	}
	if tile.Width() == 0 || tile.Height() == 0 {
		return nil, nil, errors.Wrapf(ErrShapeMismatch, "orthoimage has size (%d, %d)", tile.Width(), tile.Height())
	}
	if err := intrinsics.CheckValid(); err != nil {
		return nil, nil, errors.Wrap(ErrUnavailable, err.Error())
	}
	if intrinsics.Width != width || intrinsics.Height != height {
		return nil, nil, errors.Wrapf(ErrShapeMismatch, "camera intrinsics are for (%d, %d) but the frame is (%d, %d)",
			intrinsics.Width, intrinsics.Height, width, height)
	}

	yaw := spatialmath.YawDegreesAssumingZeroRoll(*gimbal)
	alignment, err := transform.NewRotateAndCropAlignment(tile.Width(), tile.Height(), width, height, yaw)
	if err != nil {
		return nil, nil, err
	}
	aligned, err := alignment.Warp(tile.ImageWithElevation)
	if err != nil {
		return nil, nil, err
	}

	return &MatchInputs{
		Query:      frame,
		Reference:  aligned.Color,
		Elevation:  aligned.Elevation,
		Intrinsics: intrinsics,
	}, alignment, nil
}
