package poseestimation

import (
	"errors"
	"image"
	"testing"

	"go.viam.com/test"

	"github.com/deepuav/gisnav/rimage"
	"github.com/deepuav/gisnav/rimage/transform"
)

func testIntrinsics() *transform.CameraIntrinsics {
	return transform.NewCameraIntrinsicsFromPinhole(frameWidth, frameHeight, 60, 60, frameWidth/2, frameHeight/2)
}

func testFrame() image.Image {
	return image.NewNRGBA(image.Rect(0, 0, frameWidth, frameHeight))
}

func TestPreprocess(t *testing.T) {
	tile := testTile(t)
	gimbal := gimbalAt(0, -80)

	inputs, alignment, err := Preprocess(testFrame(), tile, testIntrinsics(), gimbal)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, alignment.YawDegrees, test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, inputs.Reference.Bounds().Dx(), test.ShouldEqual, frameWidth)
	test.That(t, inputs.Reference.Bounds().Dy(), test.ShouldEqual, frameHeight)
	test.That(t, inputs.Elevation.Width(), test.ShouldEqual, frameWidth)
	test.That(t, inputs.Elevation.Height(), test.ShouldEqual, frameHeight)
	test.That(t, inputs.Intrinsics, test.ShouldResemble, testIntrinsics())

	// zero yaw is a centered crop: aligned (0, 0) is tile (28, 26)
	offsetX, offsetY := (tileWidth-frameWidth)/2, (tileHeight-frameHeight)/2
	test.That(t, inputs.Elevation.At(0, 0), test.ShouldAlmostEqual, tile.Elevation.At(offsetX, offsetY), 1e-9)
	test.That(t, inputs.Elevation.At(10, 5), test.ShouldAlmostEqual, tile.Elevation.At(offsetX+10, offsetY+5), 1e-9)
	test.That(t, inputs.Reference.At(3, 4), test.ShouldResemble, tile.Color.At(offsetX+3, offsetY+4))
}

func TestPreprocessYaw(t *testing.T) {
	tile := testTile(t)
	_, alignment, err := Preprocess(testFrame(), tile, testIntrinsics(), gimbalAt(-45, -85))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, alignment.YawDegrees, test.ShouldAlmostEqual, -45, 1e-6)
	test.That(t, alignment.Width, test.ShouldEqual, frameWidth)
	test.That(t, alignment.Height, test.ShouldEqual, frameHeight)
}

func TestPreprocessErrors(t *testing.T) {
	tile := testTile(t)
	gimbal := gimbalAt(0, -80)

	_, _, err := Preprocess(nil, tile, testIntrinsics(), gimbal)
	test.That(t, errors.Is(err, ErrUnavailable), test.ShouldBeTrue)
	_, _, err = Preprocess(testFrame(), nil, testIntrinsics(), gimbal)
	test.That(t, errors.Is(err, ErrUnavailable), test.ShouldBeTrue)
	_, _, err = Preprocess(testFrame(), tile, nil, gimbal)
	test.That(t, errors.Is(err, ErrUnavailable), test.ShouldBeTrue)
	_, _, err = Preprocess(testFrame(), tile, testIntrinsics(), nil)
	test.That(t, errors.Is(err, ErrUnavailable), test.ShouldBeTrue)

	_, _, err = Preprocess(image.NewNRGBA(image.Rect(0, 0, 0, 0)), tile, testIntrinsics(), gimbal)
	test.That(t, errors.Is(err, ErrShapeMismatch), test.ShouldBeTrue)

	wrongSize := transform.NewCameraIntrinsicsFromPinhole(640, 480, 60, 60, 320, 240)
	_, _, err = Preprocess(testFrame(), tile, wrongSize, gimbal)
	test.That(t, errors.Is(err, ErrShapeMismatch), test.ShouldBeTrue)
	test.That(t, Outcome(err), test.ShouldEqual, OutcomeShapeMismatch)

	empty := &rimage.OrthoImageTile{
		ImageWithElevation: &rimage.ImageWithElevation{
			Color:     image.NewNRGBA(image.Rect(0, 0, 0, 0)),
			Elevation: rimage.NewEmptyElevationMap(0, 0),
		},
		BoundingBox: testBoundingBox(),
	}
	_, _, err = Preprocess(testFrame(), empty, testIntrinsics(), gimbal)
	test.That(t, errors.Is(err, ErrShapeMismatch), test.ShouldBeTrue)
}
