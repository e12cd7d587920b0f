package transform

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"github.com/deepuav/gisnav/rimage"
)

func TestRotateAndCropIdentity(t *testing.T) {
	a, err := NewRotateAndCropAlignment(40, 30, 40, 30, 0)
	test.That(t, err, test.ShouldBeNil)
	identity := Homography{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			test.That(t, a.Matrix.At(i, j), test.ShouldAlmostEqual, identity[i][j], 1e-12)
		}
	}
	test.That(t, a.YawDegrees, test.ShouldEqual, 0)
}

func TestRotateAndCropHeadingUp(t *testing.T) {
	// heading east: a point east of the center ends up above the center
	a, err := NewRotateAndCropAlignment(10, 10, 10, 10, 90)
	test.That(t, err, test.ShouldBeNil)
	p := a.Apply(r2.Point{X: 7, Y: 5})
	test.That(t, p.X, test.ShouldAlmostEqual, 5, 1e-12)
	test.That(t, p.Y, test.ShouldAlmostEqual, 3, 1e-12)

	// heading south-west
	a, err = NewRotateAndCropAlignment(10, 10, 4, 4, -135)
	test.That(t, err, test.ShouldBeNil)
	p = a.Apply(r2.Point{X: 4, Y: 6})
	test.That(t, p.X, test.ShouldAlmostEqual, 2, 1e-12)
	test.That(t, p.Y, test.ShouldAlmostEqual, 2-1.4142135623730951, 1e-12)
}

func TestRotateAndCropRoundTrip(t *testing.T) {
	a, err := NewRotateAndCropAlignment(640, 480, 320, 240, 37.5)
	test.That(t, err, test.ShouldBeNil)
	inv, err := a.Inverse()
	test.That(t, err, test.ShouldBeNil)
	for _, pt := range []r2.Point{{X: 0, Y: 0}, {X: 320, Y: 240}, {X: 12.25, Y: 400}} {
		back := inv.Apply(a.Apply(pt))
		test.That(t, back.X, test.ShouldAlmostEqual, pt.X, 1e-9)
		test.That(t, back.Y, test.ShouldAlmostEqual, pt.Y, 1e-9)
	}
	// centers line up
	c := a.Apply(r2.Point{X: 320, Y: 240})
	test.That(t, c.X, test.ShouldAlmostEqual, 160, 1e-9)
	test.That(t, c.Y, test.ShouldAlmostEqual, 120, 1e-9)

	aff := a.Aff3()
	test.That(t, aff[2], test.ShouldEqual, a.Matrix.At(0, 2))
	test.That(t, aff[4], test.ShouldEqual, a.Matrix.At(1, 1))

	_, err = NewRotateAndCropAlignment(0, 480, 320, 240, 0)
	test.That(t, errors.Is(err, rimage.ErrShapeMismatch), test.ShouldBeTrue)
}

func TestWarp(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	red := color.NRGBA{R: 255, A: 255}
	elevation := rimage.NewEmptyElevationMap(4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, red)
			elevation.Set(x, y, float64(10*y+x))
		}
	}
	src, err := rimage.NewImageWithElevation(img, elevation)
	test.That(t, err, test.ShouldBeNil)

	a, err := NewRotateAndCropAlignment(4, 4, 2, 2, 0)
	test.That(t, err, test.ShouldBeNil)
	warped, err := a.Warp(src)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, warped.Width(), test.ShouldEqual, 2)
	test.That(t, warped.Height(), test.ShouldEqual, 2)
	test.That(t, warped.Elevation.At(0, 0), test.ShouldAlmostEqual, 11, 1e-9)
	test.That(t, warped.Elevation.At(1, 1), test.ShouldAlmostEqual, 22, 1e-9)
	test.That(t, warped.Color.At(0, 0), test.ShouldResemble, red)

	// a 180 degree turn flips the crop
	a, err = NewRotateAndCropAlignment(4, 4, 2, 2, 180)
	test.That(t, err, test.ShouldBeNil)
	warped, err = a.Warp(src)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, warped.Elevation.At(0, 0), test.ShouldAlmostEqual, 22, 1e-9)
	test.That(t, warped.Elevation.At(1, 1), test.ShouldAlmostEqual, 11, 1e-9)
}

func TestCameraIntrinsicsCheckValid(t *testing.T) {
	k := NewCameraIntrinsicsFromPinhole(640, 480, 500, 500, 320, 240)
	test.That(t, k.CheckValid(), test.ShouldBeNil)
	test.That(t, k.Rows()[0], test.ShouldResemble, []float64{500, 0, 320})

	var nilIntrinsics *CameraIntrinsics
	test.That(t, errors.Is(nilIntrinsics.CheckValid(), ErrNoIntrinsics), test.ShouldBeTrue)
	test.That(t, errors.Is(NewCameraIntrinsicsFromPinhole(0, 480, 500, 500, 320, 240).CheckValid(), ErrNoIntrinsics), test.ShouldBeTrue)
	test.That(t, errors.Is(NewCameraIntrinsicsFromPinhole(640, 480, -1, 500, 320, 240).CheckValid(), ErrNoIntrinsics), test.ShouldBeTrue)
}
