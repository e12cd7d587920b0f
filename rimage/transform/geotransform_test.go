package transform

import (
	"errors"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"github.com/deepuav/gisnav/rimage"
)

func TestHaversineDistance(t *testing.T) {
	d := HaversineDistance(0, 0, 0, 1)
	test.That(t, d, test.ShouldAlmostEqual, 111195, 111195*0.005)
	test.That(t, HaversineDistance(60, 10, 60, 10), test.ShouldEqual, 0)
	test.That(t, HaversineDistance(0, 0, 1, 0), test.ShouldAlmostEqual, d, 1e-6)
}

func TestGeoTransformCorners(t *testing.T) {
	bbox := rimage.NewBoundingBox(60, 10, 60.005, 10.01)
	gt, err := NewGeoTransform(200, 100, bbox)
	test.That(t, err, test.ShouldBeNil)

	for _, tc := range []struct {
		pixel    r3.Vector
		lon, lat float64
	}{
		{r3.Vector{X: 0, Y: 0}, 10, 60.005},
		{r3.Vector{X: 0, Y: 100}, 10, 60},
		{r3.Vector{X: 200, Y: 100}, 10.01, 60},
		{r3.Vector{X: 200, Y: 0}, 10.01, 60.005},
		{r3.Vector{X: 100, Y: 50}, 10.005, 60.0025},
	} {
		geo := gt.Apply(tc.pixel)
		test.That(t, geo.X, test.ShouldAlmostEqual, tc.lon, 1e-9)
		test.That(t, geo.Y, test.ShouldAlmostEqual, tc.lat, 1e-9)
	}

	inv, err := gt.Inverse()
	test.That(t, err, test.ShouldBeNil)
	pt := r3.Vector{X: 12.5, Y: 77.25, Z: 40}
	back := inv.Apply(gt.Apply(pt))
	test.That(t, back.X, test.ShouldAlmostEqual, pt.X, 1e-6)
	test.That(t, back.Y, test.ShouldAlmostEqual, pt.Y, 1e-6)
	test.That(t, back.Z, test.ShouldAlmostEqual, pt.Z, 1e-9)
}

func TestGeoTransformZScale(t *testing.T) {
	bbox := rimage.NewBoundingBox(60, 10, 60.005, 10.01)
	gt, err := NewGeoTransform(100, 100, bbox)
	test.That(t, err, test.ShouldBeNil)

	widthMeters := HaversineDistance(60, 10, 60, 10.01)
	heightMeters := HaversineDistance(60, 10, 60.005, 10)
	test.That(t, gt.ZScale, test.ShouldAlmostEqual, (2*widthMeters+2*heightMeters)/400, 1e-12)
	// roughly 556 m on each side
	test.That(t, gt.ZScale, test.ShouldAlmostEqual, 5.56, 0.01)
	test.That(t, gt.Apply(r3.Vector{Z: 10}).Z, test.ShouldAlmostEqual, 10*gt.ZScale)
}

func TestGeoTransformMatrix(t *testing.T) {
	gt, err := NewGeoTransform(64, 48, rimage.NewBoundingBox(-33.9, 151.1, -33.8, 151.3))
	test.That(t, err, test.ShouldBeNil)

	pt := r3.Vector{X: 10, Y: 20, Z: 3}
	var out mat.VecDense
	out.MulVec(gt.Matrix(), mat.NewVecDense(4, []float64{pt.X, pt.Y, pt.Z, 1}))
	expected := gt.Apply(pt)
	test.That(t, out.AtVec(3), test.ShouldAlmostEqual, 1, 1e-12)
	test.That(t, out.AtVec(0), test.ShouldAlmostEqual, expected.X, 1e-9)
	test.That(t, out.AtVec(1), test.ShouldAlmostEqual, expected.Y, 1e-9)
	test.That(t, out.AtVec(2), test.ShouldAlmostEqual, expected.Z, 1e-9)
}

func TestGeoTransformDegenerate(t *testing.T) {
	_, err := NewGeoTransform(100, 100, rimage.NewBoundingBox(60, 10, 60, 10.01))
	test.That(t, errors.Is(err, ErrDegenerateGeometry), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "lat 60.0000000..60.0000000, lon 10.0000000..10.0100000")
	test.That(t, err.Error(), test.ShouldNotContainSubstring, "0xc")

	_, err = NewGeoTransform(100, 100, rimage.NewBoundingBox(60, 10.01, 60.005, 10))
	test.That(t, errors.Is(err, ErrDegenerateGeometry), test.ShouldBeTrue)

	_, err = NewGeoTransform(0, 100, rimage.NewBoundingBox(60, 10, 60.005, 10.01))
	test.That(t, errors.Is(err, ErrDegenerateGeometry), test.ShouldBeTrue)

	_, err = NewGeoTransform(100, 100, rimage.BoundingBox{})
	test.That(t, errors.Is(err, ErrDegenerateGeometry), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "(unset)")
}
