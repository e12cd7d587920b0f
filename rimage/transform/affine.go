package transform

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/deepuav/gisnav/rimage"
)

// AffineAlignment is the transform from the pixel coordinates of an orthoimage tile to the
// pixel coordinates of its rotated and cropped copy, together with the rotation that was applied.
type AffineAlignment struct {
	Matrix     Homography
	YawDegrees float64
	Width      int
	Height     int
}

// NewRotateAndCropAlignment rotates a srcWidth x srcHeight raster about its center so that the
// yawDeg heading points to the top of the image, then crops a dstWidth x dstHeight window around
// the center. The result is T(dst center)·R(yaw)·T(-src center).
func NewRotateAndCropAlignment(srcWidth, srcHeight, dstWidth, dstHeight int, yawDeg float64) (*AffineAlignment, error) {
	if srcWidth <= 0 || srcHeight <= 0 || dstWidth <= 0 || dstHeight <= 0 {
		return nil, errors.Wrapf(rimage.ErrShapeMismatch, "cannot align (%d, %d) into (%d, %d)",
			srcWidth, srcHeight, dstWidth, dstHeight)
	}
	sin, cos := math.Sincos(yawDeg * math.Pi / 180)
	scx, scy := float64(srcWidth)/2, float64(srcHeight)/2
	dcx, dcy := float64(dstWidth)/2, float64(dstHeight)/2

	// rotation in image coordinates, with y pointing down
	r00, r01 := cos, sin
	r10, r11 := -sin, cos

	return &AffineAlignment{
		Matrix: Homography{
			{r00, r01, dcx - r00*scx - r01*scy},
			{r10, r11, dcy - r10*scx - r11*scy},
			{0, 0, 1},
		},
		YawDegrees: yawDeg,
		Width:      dstWidth,
		Height:     dstHeight,
	}, nil
}

// Apply maps a source pixel coordinate to the aligned image.
func (a *AffineAlignment) Apply(pt r2.Point) r2.Point {
	return a.Matrix.Apply(pt)
}

// Inverse returns the matrix that maps aligned pixel coordinates back to the source raster.
func (a *AffineAlignment) Inverse() (*Homography, error) {
	return a.Matrix.Inverse()
}

// Aff3 returns the alignment in the form used by golang.org/x/image/draw.
func (a *AffineAlignment) Aff3() f64.Aff3 {
	m := a.Matrix
	return f64.Aff3{m[0][0], m[0][1], m[0][2], m[1][0], m[1][1], m[1][2]}
}

// Warp resamples both layers of src into the aligned frame with bilinear interpolation. Pixels
// that fall outside of src are left zero.
func (a *AffineAlignment) Warp(src *rimage.ImageWithElevation) (*rimage.ImageWithElevation, error) {
	if !a.Matrix.IsAffine() {
		return nil, errors.New("alignment matrix is not affine")
	}
	inv, err := a.Inverse()
	if err != nil {
		return nil, err
	}

	colorSrc := src.Color
	if colorSrc.Bounds().Min != (image.Point{}) {
		colorSrc = imaging.Clone(colorSrc)
	}
	color := image.NewNRGBA(image.Rect(0, 0, a.Width, a.Height))
	draw.BiLinear.Transform(color, a.Aff3(), colorSrc, colorSrc.Bounds(), draw.Src, nil)

	elevation := rimage.NewEmptyElevationMap(a.Width, a.Height)
	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			p := inv.Apply(r2.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5})
			if v, ok := src.Elevation.BilinearAt(p.X, p.Y); ok {
				elevation.Set(x, y, v)
			}
		}
	}
	return rimage.NewImageWithElevation(color, elevation)
}
