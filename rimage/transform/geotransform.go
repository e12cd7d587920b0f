package transform

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/deepuav/gisnav/rimage"
)

// GeoTransform maps continuous pixel coordinates of a north-up raster, together with a raster
// elevation value, to (longitude, latitude, meters). Pixel (0, 0) is the top-left corner of the
// top-left pixel and (width, height) the bottom-right corner of the bottom-right pixel.
type GeoTransform struct {
	// Homography maps (column, row) to (longitude, latitude).
	Homography *Homography
	// ZScale converts raster elevation units to meters.
	ZScale float64
}

// NewGeoTransform builds the transform of a width x height raster covering bbox.
func NewGeoTransform(width, height int, bbox rimage.BoundingBox) (*GeoTransform, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrDegenerateGeometry, "raster has size (%d, %d)", width, height)
	}
	if !bbox.HasArea() {
		return nil, errors.Wrapf(ErrDegenerateGeometry, "bounding box %s has no area", bbox)
	}

	w, h := float64(width), float64(height)
	pixels := [4]r2.Point{{X: 0, Y: 0}, {X: 0, Y: h}, {X: w, Y: h}, {X: w, Y: 0}}
	var lonLat [4]r2.Point
	for i, c := range bbox.Corners() {
		lonLat[i] = r2.Point{X: c[0], Y: c[1]}
	}
	homography, err := NewHomographyFromPoints(pixels, lonLat)
	if err != nil {
		return nil, err
	}

	minLat, minLon := bbox.MinPt.Lat(), bbox.MinPt.Lng()
	maxLat, maxLon := bbox.MaxPt.Lat(), bbox.MaxPt.Lng()
	widthMeters := HaversineDistance(minLat, minLon, minLat, maxLon)
	heightMeters := HaversineDistance(minLat, minLon, maxLat, minLon)
	perimeterMeters := 2*widthMeters + 2*heightMeters
	perimeterPixels := 2 * (w + h)

	return &GeoTransform{Homography: homography, ZScale: perimeterMeters / perimeterPixels}, nil
}

// Apply maps (column, row, elevation) to (longitude, latitude, meters).
func (gt *GeoTransform) Apply(pt r3.Vector) r3.Vector {
	lonLat := gt.Homography.Apply(r2.Point{X: pt.X, Y: pt.Y})
	return r3.Vector{X: lonLat.X, Y: lonLat.Y, Z: pt.Z * gt.ZScale}
}

// Inverse returns the transform from (longitude, latitude, meters) back to raster coordinates.
func (gt *GeoTransform) Inverse() (*GeoTransform, error) {
	inv, err := gt.Homography.Inverse()
	if err != nil {
		return nil, err
	}
	if gt.ZScale == 0 {
		return nil, errors.Wrap(ErrNonInvertible, "geotransform has zero z scale")
	}
	return &GeoTransform{Homography: inv, ZScale: 1 / gt.ZScale}, nil
}

// Matrix returns the transform as a 4x4 homogeneous matrix acting on (column, row, z, 1). The z
// row is exact only for affine homographies, which is always the case for a north-up bounding
// box.
func (gt *GeoTransform) Matrix() *mat.Dense {
	h := gt.Homography
	return mat.NewDense(4, 4, []float64{
		h[0][0], h[0][1], 0, h[0][2],
		h[1][0], h[1][1], 0, h[1][2],
		0, 0, gt.ZScale, 0,
		h[2][0], h[2][1], 0, h[2][2],
	})
}
