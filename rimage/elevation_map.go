package rimage

import (
	"image"
	"image/color"
	"math"

	"github.com/pkg/errors"
)

// ErrShapeMismatch is returned when rasters that must share a pixel grid do not, or when a raster
// has no pixels.
var ErrShapeMismatch = errors.New("raster shape mismatch")

// ElevationMap is a raster of elevation values in the native units of the source digital
// elevation model. Values are stored row-major.
type ElevationMap struct {
	width  int
	height int

	data []float64
}

// NewEmptyElevationMap returns a zero-filled elevation map of the given size.
func NewEmptyElevationMap(width, height int) *ElevationMap {
	return &ElevationMap{
		width:  width,
		height: height,
		data:   make([]float64, width*height),
	}
}

// NewElevationMapFromData wraps row-major values. The slice is not copied.
func NewElevationMapFromData(width, height int, data []float64) (*ElevationMap, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrShapeMismatch, "invalid elevation map size (%d, %d)", width, height)
	}
	if len(data) != width*height {
		return nil, errors.Wrapf(ErrShapeMismatch, "elevation map (%d, %d) needs %d values, got %d",
			width, height, width*height, len(data))
	}
	return &ElevationMap{width: width, height: height, data: data}, nil
}

// ConvertImageToElevationMap reads the gray level of every pixel as an elevation value. 16-bit
// gray images keep their full range; other images are converted through the 16-bit gray model.
func ConvertImageToElevationMap(img image.Image) *ElevationMap {
	bounds := img.Bounds()
	em := NewEmptyElevationMap(bounds.Dx(), bounds.Dy())
	gray16, isGray16 := img.(*image.Gray16)
	for y := 0; y < em.height; y++ {
		for x := 0; x < em.width; x++ {
			px, py := bounds.Min.X+x, bounds.Min.Y+y
			var v uint16
			if isGray16 {
				v = gray16.Gray16At(px, py).Y
			} else {
				v = color.Gray16Model.Convert(img.At(px, py)).(color.Gray16).Y
			}
			em.data[y*em.width+x] = float64(v)
		}
	}
	return em
}

// Width returns the number of columns.
func (em *ElevationMap) Width() int {
	return em.width
}

// Height returns the number of rows.
func (em *ElevationMap) Height() int {
	return em.height
}

// Bounds returns the pixel rectangle of the map, anchored at the origin.
func (em *ElevationMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, em.width, em.height)
}

// Contains reports whether (x, y) is a pixel of the map.
func (em *ElevationMap) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < em.width && y < em.height
}

// At returns the elevation at column x, row y.
func (em *ElevationMap) At(x, y int) float64 {
	return em.data[y*em.width+x]
}

// Set sets the elevation at column x, row y.
func (em *ElevationMap) Set(x, y int, val float64) {
	em.data[y*em.width+x] = val
}

// Data returns the row-major backing slice.
func (em *ElevationMap) Data() []float64 {
	return em.data
}

// MinMax returns the smallest and largest elevation in the map.
func (em *ElevationMap) MinMax() (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range em.data {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// BilinearAt samples the map at a continuous position where pixel (i, j) covers [i, i+1) x [j, j+1)
// and has its value at the pixel center. The second return value is false when the position is
// outside of the map.
func (em *ElevationMap) BilinearAt(x, y float64) (float64, bool) {
	if x < 0 || y < 0 || x >= float64(em.width) || y >= float64(em.height) {
		return 0, false
	}
	// shift to pixel-center coordinates and clamp so edge pixels extend to the map border
	cx := math.Max(0, math.Min(x-0.5, float64(em.width-1)))
	cy := math.Max(0, math.Min(y-0.5, float64(em.height-1)))
	x0, y0 := int(cx), int(cy)
	x1, y1 := x0+1, y0+1
	if x1 >= em.width {
		x1 = x0
	}
	if y1 >= em.height {
		y1 = y0
	}
	fx, fy := cx-float64(x0), cy-float64(y0)

	top := em.At(x0, y0)*(1-fx) + em.At(x1, y0)*fx
	bottom := em.At(x0, y1)*(1-fx) + em.At(x1, y1)*fx
	return top*(1-fy) + bottom*fy, true
}
