package rimage

import (
	"fmt"
	"image"

	geo "github.com/kellydunn/golang-geo"
	"github.com/pkg/errors"
)

// BoundingBox is a geographic rectangle described by its south-west (min) and north-east (max)
// corners.
type BoundingBox struct {
	MinPt *geo.Point
	MaxPt *geo.Point
}

// NewBoundingBox builds a bounding box from its extreme latitudes and longitudes.
func NewBoundingBox(minLat, minLon, maxLat, maxLon float64) BoundingBox {
	return BoundingBox{MinPt: geo.NewPoint(minLat, minLon), MaxPt: geo.NewPoint(maxLat, maxLon)}
}

// Corners returns the (longitude, latitude) pairs of the box in the order top-left, bottom-left,
// bottom-right, top-right, matching the pixel corners of a north-up raster.
func (bb BoundingBox) Corners() [4][2]float64 {
	minLon, minLat := bb.MinPt.Lng(), bb.MinPt.Lat()
	maxLon, maxLat := bb.MaxPt.Lng(), bb.MaxPt.Lat()
	return [4][2]float64{
		{minLon, maxLat},
		{minLon, minLat},
		{maxLon, minLat},
		{maxLon, maxLat},
	}
}

// Center returns the geometric center of the box in degrees.
func (bb BoundingBox) Center() *geo.Point {
	return geo.NewPoint((bb.MinPt.Lat()+bb.MaxPt.Lat())/2, (bb.MinPt.Lng()+bb.MaxPt.Lng())/2)
}

// HasArea reports whether the box is set and spans a positive latitude and longitude range.
func (bb BoundingBox) HasArea() bool {
	if bb.MinPt == nil || bb.MaxPt == nil {
		return false
	}
	return bb.MaxPt.Lat() > bb.MinPt.Lat() && bb.MaxPt.Lng() > bb.MinPt.Lng()
}

func (bb BoundingBox) String() string {
	if bb.MinPt == nil || bb.MaxPt == nil {
		return "(unset)"
	}
	return fmt.Sprintf("(lat %.7f..%.7f, lon %.7f..%.7f)", bb.MinPt.Lat(), bb.MaxPt.Lat(), bb.MinPt.Lng(), bb.MaxPt.Lng())
}

// ImageWithElevation is a color image stacked with a co-registered elevation raster.
type ImageWithElevation struct {
	Color     image.Image
	Elevation *ElevationMap
}

// NewImageWithElevation stacks a color image and an elevation map. Both must share the same pixel
// grid.
func NewImageWithElevation(img image.Image, elevation *ElevationMap) (*ImageWithElevation, error) {
	if img == nil || elevation == nil {
		return nil, errors.Wrap(ErrShapeMismatch, "image and elevation are both required")
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, errors.Wrapf(ErrShapeMismatch, "image has zero size (%d, %d)", bounds.Dx(), bounds.Dy())
	}
	if bounds.Dx() != elevation.Width() || bounds.Dy() != elevation.Height() {
		return nil, errors.Wrapf(ErrShapeMismatch, "image (%d, %d) and elevation (%d, %d) dimensions don't match",
			bounds.Dx(), bounds.Dy(), elevation.Width(), elevation.Height())
	}
	return &ImageWithElevation{Color: img, Elevation: elevation}, nil
}

// Width returns the number of columns.
func (iwe *ImageWithElevation) Width() int {
	return iwe.Elevation.Width()
}

// Height returns the number of rows.
func (iwe *ImageWithElevation) Height() int {
	return iwe.Elevation.Height()
}

// OrthoImageTile is an orthoimage and its elevation raster together with the geographic area they
// cover. A tile is replaced as a whole whenever a new one arrives.
type OrthoImageTile struct {
	*ImageWithElevation
	BoundingBox BoundingBox
}

// NewOrthoImageTile validates that the image and the elevation raster share one pixel grid.
func NewOrthoImageTile(img image.Image, elevation *ElevationMap, bbox BoundingBox) (*OrthoImageTile, error) {
	stack, err := NewImageWithElevation(img, elevation)
	if err != nil {
		return nil, err
	}
	return &OrthoImageTile{ImageWithElevation: stack, BoundingBox: bbox}, nil
}
