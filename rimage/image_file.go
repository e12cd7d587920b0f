package rimage

import (
	"bytes"
	"image"
	// register decoders for the formats the feeds may carry.
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	_ "golang.org/x/image/tiff"
)

// DecodeImage decodes an encoded image (PNG, JPEG or TIFF) into an NRGBA image anchored at the
// origin.
func DecodeImage(data []byte) (*image.NRGBA, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "could not decode image")
	}
	if img.Bounds().Empty() {
		return nil, errors.Wrapf(ErrShapeMismatch, "decoded %s image is empty", format)
	}
	return imaging.Clone(img), nil
}

// DecodeElevationMap decodes a single-channel raster (16-bit PNG or TIFF) into an elevation map.
func DecodeElevationMap(data []byte) (*ElevationMap, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "could not decode elevation raster")
	}
	if img.Bounds().Empty() {
		return nil, errors.Wrapf(ErrShapeMismatch, "decoded %s elevation raster is empty", format)
	}
	return ConvertImageToElevationMap(img), nil
}
