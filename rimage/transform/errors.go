package transform

import "github.com/pkg/errors"

var (
	// ErrDegenerateGeometry is returned when a mapping cannot be built because its input geometry
	// has no area, e.g. a zero-size raster or a bounding box with zero width or height.
	ErrDegenerateGeometry = errors.New("degenerate geometry")

	// ErrNonInvertible is returned when a transform that has to be inverted is singular.
	ErrNonInvertible = errors.New("transform is not invertible")

	// ErrNoIntrinsics is when a camera does not have intrinsics parameters or other parameters.
	ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")
)

// NewNoIntrinsicsError is used when the intrinsics are not defined.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrap(ErrNoIntrinsics, msg)
}
