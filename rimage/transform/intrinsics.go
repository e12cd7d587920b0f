package transform

import (
	"fmt"

	"github.com/golang/geo/r2"
)

// CameraIntrinsics holds the image size and the 3x3 intrinsic matrix K of a pinhole camera.
// K is [[fx, 0, ppx], [0, fy, ppy], [0, 0, 1]] for a camera without skew.
type CameraIntrinsics struct {
	Width  int          `json:"width"`
	Height int          `json:"height"`
	K      [3][3]float64 `json:"k"`
}

// NewCameraIntrinsicsFromPinhole builds intrinsics from focal lengths and the principal point.
func NewCameraIntrinsicsFromPinhole(width, height int, fx, fy, ppx, ppy float64) *CameraIntrinsics {
	return &CameraIntrinsics{
		Width:  width,
		Height: height,
		K: [3][3]float64{
			{fx, 0, ppx},
			{0, fy, ppy},
			{0, 0, 1},
		},
	}
}

// Fx returns the horizontal focal length in pixels.
func (params *CameraIntrinsics) Fx() float64 { return params.K[0][0] }

// Fy returns the vertical focal length in pixels.
func (params *CameraIntrinsics) Fy() float64 { return params.K[1][1] }

// PrincipalPoint returns (ppx, ppy).
func (params *CameraIntrinsics) PrincipalPoint() r2.Point {
	return r2.Point{X: params.K[0][2], Y: params.K[1][2]}
}

// CheckValid checks if the fields for CameraIntrinsics have valid inputs.
func (params *CameraIntrinsics) CheckValid() error {
	if params == nil {
		return NewNoIntrinsicsError("Intrinsics do not exist")
	}
	if params.Width <= 0 || params.Height <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid size (%#v, %#v)", params.Width, params.Height))
	}
	if params.Fx() <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fx = %#v", params.Fx()))
	}
	if params.Fy() <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fy = %#v", params.Fy()))
	}
	pp := params.PrincipalPoint()
	if pp.X < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal X point Ppx = %#v", pp.X))
	}
	if pp.Y < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal Y point Ppy = %#v", pp.Y))
	}
	return nil
}

// Rows returns K as a slice of rows.
func (params *CameraIntrinsics) Rows() [][]float64 {
	return [][]float64{params.K[0][:], params.K[1][:], params.K[2][:]}
}
