package transform

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Homography is a 3x3 matrix (represented as a 2D array) used to transform points of one plane to
// another in homogeneous coordinates. Indices are [row][column].
type Homography [3][3]float64

// NewHomography creates a homography from a row-major slice of length 9.
func NewHomography(vals []float64) (*Homography, error) {
	if len(vals) != 9 {
		return nil, errors.Errorf("input to NewHomography must have length of 9. Has length of %d", len(vals))
	}
	var h Homography
	for i, v := range vals {
		h[i/3][i%3] = v
	}
	return &h, nil
}

// NewHomographyFromPoints solves for the homography that maps each src point onto the dst point
// with the same index. The solution is normalized so that the bottom-right entry is 1.
func NewHomographyFromPoints(src, dst [4]r2.Point) (*Homography, error) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := range src {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -u * x, -u * y})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -v * x, -v * y})
		b.SetVec(2*i, u)
		b.SetVec(2*i+1, v)
	}
	var sol mat.VecDense
	if err := sol.SolveVec(a, b); err != nil {
		return nil, errors.Wrapf(ErrDegenerateGeometry, "could not solve homography: %v", err)
	}
	h := Homography{
		{sol.AtVec(0), sol.AtVec(1), sol.AtVec(2)},
		{sol.AtVec(3), sol.AtVec(4), sol.AtVec(5)},
		{sol.AtVec(6), sol.AtVec(7), 1},
	}
	return &h, nil
}

// At returns the value at the given row and column.
func (h *Homography) At(row, col int) float64 {
	return h[row][col]
}

// Apply transforms a point using the homography.
func (h *Homography) Apply(pt r2.Point) r2.Point {
	x := h.At(0, 0)*pt.X + h.At(0, 1)*pt.Y + h.At(0, 2)
	y := h.At(1, 0)*pt.X + h.At(1, 1)*pt.Y + h.At(1, 2)
	z := h.At(2, 0)*pt.X + h.At(2, 1)*pt.Y + h.At(2, 2)
	return r2.Point{X: x / z, Y: y / z}
}

// Mul returns h·other.
func (h *Homography) Mul(other *Homography) *Homography {
	var out Homography
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				out[i][j] += h[i][k] * other[k][j]
			}
		}
	}
	return &out
}

// IsAffine reports whether the last row is (0, 0, 1).
func (h *Homography) IsAffine() bool {
	return h[2][0] == 0 && h[2][1] == 0 && h[2][2] == 1
}

// Det returns the determinant of the matrix.
func (h *Homography) Det() float64 {
	return mat.Det(h.Dense())
}

// Inverse returns the inverse homography. Singular matrices, including ones too ill-conditioned
// to invert, return ErrNonInvertible.
func (h *Homography) Inverse() (*Homography, error) {
	det := h.Det()
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return nil, errors.Wrapf(ErrNonInvertible, "homography has determinant %v", det)
	}
	var inv mat.Dense
	if err := inv.Inverse(h.Dense()); err != nil {
		return nil, errors.Wrapf(ErrNonInvertible, "could not invert homography: %v", err)
	}
	scale := inv.At(2, 2)
	if scale == 0 {
		scale = 1
	}
	var out Homography
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = inv.At(i, j) / scale
		}
	}
	return &out, nil
}

// Dense returns the homography as a gonum matrix.
func (h *Homography) Dense() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		h[0][0], h[0][1], h[0][2],
		h[1][0], h[1][1], h[1][2],
		h[2][0], h[2][1], h[2][2],
	})
}

func (h *Homography) String() string {
	return fmt.Sprintf("%v", [3][3]float64(*h))
}
