package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/deepuav/gisnav/utils"
)

// orthonormalTolerance bounds the deviation of RᵀR from identity accepted when a rotation
// matrix is built from external data.
const orthonormalTolerance = 1e-3

// ErrNotRotation is returned when a matrix is not a proper rotation.
var ErrNotRotation = errors.New("matrix is not a proper rotation")

// RotationMatrix is a 3x3 proper rotation stored in row-major order.
type RotationMatrix struct {
	mat [9]float64
}

// NewIdentityRotation returns the rotation that does nothing.
func NewIdentityRotation() *RotationMatrix {
	return &RotationMatrix{mat: [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// NewRotationMatrix creates a rotation from nine row-major values. It returns ErrNotRotation if the
// values are not finite, not orthonormal or describe a reflection.
func NewRotationMatrix(m []float64) (*RotationMatrix, error) {
	if len(m) != 9 {
		return nil, errors.Errorf("input to NewRotationMatrix must have length of 9. Has length of %d", len(m))
	}
	rm := &RotationMatrix{}
	for i, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.Wrap(ErrNotRotation, "non-finite element")
		}
		rm.mat[i] = v
	}
	product := rm.Transpose().Mul(rm)
	identity := NewIdentityRotation()
	for i := range product.mat {
		if math.Abs(product.mat[i]-identity.mat[i]) > orthonormalTolerance {
			return nil, errors.Wrap(ErrNotRotation, "rows are not orthonormal")
		}
	}
	if rm.Det() <= 0 {
		return nil, errors.Wrap(ErrNotRotation, "determinant is not positive")
	}
	return rm, nil
}

// NewRotationMatrixFromDense creates a rotation from a 3x3 gonum matrix.
func NewRotationMatrixFromDense(m mat.Matrix) (*RotationMatrix, error) {
	rows, cols := m.Dims()
	if rows != 3 || cols != 3 {
		return nil, errors.Errorf("rotation matrix must be 3x3, got %dx%d", rows, cols)
	}
	vals := make([]float64, 0, 9)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			vals = append(vals, m.At(i, j))
		}
	}
	return NewRotationMatrix(vals)
}

// QuatToRotationMatrix converts a quaternion to the rotation matrix it describes. The quaternion is
// normalized first.
func QuatToRotationMatrix(q quat.Number) *RotationMatrix {
	q = Normalize(q)
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return &RotationMatrix{mat: [9]float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	}}
}

// RotationAboutZ returns the rotation matrix [[cos, sin, 0], [-sin, cos, 0], [0, 0, 1]] for the
// given angle in degrees. In a frame whose y axis points down (image rows) this turns the
// picture counterclockwise as seen on screen.
func RotationAboutZ(degrees float64) *RotationMatrix {
	s, c := math.Sincos(utils.DegToRad(degrees))
	return &RotationMatrix{mat: [9]float64{
		c, s, 0,
		-s, c, 0,
		0, 0, 1,
	}}
}

// At returns the element at the given row and column.
func (rm *RotationMatrix) At(row, col int) float64 {
	return rm.mat[row*3+col]
}

// Row returns the given row as a vector.
func (rm *RotationMatrix) Row(row int) r3.Vector {
	return r3.Vector{X: rm.mat[row*3], Y: rm.mat[row*3+1], Z: rm.mat[row*3+2]}
}

// Col returns the given column as a vector.
func (rm *RotationMatrix) Col(col int) r3.Vector {
	return r3.Vector{X: rm.mat[col], Y: rm.mat[col+3], Z: rm.mat[col+6]}
}

// Mul returns rm·other.
func (rm *RotationMatrix) Mul(other *RotationMatrix) *RotationMatrix {
	out := &RotationMatrix{}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.mat[i*3+j] = rm.Row(i).Dot(other.Col(j))
		}
	}
	return out
}

// MulVec returns rm·v.
func (rm *RotationMatrix) MulVec(v r3.Vector) r3.Vector {
	return r3.Vector{X: rm.Row(0).Dot(v), Y: rm.Row(1).Dot(v), Z: rm.Row(2).Dot(v)}
}

// Transpose returns the transpose, which for a rotation is its inverse.
func (rm *RotationMatrix) Transpose() *RotationMatrix {
	out := &RotationMatrix{}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.mat[j*3+i] = rm.mat[i*3+j]
		}
	}
	return out
}

// Det returns the determinant.
func (rm *RotationMatrix) Det() float64 {
	return rm.Row(0).Dot(rm.Row(1).Cross(rm.Row(2)))
}

// Angle returns the magnitude in radians of the rotation, in [0, π].
func (rm *RotationMatrix) Angle() float64 {
	cos := (rm.mat[0] + rm.mat[4] + rm.mat[8] - 1) / 2
	return math.Acos(utils.Clamp(cos, -1, 1))
}

// Dense returns a copy of the matrix as a gonum matrix.
func (rm *RotationMatrix) Dense() *mat.Dense {
	vals := rm.mat
	return mat.NewDense(3, 3, vals[:])
}

// Quaternion converts the rotation to a unit quaternion with a non-negative scalar part.
func (rm *RotationMatrix) Quaternion() quat.Number {
	m := rm.mat
	var q quat.Number
	switch tr := m[0] + m[4] + m[8]; {
	case tr > 0:
		s := math.Sqrt(tr+1) * 2
		q = quat.Number{Real: s / 4, Imag: (m[7] - m[5]) / s, Jmag: (m[2] - m[6]) / s, Kmag: (m[3] - m[1]) / s}
	case m[0] > m[4] && m[0] > m[8]:
		s := math.Sqrt(1+m[0]-m[4]-m[8]) * 2
		q = quat.Number{Real: (m[7] - m[5]) / s, Imag: s / 4, Jmag: (m[1] + m[3]) / s, Kmag: (m[2] + m[6]) / s}
	case m[4] > m[8]:
		s := math.Sqrt(1+m[4]-m[0]-m[8]) * 2
		q = quat.Number{Real: (m[2] - m[6]) / s, Imag: (m[1] + m[3]) / s, Jmag: s / 4, Kmag: (m[5] + m[7]) / s}
	default:
		s := math.Sqrt(1+m[8]-m[0]-m[4]) * 2
		q = quat.Number{Real: (m[3] - m[1]) / s, Imag: (m[2] + m[6]) / s, Jmag: (m[5] + m[7]) / s, Kmag: s / 4}
	}
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	return Normalize(q)
}

func (rm *RotationMatrix) String() string {
	return fmt.Sprintf("[%.4f %.4f %.4f; %.4f %.4f %.4f; %.4f %.4f %.4f]",
		rm.mat[0], rm.mat[1], rm.mat[2], rm.mat[3], rm.mat[4], rm.mat[5], rm.mat[6], rm.mat[7], rm.mat[8])
}

// AngleBetween returns the magnitude in radians of the rotation a·bᵀ that takes b onto a.
func AngleBetween(a, b *RotationMatrix) float64 {
	return a.Mul(b.Transpose()).Angle()
}
