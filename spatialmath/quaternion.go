// Package spatialmath defines the rotation primitives used to move poses between the gimbal,
// camera, map and north-east-down (NED) frames.
//
// Quaternions are gonum quaternions where Real is the scalar part and Imag, Jmag and Kmag are
// the x, y and z components. A quaternion q rotates a vector v by q·v·q*, so a quaternion that
// describes the attitude of a body in a reference frame maps body-frame vectors into the
// reference frame.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// NewQuaternionFromXYZW builds a quaternion from components in the (x, y, z, w) order used by
// most message formats.
func NewQuaternionFromXYZW(x, y, z, w float64) quat.Number {
	return quat.Number{Real: w, Imag: x, Jmag: y, Kmag: z}
}

// NewQuaternionFromEulerDegrees builds the quaternion of the intrinsic z-y'-x'' (yaw, pitch, roll)
// rotation sequence, i.e. q = qz(yaw)·qy(pitch)·qx(roll).
func NewQuaternionFromEulerDegrees(yaw, pitch, roll float64) quat.Number {
	half := func(deg float64) (float64, float64) {
		return math.Sincos(deg * math.Pi / 360)
	}
	sy, cy := half(yaw)
	sp, cp := half(pitch)
	sr, cr := half(roll)

	qz := quat.Number{Real: cy, Kmag: sy}
	qy := quat.Number{Real: cp, Jmag: sp}
	qx := quat.Number{Real: cr, Imag: sr}
	return quat.Mul(quat.Mul(qz, qy), qx)
}

// Normalize scales a quaternion to unit length. The zero quaternion is returned unchanged.
func Normalize(q quat.Number) quat.Number {
	norm := quat.Abs(q)
	if norm == 0 {
		return q
	}
	return quat.Scale(1/norm, q)
}

// IsFiniteQuaternion returns false if any component is NaN or infinite, or if the quaternion has
// zero length.
func IsFiniteQuaternion(q quat.Number) bool {
	for _, c := range []float64{q.Real, q.Imag, q.Jmag, q.Kmag} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return quat.Abs(q) > 0
}

// RotateVector rotates v by the (normalized) quaternion q.
func RotateVector(q quat.Number, v r3.Vector) r3.Vector {
	q = Normalize(q)
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	rotated := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vector{X: rotated.Imag, Y: rotated.Jmag, Z: rotated.Kmag}
}

// QuaternionAlmostEqual reports whether two quaternions describe the same rotation within tol.
// q and -q are considered equal.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	near := func(a, b quat.Number) bool {
		return math.Abs(a.Real-b.Real) < tol &&
			math.Abs(a.Imag-b.Imag) < tol &&
			math.Abs(a.Jmag-b.Jmag) < tol &&
			math.Abs(a.Kmag-b.Kmag) < tol
	}
	a, b = Normalize(a), Normalize(b)
	return near(a, b) || near(a, quat.Scale(-1, b))
}
