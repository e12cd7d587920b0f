package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/deepuav/gisnav/utils"
)

var (
	// NEDDown is the down axis of the north-east-down frame.
	NEDDown = r3.Vector{X: 0, Y: 0, Z: 1}
	// BodyForward is the forward (x) axis of a front-right-down body frame. For a gimbal it is the
	// camera's optical axis.
	BodyForward = r3.Vector{X: 1, Y: 0, Z: 0}
)

// OffNadirDegrees returns the angle in degrees between the optical axis of a gimbal with the
// given NED attitude and true down. A gimbal pitched to -90° looks at nadir (0°); a level gimbal
// looks at the horizon (90°).
func OffNadirDegrees(q quat.Number) float64 {
	look := RotateVector(q, BodyForward)
	// floating point error can push the dot product of two unit vectors out of acos's domain
	dot := utils.Clamp(look.Dot(NEDDown), -1, 1)
	return utils.RadToDeg(math.Acos(dot))
}

// YawDegreesAssumingZeroRoll returns the heading in degrees of a NED attitude, computed as
// atan2(2(wz+xy), 1-2(y²+z²)). The formula stays usable for pitch close to -90° as long as roll
// is close to zero; exactly at nadir the heading is undefined and 0 is returned.
func YawDegreesAssumingZeroRoll(q quat.Number) float64 {
	q = Normalize(q)
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	yaw := math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))
	return utils.RadToDeg(yaw)
}
