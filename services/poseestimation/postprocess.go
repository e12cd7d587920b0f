package poseestimation

import (
	"math"
	"time"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"github.com/deepuav/gisnav/rimage/transform"
	"github.com/deepuav/gisnav/sensorcache"
	"github.com/deepuav/gisnav/spatialmath"
)

// GeoPoseEstimate is the geodetic pose of the camera. Orientation rotates the gimbal body frame
// into NED, the same convention as the gimbal orientation input.
type GeoPoseEstimate struct {
	Timestamp time.Time

	Latitude  float64
	Longitude float64
	// AltitudeAMSL is the altitude above mean sea level in meters.
	AltitudeAMSL float64
	// AltitudeAGL is the altitude above the terrain in meters.
	AltitudeAGL float64
	// AltitudeEllipsoid is the altitude above the WGS84 ellipsoid in meters.
	AltitudeEllipsoid float64

	Orientation quat.Number
}

// Postprocess converts a pose in the matcher's world frame into a geodetic pose. The alignment
// is the one the reference image was prepared with and geotransform belongs to the unaligned
// orthoimage.
func Postprocess(
	pose *PoseEstimate,
	alignment *transform.AffineAlignment,
	geotransform *transform.GeoTransform,
	terrainAltitude sensorcache.Altitude,
	terrainGeoPoint sensorcache.GeoPoint,
) (*GeoPoseEstimate, error) {
	if pose == nil || pose.Rotation == nil || alignment == nil || geotransform == nil {
		return nil, errors.Wrap(ErrUnavailable, "pose, alignment and geotransform are required")
	}
	if math.IsNaN(terrainAltitude.AMSL) || math.IsNaN(terrainGeoPoint.Altitude) {
		return nil, errors.Wrap(ErrUnavailable, "terrain altitude")
	}

	// singular transforms are caught here, before they are used
	unaligned, err := alignment.Inverse()
	if err != nil {
		return nil, err
	}
	toGeo := geotransform.Homography.Mul(unaligned)
	if det := toGeo.Det(); det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return nil, errors.Wrapf(ErrNonInvertible, "pixel to geographic transform has determinant %v", det)
	}

	t := pose.Translation
	lonLat := toGeo.Apply(r2.Point{X: t.X, Y: t.Y})
	// world z points down, so the camera is above the terrain when z is negative
	agl := -t.Z * geotransform.ZScale
	if math.IsNaN(lonLat.X) || math.IsNaN(lonLat.Y) || math.IsNaN(agl) {
		return nil, errors.Wrap(ErrNonInvertible, "pose maps to an undefined position")
	}

	nedFromGimbal := nedFromMap.
		Mul(alignedFromMap(alignment.YawDegrees).Transpose()).
		Mul(pose.Rotation).
		Mul(gimbalFromOptical.Transpose())
	orientation := nedFromGimbal.Quaternion()
	if !spatialmath.IsFiniteQuaternion(orientation) {
		return nil, errors.Wrap(ErrNonInvertible, "estimated orientation is undefined")
	}

	return &GeoPoseEstimate{
		Latitude:          lonLat.Y,
		Longitude:         lonLat.X,
		AltitudeAMSL:      agl + terrainAltitude.AMSL,
		AltitudeAGL:       agl,
		AltitudeEllipsoid: agl + terrainGeoPoint.Altitude,
		Orientation:       orientation,
	}, nil
}
