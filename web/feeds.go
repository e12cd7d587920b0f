package web

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/num/quat"

	"github.com/deepuav/gisnav/rimage"
	"github.com/deepuav/gisnav/sensorcache"
	"github.com/deepuav/gisnav/services/poseestimation"
	"github.com/deepuav/gisnav/spatialmath"
)

// quaternionJSON is a quaternion in the (x, y, z, w) order of the autopilot messages.
type quaternionJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

func newQuaternionJSON(q quat.Number) quaternionJSON {
	return quaternionJSON{X: q.Imag, Y: q.Jmag, Z: q.Kmag, W: q.Real}
}

func (q quaternionJSON) toQuaternion() (quat.Number, error) {
	n := spatialmath.NewQuaternionFromXYZW(q.X, q.Y, q.Z, q.W)
	if !spatialmath.IsFiniteQuaternion(n) || quat.Abs(n) == 0 {
		return quat.Number{}, errors.New("orientation must be a finite non-zero quaternion")
	}
	return spatialmath.Normalize(n), nil
}

// gimbalJSON is the gimbal device attitude in NED.
type gimbalJSON struct {
	Orientation quaternionJSON `json:"orientation"`
}

// altitudeJSON leaves unknown altitudes out.
type altitudeJSON struct {
	Monotonic       *float64 `json:"monotonic"`
	AMSL            *float64 `json:"amsl"`
	Local           *float64 `json:"local"`
	Relative        *float64 `json:"relative"`
	Terrain         *float64 `json:"terrain"`
	BottomClearance *float64 `json:"bottom_clearance"`
}

func (a altitudeJSON) toAltitude() sensorcache.Altitude {
	nan := math.NaN()
	return sensorcache.Altitude{
		Monotonic:       lo.FromPtrOr(a.Monotonic, nan),
		AMSL:            lo.FromPtrOr(a.AMSL, nan),
		Local:           lo.FromPtrOr(a.Local, nan),
		Relative:        lo.FromPtrOr(a.Relative, nan),
		Terrain:         lo.FromPtrOr(a.Terrain, nan),
		BottomClearance: lo.FromPtrOr(a.BottomClearance, nan),
	}
}

type geoPointJSON struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

func (p geoPointJSON) toGeoPoint() (sensorcache.GeoPoint, error) {
	if math.Abs(p.Latitude) > 90 || math.Abs(p.Longitude) > 180 {
		return sensorcache.GeoPoint{}, errors.Errorf("invalid geopoint (%v, %v)", p.Latitude, p.Longitude)
	}
	return sensorcache.GeoPoint{Latitude: p.Latitude, Longitude: p.Longitude, Altitude: p.Altitude}, nil
}

type boundingBoxJSON struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// orthoImageJSON carries the base64 encoded orthoimage and DEM rasters of one tile.
type orthoImageJSON struct {
	Image       []byte          `json:"image"`
	Elevation   []byte          `json:"elevation"`
	BoundingBox boundingBoxJSON `json:"bbox"`
}

func (o orthoImageJSON) toTile() (*rimage.OrthoImageTile, error) {
	img, err := rimage.DecodeImage(o.Image)
	if err != nil {
		return nil, err
	}
	elevation, err := rimage.DecodeElevationMap(o.Elevation)
	if err != nil {
		return nil, err
	}
	bb := o.BoundingBox
	return rimage.NewOrthoImageTile(img, elevation, rimage.NewBoundingBox(bb.MinLat, bb.MinLon, bb.MaxLat, bb.MaxLon))
}

// estimateJSON is the published GeoPose.
type estimateJSON struct {
	Timestamp         time.Time      `json:"timestamp"`
	Latitude          float64        `json:"latitude"`
	Longitude         float64        `json:"longitude"`
	AltitudeAMSL      float64        `json:"altitude_amsl"`
	AltitudeAGL       float64        `json:"altitude_agl"`
	AltitudeEllipsoid float64        `json:"altitude_ellipsoid"`
	Orientation       quaternionJSON `json:"orientation"`
}

func newEstimateJSON(e poseestimation.GeoPoseEstimate) estimateJSON {
	return estimateJSON{
		Timestamp:         e.Timestamp,
		Latitude:          e.Latitude,
		Longitude:         e.Longitude,
		AltitudeAMSL:      e.AltitudeAMSL,
		AltitudeAGL:       e.AltitudeAGL,
		AltitudeEllipsoid: e.AltitudeEllipsoid,
		Orientation:       newQuaternionJSON(e.Orientation),
	}
}
