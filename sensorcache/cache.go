package sensorcache

import (
	"image"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	goutils "go.viam.com/utils"
	"gonum.org/v1/gonum/num/quat"

	"github.com/deepuav/gisnav/rimage"
	"github.com/deepuav/gisnav/rimage/transform"
)

// Feed names, as reported by Cache.Status.
const (
	FeedImage             = "image"
	FeedOrthoImage        = "orthoimage"
	FeedCameraIntrinsics  = "camera_info"
	FeedGimbalOrientation = "gimbal"
	FeedAltitude          = "altitude"
	FeedTerrainAltitude   = "terrain_altitude"
	FeedTerrainGeoPoint   = "terrain_geopoint"
	FeedHomeGeoPoint      = "home_geopoint"
)

// Altitude is the set of altitudes reported by the autopilot, in meters. Unknown entries are NaN.
type Altitude struct {
	Monotonic       float64
	AMSL            float64
	Local           float64
	Relative        float64
	Terrain         float64
	BottomClearance float64
}

// NewUnknownAltitude returns an altitude with every entry unknown.
func NewUnknownAltitude() Altitude {
	nan := math.NaN()
	return Altitude{Monotonic: nan, AMSL: nan, Local: nan, Relative: nan, Terrain: nan, BottomClearance: nan}
}

// GeoPoint is a WGS84 position. Altitude is above the ellipsoid, in meters.
type GeoPoint struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
}

// StalenessConfig is the max age of each feed. Zero disables the staleness check of a feed.
type StalenessConfig struct {
	Image             time.Duration `json:"image"`
	OrthoImage        time.Duration `json:"orthoimage"`
	CameraIntrinsics  time.Duration `json:"camera_info"`
	GimbalOrientation time.Duration `json:"gimbal"`
	Altitude          time.Duration `json:"altitude"`
	TerrainAltitude   time.Duration `json:"terrain_altitude"`
	TerrainGeoPoint   time.Duration `json:"terrain_geopoint"`
	HomeGeoPoint      time.Duration `json:"home_geopoint"`
}

// DefaultStalenessConfig returns the default max age of each feed.
func DefaultStalenessConfig() StalenessConfig {
	return StalenessConfig{
		Image:             500 * time.Millisecond,
		GimbalOrientation: 2 * time.Second,
		Altitude:          2 * time.Second,
		TerrainAltitude:   2 * time.Second,
		TerrainGeoPoint:   2 * time.Second,
		HomeGeoPoint:      10 * time.Second,
	}
}

// Validate ensures all parts of the config are valid.
func (cfg *StalenessConfig) Validate(path string) error {
	for name, d := range cfg.byFeed() {
		if d < 0 {
			return goutils.NewConfigValidationError(path, errors.Errorf("max age of %q must not be negative, got %v", name, d))
		}
	}
	return nil
}

func (cfg *StalenessConfig) byFeed() map[string]time.Duration {
	return map[string]time.Duration{
		FeedImage:             cfg.Image,
		FeedOrthoImage:        cfg.OrthoImage,
		FeedCameraIntrinsics:  cfg.CameraIntrinsics,
		FeedGimbalOrientation: cfg.GimbalOrientation,
		FeedAltitude:          cfg.Altitude,
		FeedTerrainAltitude:   cfg.TerrainAltitude,
		FeedTerrainGeoPoint:   cfg.TerrainGeoPoint,
		FeedHomeGeoPoint:      cfg.HomeGeoPoint,
	}
}

// Cache holds the latest message of every input feed. Each feed is locked on its own; readers
// never see a partially written value.
type Cache struct {
	Image             *Value[image.Image]
	OrthoImage        *Value[*rimage.OrthoImageTile]
	CameraIntrinsics  *Value[*transform.CameraIntrinsics]
	GimbalOrientation *Value[quat.Number]
	Altitude          *Value[Altitude]
	TerrainAltitude   *Value[Altitude]
	TerrainGeoPoint   *Value[GeoPoint]
	HomeGeoPoint      *Value[GeoPoint]
}

// NewCache returns an empty cache. A nil clock uses the wall clock.
func NewCache(clk clock.Clock, cfg StalenessConfig) *Cache {
	if clk == nil {
		clk = clock.New()
	}
	return &Cache{
		Image:             NewValue[image.Image](clk, cfg.Image),
		OrthoImage:        NewValue[*rimage.OrthoImageTile](clk, cfg.OrthoImage),
		CameraIntrinsics:  NewValue[*transform.CameraIntrinsics](clk, cfg.CameraIntrinsics),
		GimbalOrientation: NewValue[quat.Number](clk, cfg.GimbalOrientation),
		Altitude:          NewValue[Altitude](clk, cfg.Altitude),
		TerrainAltitude:   NewValue[Altitude](clk, cfg.TerrainAltitude),
		TerrainGeoPoint:   NewValue[GeoPoint](clk, cfg.TerrainGeoPoint),
		HomeGeoPoint:      NewValue[GeoPoint](clk, cfg.HomeGeoPoint),
	}
}

// SetImage stores the latest camera frame.
func (c *Cache) SetImage(img image.Image) { c.Image.Set(img) }

// SetOrthoImage replaces the orthoimage tile.
func (c *Cache) SetOrthoImage(tile *rimage.OrthoImageTile) { c.OrthoImage.Set(tile) }

// SetCameraIntrinsics stores the camera intrinsics.
func (c *Cache) SetCameraIntrinsics(k *transform.CameraIntrinsics) { c.CameraIntrinsics.Set(k) }

// SetGimbalOrientation stores the gimbal attitude in NED.
func (c *Cache) SetGimbalOrientation(q quat.Number) { c.GimbalOrientation.Set(q) }

// SetAltitude stores the vehicle altitude.
func (c *Cache) SetAltitude(alt Altitude) { c.Altitude.Set(alt) }

// SetTerrainAltitude stores the altitude of the terrain below the vehicle.
func (c *Cache) SetTerrainAltitude(alt Altitude) { c.TerrainAltitude.Set(alt) }

// SetTerrainGeoPoint stores the terrain position below the vehicle.
func (c *Cache) SetTerrainGeoPoint(pt GeoPoint) { c.TerrainGeoPoint.Set(pt) }

// SetHomeGeoPoint stores the home position.
func (c *Cache) SetHomeGeoPoint(pt GeoPoint) { c.HomeGeoPoint.Set(pt) }

type statuser interface {
	Status() FeedStatus
}

// Status returns the freshness of every feed keyed by feed name.
func (c *Cache) Status() map[string]FeedStatus {
	type namedFeed struct {
		name string
		feed statuser
	}
	feeds := []namedFeed{
		{FeedImage, c.Image},
		{FeedOrthoImage, c.OrthoImage},
		{FeedCameraIntrinsics, c.CameraIntrinsics},
		{FeedGimbalOrientation, c.GimbalOrientation},
		{FeedAltitude, c.Altitude},
		{FeedTerrainAltitude, c.TerrainAltitude},
		{FeedTerrainGeoPoint, c.TerrainGeoPoint},
		{FeedHomeGeoPoint, c.HomeGeoPoint},
	}
	return lo.Associate(feeds, func(f namedFeed) (string, FeedStatus) {
		return f.name, f.feed.Status()
	})
}
