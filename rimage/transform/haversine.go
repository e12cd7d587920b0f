package transform

import geo "github.com/kellydunn/golang-geo"

// HaversineDistance returns the great-circle distance in meters between two WGS84 points given in
// degrees, using a spherical earth of radius 6371 km.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	return geo.NewPoint(lat1, lon1).GreatCircleDistance(geo.NewPoint(lat2, lon2)) * 1000
}
