// ABOUTME: Great-circle distance on a spherical Earth
// ABOUTME: Haversine formula used for route and distance accumulation

package geo

import (
	"math"

	"github.com/harper/runtrack/internal/models"
)

// EarthRadiusMeters is the mean Earth radius used by Distance.
const EarthRadiusMeters = 6371000

// Haversine calculates the distance in meters between two lat/lng points.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// Distance returns the great-circle distance in meters between two points.
func Distance(from, to models.GeoPoint) float64 {
	return Haversine(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
}

// PathLength sums the distances between consecutive points.
func PathLength(points []models.GeoPoint) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	return total
}
