// Package location holds pure geographic helpers and the live provider position overlay.
package location

import (
	"math"

	"khadamat/internal/types"
)

// EarthRadiusKm is the mean Earth radius used by HaversineKm.
const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Distance is HaversineKm over two points.
func Distance(a, b types.Point) float64 {
	return HaversineKm(a.Lat, a.Lng, b.Lat, b.Lng)
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// ValidateCoordinates rejects positions outside [-90,90] x [-180,180].
func ValidateCoordinates(p types.Point) error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return types.Invalid("lat", "must be within [-90, 90], got %v", p.Lat)
	}
	if math.IsNaN(p.Lng) || p.Lng < -180 || p.Lng > 180 {
		return types.Invalid("lng", "must be within [-180, 180], got %v", p.Lng)
	}
	return nil
}

// RoundKm rounds a distance to the one decimal shown to clients.
func RoundKm(km float64) float64 {
	return math.Round(km*10) / 10
}
