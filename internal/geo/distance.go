// Package geo measures great-circle distances between coordinates.
package geo

import (
	"fmt"
	"math"
)

const earthRadiusKm = 6371.0

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the point lies within latitude and longitude bounds.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// DistanceKm returns the haversine distance between a and b in kilometers.
func DistanceKm(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// DistanceMeters is DistanceKm in meters.
func DistanceMeters(a, b Point) float64 {
	return DistanceKm(a, b) * 1000
}

// Round1 rounds a distance to one decimal.
func Round1(km float64) float64 {
	return math.Round(km*10) / 10
}

// WalkingEstimate renders a distance as a short human estimate in Spanish,
// assuming 5 km/h on foot.
func WalkingEstimate(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%d m (%d min caminando)", int(math.Round(km*1000)), walkMinutes(km))
	}
	return fmt.Sprintf("%.1f km (%d min caminando)", km, walkMinutes(km))
}

func walkMinutes(km float64) int {
	m := int(math.Ceil(km / 5 * 60))
	if m < 1 {
		return 1
	}
	return m
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
