package domain

import "math"

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two points using the haversine formula
func DistanceKm(a, b Location) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLng/2), 2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// DistanceMeters returns the great-circle distance in meters
func DistanceMeters(a, b Location) float64 {
	return DistanceKm(a, b) * 1000
}
