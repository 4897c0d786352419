// Package geo holds the great-circle helpers shared by the search pipeline
// and the discovery adapter.
package geo

import "math"

// EarthRadiusMiles is the mean Earth radius used for every distance in miles.
const EarthRadiusMiles = 3959.0

const metersPerMile = 1609.344

// DistanceMiles returns the haversine distance between two coordinates.
// Inputs are not validated; callers filter out non-finite coordinates.
func DistanceMiles(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(lat1))*math.Cos(degreesToRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMiles * c
}

// MilesToMeters converts miles to meters.
func MilesToMeters(miles float64) float64 {
	return miles * metersPerMile
}

// MetersToMiles converts meters to miles.
func MetersToMiles(meters float64) float64 {
	return meters / metersPerMile
}

// ValidCoordinates reports whether lat/lng are finite and in range.
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
