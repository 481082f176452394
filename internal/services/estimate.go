package services

import (
	"math"

	"inspection-route-service/internal/domain"
)

const earthRadiusKm = 6371.0

// haversineKm returns the great-circle distance between two points.
func haversineKm(from, to domain.Point) float64 {
	lat1 := from.Lat * math.Pi / 180
	lat2 := to.Lat * math.Pi / 180
	dLat := (to.Lat - from.Lat) * math.Pi / 180
	dLng := (to.Lng - from.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// EstimateTravelCost approximates the travel cost between two points from
// straight-line distance. Speed is tiered: short hops are slow city
// driving, longer legs assume progressively faster roads. Used when the
// routing provider cannot supply a real value.
func EstimateTravelCost(from, to domain.Point) domain.TravelCost {
	if from.Key() == to.Key() {
		return domain.TravelCost{}
	}

	km := haversineKm(from, to)

	var speedKmh float64
	switch {
	case km <= 8:
		speedKmh = 25
	case km <= 20:
		speedKmh = 35
	default:
		speedKmh = 65
	}

	minutes := int(math.Round(km / speedKmh * 60))
	if minutes < 5 {
		minutes = 5
	}

	return domain.TravelCost{Km: km, Minutes: minutes}
}
