// Package geo holds the globe math shared by the store and the views.
package geo

import (
	"math"

	"github.com/tatianab/chronicle/internal/models"
)

const degToRad = math.Pi / 180

// AngularDistance returns the great-circle distance between a and b in
// degrees, computed with the haversine formula. The result is in [0,180].
func AngularDistance(a, b models.LatLng) float64 {
	lat1 := a.Lat * degToRad
	lat2 := b.Lat * degToRad
	dLat := (b.Lat - a.Lat) * degToRad
	dLng := (b.Lng - a.Lng) * degToRad

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// Rounding can push h a hair outside [0,1] for antipodal points.
	h = math.Min(math.Max(h, 0), 1)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return math.Min(c/degToRad, 180)
}

// Nearest returns the city closest to p.
func Nearest(p models.LatLng, cities []models.City) (models.City, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i, c := range cities {
		if d := AngularDistance(p, c.Position()); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return models.City{}, false
	}
	return cities[best], true
}

// Within reports whether q lies inside a latitude/longitude box around p.
// It is a cheap stand-in for AngularDistance and ignores the date line.
func Within(p, q models.LatLng, dLat, dLng float64) bool {
	return math.Abs(p.Lat-q.Lat) < dLat && math.Abs(p.Lng-q.Lng) < dLng
}
