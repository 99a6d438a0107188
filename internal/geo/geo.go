// Package geo computes great-circle distances between coordinates.
package geo

import (
	"math"
	"sort"
)

// EarthRadiusKm is the mean Earth radius used by Distance.
const EarthRadiusKm = 6371.0

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Distance returns the Haversine distance between a and b in kilometres.
func Distance(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := lat2 - lat1
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// rounding can push h slightly above 1 for antipodal points
	h = math.Min(1, h)

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Located is anything that may or may not have a position.
type Located interface {
	Position() (Point, bool)
}

// Match is an item found within a radius, with its distance to the origin.
type Match[T Located] struct {
	Item       T
	DistanceKm float64
}

// WithinRadius returns the items within radiusKm of origin, nearest first.
// Items without a position are skipped.
func WithinRadius[T Located](origin Point, radiusKm float64, items []T) []Match[T] {
	matches := make([]Match[T], 0, len(items))
	for _, item := range items {
		p, ok := item.Position()
		if !ok {
			continue
		}
		d := Distance(origin, p)
		if d <= radiusKm {
			matches = append(matches, Match[T]{Item: item, DistanceKm: d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].DistanceKm < matches[j].DistanceKm
	})

	return matches
}
