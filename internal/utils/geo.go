package utils

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// MaxSearchRadiusMeters is the largest radius any stop search may use.
const MaxSearchRadiusMeters = 10.0

// Distance returns the great-circle distance in meters between two points,
// treating the earth as a sphere.
func Distance(a, b orb.Point) float64 {
	return geo.DistanceHaversine(a, b)
}

// ClampRadius caps a search radius at MaxSearchRadiusMeters.
func ClampRadius(radius float64) float64 {
	if radius > MaxSearchRadiusMeters {
		return MaxSearchRadiusMeters
	}
	return radius
}

// BoundAround returns a box containing every point within radius meters of center.
func BoundAround(center orb.Point, radius float64) orb.Bound {
	return geo.NewBoundAroundPoint(center, radius)
}

// NearestWithin returns the candidate closest to point, provided it lies within
// radius meters (after clamping). Candidates at exactly the same distance keep
// input order: the first one wins. The boolean is false when nothing is in range.
func NearestWithin[T any](point orb.Point, candidates []T, location func(T) orb.Point, radius float64) (T, float64, bool) {
	radius = ClampRadius(radius)

	var best T
	bestDistance := 0.0
	found := false

	for _, c := range candidates {
		d := Distance(point, location(c))
		if d > radius {
			continue
		}
		if !found || d < bestDistance {
			best = c
			bestDistance = d
			found = true
		}
	}

	return best, bestDistance, found
}
